package auth

import (
	"context"
)

type contextKey string

const claimsContextKey contextKey = "clientClaims"

func ContextWithClientClaims(ctx context.Context, claims *ClientClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClientClaimsFromContext(ctx context.Context) (*ClientClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*ClientClaims)
	return claims, ok
}
