package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"cistatus/shared/render"
)

// roomMessage is the JSON body the chat endpoint expects.
type roomMessage struct {
	Color         string `json:"color"`
	Message       string `json:"message"`
	Notify        bool   `json:"notify"`
	MessageFormat string `json:"message_format"`
}

// Dispatcher delivers rendered statuses to the chat notification endpoint.
// Delivery is fire-and-forget: failures are logged, never retried and never
// surfaced to the event originator.
type Dispatcher struct {
	url        string
	authToken  string
	httpClient *http.Client
}

func New(url, authToken string) *Dispatcher {
	return &Dispatcher{
		url:       url,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Dispatch pushes a rendered status to the chat room. With no endpoint
// configured this is a logged no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, rendered render.RenderedStatus) {
	if d.url == "" {
		log.Printf("⚠️ No notification endpoint configured, skipping push (color=%s, rows=%d)",
			rendered.Color, len(rendered.Table.Rows))
		return
	}

	body, err := json.Marshal(messageFor(rendered))
	if err != nil {
		log.Printf("❌ Failed to marshal notification: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("❌ Failed to build notification request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.authToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ Failed to deliver notification: %v", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		log.Printf("❌ Notification endpoint returned %d", resp.StatusCode)
		return
	}
	log.Printf("✅ Notification delivered (color=%s, rows=%d)", rendered.Color, len(rendered.Table.Rows))
}

// Respond serializes a rendered status into the same message shape the push
// path sends, for synchronous return to a command invoker. No network call.
func (d *Dispatcher) Respond(rendered render.RenderedStatus) ([]byte, error) {
	return json.Marshal(messageFor(rendered))
}

func messageFor(rendered render.RenderedStatus) roomMessage {
	return roomMessage{
		Color:         rendered.Color,
		Message:       render.HTML(rendered.Table),
		Notify:        false,
		MessageFormat: "html",
	}
}
