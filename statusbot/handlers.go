package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"cistatus/shared/payload"
)

// commandRequest is the chat-bot invocation body for status queries.
type commandRequest struct {
	Item struct {
		Message struct {
			Message string `json:"message"`
		} `json:"message"`
	} `json:"item"`
}

// HandleEvent ingests one CI build-completion webhook. Malformed payloads
// are dropped and still acknowledged with a 2xx: the CI system is not the
// party that can fix them, and it must not keep retrying.
func (b *StatusBot) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("❌ Failed to read event body: %v", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := b.Ingest(r.Context(), body); err != nil {
		if errors.Is(err, payload.ErrMalformedPayload) {
			log.Printf("⚠️ Dropping malformed CI event: %v", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Printf("❌ Failed to ingest CI event: %v", err)
		http.Error(w, "Failed to process event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleCommand answers a chat status query synchronously with the rendered
// room message. Read-only, always renders a table (possibly empty).
func (b *StatusBot) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd commandRequest
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		log.Printf("❌ Invalid command body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := b.Query(cmd.Item.Message.Message)
	if err != nil {
		log.Printf("❌ Failed to render status: %v", err)
		http.Error(w, "Failed to render status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}

// GetStatuses returns the latest build of every known branch.
func (b *StatusBot) GetStatuses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b.cache.GetMany(nil))
}

// GetStatus returns the latest build of one branch.
func (b *StatusBot) GetStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	branch := vars["branch"]

	result := b.cache.Get(branch)
	if result == nil {
		http.Error(w, "Branch not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetStats returns the cumulative counters of one branch.
func (b *StatusBot) GetStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	branch := vars["branch"]

	branchStats, found, err := b.store.ReadStats(r.Context(), branch)
	if err != nil {
		log.Printf("❌ Failed to read stats for %s: %v", branch, err)
		http.Error(w, "Failed to read stats", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Branch not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(branchStats)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
