package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"chat-relay/internal/chat"
	"chat-relay/internal/models"
	"chat-relay/internal/repository"
)

const (
	dbTimeout = 5 * time.Second
	// maxBodyBytes bounds POST bodies the way the realtime surface bounds
	// frames, with headroom for the JSON envelope.
	maxBodyBytes = 4096
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] Encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// GetMessagesHandler serves the most recent transcript page, oldest first.
// GET /messages
func GetMessagesHandler(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		messages, err := svc.History(dbctx)
		if err != nil {
			log.Printf("[API] History fetch failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		writeJSON(w, http.StatusOK, messages)
	}
}

// PostMessageHandler stores one message and triggers the same fanout as the
// realtime path. Blank text is a hard 400 here: request/response callers
// need a synchronous failure signal.
// POST /messages
func PostMessageHandler(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var payload models.MessagePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[API] Decode error: %v", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		dbctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		defer cancel()

		msg, err := svc.Ingest(dbctx, payload.User, payload.Text)
		if err != nil {
			if errors.Is(err, repository.ErrEmptyText) {
				writeError(w, http.StatusBadRequest, "Text required")
				return
			}
			log.Printf("[API] Message save failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

// HealthHandler is a plain liveness probe.
// GET /health
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}
