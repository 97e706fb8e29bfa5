package api

import (
	"log"
	"net/http"
	"time"

	"chat-relay/internal/chat"
	"chat-relay/internal/middleware"

	"github.com/gorilla/websocket"
)

const (
	sendBurst      = 5
	sendRefillRate = 500 * time.Millisecond
)

// ServeWS upgrades the request and registers the connection with the hub.
// The hub auto-joins it to the global room; history is not pushed — the
// client fetches GET /messages when it wants a transcript.
// GET /ws
func ServeWS(hub *chat.Hub, svc *chat.Service, policy *middleware.OriginPolicy) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 512,
		CheckOrigin:     policy.CheckRequest,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		limiter := middleware.NewRateLimiter(sendBurst, sendRefillRate)
		client := chat.NewClient(conn, hub, svc, limiter)

		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
