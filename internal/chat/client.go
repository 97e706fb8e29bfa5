package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"chat-relay/internal/middleware"
	"chat-relay/internal/models"
	"chat-relay/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 10 * time.Second
	// ingestWait bounds the store call, detached from the connection's
	// lifetime: a socket dropping mid-append must not undo the write.
	ingestWait     = 5 * time.Second
	maxFrameSize   = 512
	limitLogEvery  = 3 * time.Second
	sendBufferSize = 256
)

// Client is one live realtime connection.
type Client struct {
	ID      uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Hub     *Hub
	Ingest  *Service
	Limiter *middleware.RateLimiter

	lastLimitLog time.Time

	// sendMu orders closeSend against trySend: the write side of Send can
	// be torn down by the hub while the read pump is still mid-event, so
	// every send and the close itself happen under this lock.
	sendMu     sync.Mutex
	sendClosed bool
}

func NewClient(conn *websocket.Conn, hub *Hub, ingest *Service, limiter *middleware.RateLimiter) *Client {
	return &Client{
		ID:      uuid.New(),
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		Hub:     hub,
		Ingest:  ingest,
		Limiter: limiter,
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.Send)
}

// trySend queues payload for the write pump. Reports false when the
// connection is already torn down or its buffer is full; either way the
// caller moves on.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with pings. Runs as one goroutine per connection and
// exits when the send channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush whatever else is queued into the same frame batch.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				msg, ok := <-c.Send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(msg)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes inbound events serially, which is what preserves FIFO
// ordering for a single sender: the next frame is not read until the
// current one's append has committed or failed.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[CLIENT] Unexpected close from %s: %v", c.ID, err)
			}
			break
		}

		if c.Limiter != nil && !c.Limiter.Allow() {
			if time.Since(c.lastLimitLog) > limitLogEvery {
				log.Printf("[CLIENT] Rate limit exceeded for %s, dropping frames", c.ID)
				c.lastLimitLog = time.Now()
			}
			continue
		}

		evt := &models.Event{}
		if err := json.Unmarshal(message, evt); err != nil {
			continue
		}

		c.handleEvent(evt)
	}
}

func (c *Client) handleEvent(evt *models.Event) {
	switch evt.Type {
	case models.EventJoinGlobal:
		c.Hub.Join(c.ID, GlobalRoom)

	case models.EventSendMessage:
		var payload models.MessagePayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), ingestWait)
		_, err := c.Ingest.Ingest(ctx, payload.User, payload.Text)
		cancel()

		if err != nil {
			// Blank text over the realtime channel is treated as client
			// noise, not a fault: drop it without any reply.
			if errors.Is(err, repository.ErrEmptyText) {
				return
			}
			log.Printf("[CLIENT] Error saving message from %s: %v", c.ID, err)
			c.sendError("Message save failed")
		}

	default:
		log.Printf("[CLIENT] Unknown event type %q from %s", evt.Type, c.ID)
	}
}

// sendError notifies this connection only; store failures are never
// broadcast to other clients. A connection that dropped while the append
// was in flight is simply gone — there is nobody left to notify.
func (c *Client) sendError(message string) {
	raw, _ := json.Marshal(models.ErrorPayload{Message: message})
	payload, _ := json.Marshal(models.Event{Type: models.EventError, Data: raw})

	c.trySend(payload)
}
