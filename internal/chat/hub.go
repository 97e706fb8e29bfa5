package chat

import (
	"encoding/json"
	"log"
	"sync"

	"chat-relay/internal/models"

	"github.com/google/uuid"
)

// GlobalRoom is the default room every connection is placed in at register
// time. Publishing is always room-scoped; auto-joining here replaces the old
// "emit to room, then emit to everyone to be safe" double delivery.
const GlobalRoom = "global"

// Hub tracks live connections and their room membership, and fans persisted
// messages out to them. All methods are safe for concurrent use; membership
// state only exists while a connection is up — a reconnecting client starts
// from scratch.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	rooms   map[string]map[uuid.UUID]struct{}
	closed  bool
}

func NewHub() *Hub {
	log.Println("[HUB] Initializing new Hub instance...")
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		rooms:   make(map[string]map[uuid.UUID]struct{}),
	}
}

// Register adds a client and auto-joins it to the global room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		c.closeSend()
		return
	}

	h.clients[c.ID] = c
	h.joinLocked(c.ID, GlobalRoom)
	log.Printf("[HUB] Registered %s. Total active: %d", c.ID, len(h.clients))
}

// Join adds a room to the client's membership. Joining a room twice, or a
// room the client is already auto-joined to, is a no-op.
func (h *Hub) Join(id uuid.UUID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[id]; !ok {
		return
	}
	h.joinLocked(id, room)
}

func (h *Hub) joinLocked(id uuid.UUID, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		h.rooms[room] = members
	}
	members[id] = struct{}{}
}

// Unregister removes the client and all of its memberships. Safe to call
// more than once; the send channel is closed exactly once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}

	delete(h.clients, c.ID)
	for room, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.closeSend()
	log.Printf("[HUB] Unregistered %s. Total active: %d", c.ID, len(h.clients))
}

// MembersOf returns the ids of the room's current members. Unknown rooms
// yield an empty slice.
func (h *Hub) MembersOf(room string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		ids = append(ids, id)
	}
	return ids
}

// OnlineCount reports the number of registered connections.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers a persisted message to every member of room as a
// new_message event. Delivery is fire-and-forget per recipient: a member
// whose send buffer is full is skipped and the rest still receive the
// message. Publish itself never fails.
func (h *Hub) Publish(room string, msg *models.ChatMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[HUB] Dropping unmarshalable message %s: %v", msg.ID, err)
		return
	}
	payload, err := json.Marshal(models.Event{Type: models.EventNewMessage, Data: raw})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id := range h.rooms[room] {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		if !client.trySend(payload) {
			log.Printf("[HUB] WARNING: client %s full or gone, dropping message %s", id, msg.ID)
		}
	}
}

// Shutdown disconnects every client and refuses further registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	log.Printf("[HUB] Shutting down, closing %d client connections...", len(h.clients))
	for id, client := range h.clients {
		delete(h.clients, id)
		client.closeSend()
	}
	h.rooms = make(map[string]map[uuid.UUID]struct{})
}
