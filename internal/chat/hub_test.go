package chat

import (
	"encoding/json"
	"testing"
	"time"

	"chat-relay/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(nil, nil, nil, nil)
}

func sampleMessage() *models.ChatMessage {
	now := time.Now().UTC()
	return &models.ChatMessage{
		ID:        uuid.New(),
		User:      "alice",
		Text:      "hi",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHub_Register_AutoJoinsGlobal(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := newTestClient()

	hub.Register(c)

	req.Equal(1, hub.OnlineCount())
	req.Contains(hub.MembersOf(GlobalRoom), c.ID)
}

func TestHub_Join_Idempotent(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := newTestClient()
	hub.Register(c)

	hub.Join(c.ID, "lounge")
	hub.Join(c.ID, "lounge")

	req.Len(hub.MembersOf("lounge"), 1)
	// Re-joining the auto-joined room changes nothing either.
	hub.Join(c.ID, GlobalRoom)
	req.Len(hub.MembersOf(GlobalRoom), 1)
}

func TestHub_Join_UnknownClient(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	hub.Join(uuid.New(), "lounge")

	req.Empty(hub.MembersOf("lounge"))
}

func TestHub_MembersOf_UnknownRoom(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	req.Empty(hub.MembersOf("nowhere"))
}

func TestHub_Unregister_RemovesAllMembership(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := newTestClient()
	hub.Register(c)
	hub.Join(c.ID, "lounge")

	hub.Unregister(c)

	req.Equal(0, hub.OnlineCount())
	req.Empty(hub.MembersOf(GlobalRoom))
	req.Empty(hub.MembersOf("lounge"))

	_, open := <-c.Send
	req.False(open, "send channel should be closed")

	// Idempotent: a second unregister is a no-op.
	hub.Unregister(c)
}

func TestHub_Publish_EmptyRoom(t *testing.T) {
	hub := NewHub()
	hub.Publish(GlobalRoom, sampleMessage())
}

func TestHub_Publish_DeliversToAllIncludingSender(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	clients := []*Client{newTestClient(), newTestClient(), newTestClient()}
	for _, c := range clients {
		hub.Register(c)
	}

	msg := sampleMessage()
	hub.Publish(GlobalRoom, msg)

	for _, c := range clients {
		select {
		case raw := <-c.Send:
			evt := &models.Event{}
			req.NoError(json.Unmarshal(raw, evt))
			req.Equal(models.EventNewMessage, evt.Type)

			var got models.ChatMessage
			req.NoError(json.Unmarshal(evt.Data, &got))
			req.Equal(msg.ID, got.ID)
			req.Equal("hi", got.Text)
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}
}

func TestHub_Publish_SkipsFullBuffer(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	stuck := &Client{ID: uuid.New(), Send: make(chan []byte, 1)}
	stuck.Send <- []byte("backlog")
	healthy := newTestClient()

	hub.Register(stuck)
	hub.Register(healthy)

	hub.Publish(GlobalRoom, sampleMessage())

	select {
	case <-healthy.Send:
	default:
		t.Fatal("healthy client should still receive the message")
	}
	// The stuck client kept only its backlog.
	req.Equal([]byte("backlog"), <-stuck.Send)
	req.Empty(stuck.Send)
}

func TestHub_Shutdown(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := newTestClient()
	hub.Register(c)

	hub.Shutdown()

	req.Equal(0, hub.OnlineCount())
	_, open := <-c.Send
	req.False(open)

	// Registrations after shutdown are refused and the client is closed.
	late := newTestClient()
	hub.Register(late)
	req.Equal(0, hub.OnlineCount())
	_, open = <-late.Send
	req.False(open)
}
