package models

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousUser is substituted when a sender supplies no display name.
const AnonymousUser = "Anonymous"

// ChatMessage is a stored chat message. Messages are immutable once written:
// UpdatedAt always equals CreatedAt and exists only so the wire shape stays
// stable if edits ever land.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessagePayload is the client-supplied body for both POST /messages and the
// send_message event.
type MessagePayload struct {
	User string `json:"user"`
	Text string `json:"text"`
}
