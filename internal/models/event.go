package models

import "encoding/json"

// Event types exchanged over the realtime connection.
const (
	EventJoinGlobal  = "join_global"
	EventSendMessage = "send_message"
	EventNewMessage  = "new_message"
	EventError       = "error"
)

// Event is the envelope for every realtime frame, inbound and outbound.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is the body of an outbound error event.
type ErrorPayload struct {
	Message string `json:"message"`
}
