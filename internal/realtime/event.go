package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Client-to-server event names. These match what the web client emits.
const (
	EventSetup      = "setup"
	EventJoinChat   = "join chat"
	EventLeaveChat  = "leave chat"
	EventNewMessage = "new message"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"
)

// Server-to-client event names.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

// Envelope is the wire frame for every real-time event, in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode frames an event and its raw payload for the wire.
func Encode(event string, payload []byte) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Payload: payload})
}

// SetupPayload identifies the user binding a connection.
type SetupPayload struct {
	ID string `json:"_id" validate:"required"`
}

// MessageRouting is the subset of the message document the fan-out decision
// needs. The full document is relayed verbatim; only these fields are
// validated at the boundary.
type MessageRouting struct {
	Chat   RoutingChat `json:"chat"`
	Sender RoutingUser `json:"sender"`
}

// RoutingChat carries the chat id and its member list.
type RoutingChat struct {
	ID    string        `json:"_id" validate:"required"`
	Users []RoutingUser `json:"users" validate:"required,min=1,dive"`
}

// RoutingUser carries a user reference.
type RoutingUser struct {
	ID string `json:"_id" validate:"required"`
}

// decodeMessageRouting parses and validates the routing fields of a message
// payload. A missing or empty member list is a validation error, not a
// runtime surprise at fan-out time.
func decodeMessageRouting(payload []byte, validate *validator.Validate) (*MessageRouting, error) {
	var routing MessageRouting
	if err := json.Unmarshal(payload, &routing); err != nil {
		return nil, fmt.Errorf("malformed message payload: %w", err)
	}
	if err := validate.Struct(&routing); err != nil {
		return nil, fmt.Errorf("invalid message payload: %w", err)
	}
	return &routing, nil
}

// decodeRoom parses a room id payload (a bare JSON string).
func decodeRoom(payload []byte) (string, error) {
	var room string
	if err := json.Unmarshal(payload, &room); err != nil {
		return "", fmt.Errorf("malformed room payload: %w", err)
	}
	if room == "" {
		return "", fmt.Errorf("empty room id")
	}
	return room, nil
}
