package domain

import (
	"context"
	"time"
)

// Message is a persisted chat message. The populated form (sender and chat
// references resolved) is the canonical payload the real-time layer relays
// verbatim.
type Message struct {
	ID        string    `json:"_id"`
	Chat      *Chat     `json:"chat,omitempty"`
	Sender    *User     `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageRepository defines the contract for message storage operations.
type MessageRepository interface {
	// Create stores a new message for the given chat and sender and returns
	// the stored record with its id and timestamp set. References are not
	// populated; callers compose the canonical document.
	Create(ctx context.Context, chatID, senderID, content string) (*Message, error)

	// ListByChat returns the chat's messages, oldest first, with sender
	// populated.
	ListByChat(ctx context.Context, chatID string) ([]Message, error)
}
