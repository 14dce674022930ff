package domain

import (
	"context"
	"time"
)

// Chat represents a conversation between two or more users. Users, group
// admin and the latest message are populated references, mirroring the
// document the web client works with.
type Chat struct {
	ID            string    `json:"_id"`
	ChatName      string    `json:"chatName,omitempty"`
	IsGroupChat   bool      `json:"isGroupChat"`
	Users         []User    `json:"users"`
	GroupAdmin    *User     `json:"groupAdmin,omitempty"`
	LatestMessage *Message  `json:"latestMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasMember reports whether the user is part of the chat.
func (c *Chat) HasMember(userID string) bool {
	for _, u := range c.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// ChatRepository defines the contract for chat data storage operations.
// Returned chats carry populated users and group admin; latestMessage is
// populated where the operation says so.
type ChatRepository interface {
	// Create stores a new chat. userIDs are the member ids; adminID is empty
	// for one-to-one chats.
	Create(ctx context.Context, name string, isGroup bool, userIDs []string, adminID string) (*Chat, error)

	// FindByID returns the chat with the given id. Returns ErrNotFound when
	// absent.
	FindByID(ctx context.Context, id string) (*Chat, error)

	// FindDirect returns the one-to-one chat whose members are exactly the
	// two given users, or ErrNotFound.
	FindDirect(ctx context.Context, userA, userB string) (*Chat, error)

	// ListForUser returns every chat the user is a member of, most recently
	// active first, with latestMessage populated.
	ListForUser(ctx context.Context, userID string) ([]Chat, error)

	// Rename updates the chat name and returns the updated chat.
	Rename(ctx context.Context, chatID, name string) (*Chat, error)

	// AddUser adds a member and returns the updated chat.
	AddUser(ctx context.Context, chatID, userID string) (*Chat, error)

	// RemoveUser removes a member and returns the updated chat.
	RemoveUser(ctx context.Context, chatID, userID string) (*Chat, error)

	// Delete removes the chat record.
	Delete(ctx context.Context, chatID string) error

	// SetLatestMessage points the chat at its most recent message and bumps
	// its activity timestamp.
	SetLatestMessage(ctx context.Context, chatID, messageID string) error
}
