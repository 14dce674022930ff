package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/parley/internal/domain"
)

const messageFields = "meta::id(id) AS _id, chat, sender, content, createdAt"

// messageRecord is the database shape of a message; chat and sender are
// stored as plain record ids.
type messageRecord struct {
	ID        string    `json:"_id"`
	Chat      string    `json:"chat"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SurrealMessageStore encapsulates database operations for messages using
// SurrealDB.
type SurrealMessageStore struct {
	db    *surrealdb.DB
	users *SurrealUserStore
}

// NewSurrealMessageStore creates a new SurrealMessageStore.
func NewSurrealMessageStore(db *surrealdb.DB, users *SurrealUserStore) *SurrealMessageStore {
	return &SurrealMessageStore{db: db, users: users}
}

// Create stores a new message and returns the stored record.
func (s *SurrealMessageStore) Create(ctx context.Context, chatID, senderID, content string) (*domain.Message, error) {
	id := uuid.NewString()
	query := `CREATE type::thing('message', $id) CONTENT {
		chat: $chat,
		sender: $sender,
		content: $content,
		createdAt: time::now()
	}`
	params := map[string]any{
		"id":      id,
		"chat":    chatID,
		"sender":  senderID,
		"content": content,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	rec, err := QueryOne[messageRecord](ctx, s.db,
		"SELECT "+messageFields+" FROM message WHERE meta::id(id) = $id",
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created message: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("message was not created or could not be fetched")
	}

	return &domain.Message{
		ID:        rec.ID,
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// ListByChat returns the chat's messages, oldest first, with sender populated.
func (s *SurrealMessageStore) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	recs, err := Query[messageRecord](ctx, s.db,
		"SELECT "+messageFields+" FROM message WHERE chat = $chat ORDER BY createdAt ASC",
		map[string]any{"chat": chatID})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	// Resolve senders once per user rather than per message.
	senderIDs := make([]string, 0, len(recs))
	seen := make(map[string]bool)
	for _, rec := range recs {
		if !seen[rec.Sender] {
			seen[rec.Sender] = true
			senderIDs = append(senderIDs, rec.Sender)
		}
	}
	senders, err := s.users.FindByIDs(ctx, senderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to populate message senders: %w", err)
	}
	byID := make(map[string]domain.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	messages := make([]domain.Message, 0, len(recs))
	for _, rec := range recs {
		msg := domain.Message{
			ID:        rec.ID,
			Content:   rec.Content,
			CreatedAt: rec.CreatedAt,
		}
		if sender, ok := byID[rec.Sender]; ok {
			msg.Sender = &sender
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
