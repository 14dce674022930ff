package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/parley/internal/domain"
)

const chatFields = "meta::id(id) AS _id, chatName, isGroupChat, users, groupAdmin, latestMessage, createdAt, updatedAt"

// chatRecord is the database shape of a chat. Members, admin and latest
// message are stored as plain record ids and populated on the way out,
// mirroring the document the API serves.
type chatRecord struct {
	ID            string    `json:"_id"`
	ChatName      string    `json:"chatName"`
	IsGroupChat   bool      `json:"isGroupChat"`
	Users         []string  `json:"users"`
	GroupAdmin    string    `json:"groupAdmin"`
	LatestMessage string    `json:"latestMessage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SurrealChatStore encapsulates database operations for chats using SurrealDB.
type SurrealChatStore struct {
	db    *surrealdb.DB
	users domain.UserRepository
}

// NewSurrealChatStore creates a new SurrealChatStore.
func NewSurrealChatStore(db *surrealdb.DB, users domain.UserRepository) *SurrealChatStore {
	return &SurrealChatStore{db: db, users: users}
}

// Create stores a new chat with the given members.
func (s *SurrealChatStore) Create(ctx context.Context, name string, isGroup bool, userIDs []string, adminID string) (*domain.Chat, error) {
	id := uuid.NewString()
	query := `CREATE type::thing('chat', $id) CONTENT {
		chatName: $name,
		isGroupChat: $isGroup,
		users: $users,
		groupAdmin: $admin,
		latestMessage: "",
		createdAt: time::now(),
		updatedAt: time::now()
	}`
	params := map[string]any{
		"id":      id,
		"name":    name,
		"isGroup": isGroup,
		"users":   userIDs,
		"admin":   adminID,
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return s.FindByID(ctx, id)
}

// FindByID returns the populated chat with the given id.
func (s *SurrealChatStore) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	rec, err := QueryOne[chatRecord](ctx, s.db,
		"SELECT "+chatFields+" FROM chat WHERE meta::id(id) = $id",
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return s.populate(ctx, rec)
}

// FindDirect returns the one-to-one chat whose members are exactly the two
// given users.
func (s *SurrealChatStore) FindDirect(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	query := "SELECT " + chatFields + ` FROM chat
		WHERE isGroupChat = false
		AND users CONTAINS $a
		AND users CONTAINS $b
		AND array::len(users) = 2`
	rec, err := QueryOne[chatRecord](ctx, s.db, query, map[string]any{"a": userA, "b": userB})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return s.populate(ctx, rec)
}

// ListForUser returns every chat the user is a member of, most recently
// active first.
func (s *SurrealChatStore) ListForUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	query := "SELECT " + chatFields + " FROM chat WHERE users CONTAINS $user ORDER BY updatedAt DESC"
	recs, err := Query[chatRecord](ctx, s.db, query, map[string]any{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	chats := make([]domain.Chat, 0, len(recs))
	for i := range recs {
		chat, err := s.populate(ctx, &recs[i])
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, nil
}

// Rename updates the chat name.
func (s *SurrealChatStore) Rename(ctx context.Context, chatID, name string) (*domain.Chat, error) {
	query := "UPDATE type::thing('chat', $id) SET chatName = $name, updatedAt = time::now()"
	if err := s.updateExisting(ctx, chatID, query, map[string]any{"id": chatID, "name": name}); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, chatID)
}

// AddUser adds a member to a chat.
func (s *SurrealChatStore) AddUser(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	// array::union keeps the member list duplicate-free even when the same
	// user is added twice.
	query := "UPDATE type::thing('chat', $id) SET users = array::union(users, [$user]), updatedAt = time::now()"
	if err := s.updateExisting(ctx, chatID, query, map[string]any{"id": chatID, "user": userID}); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, chatID)
}

// RemoveUser removes a member from a chat.
func (s *SurrealChatStore) RemoveUser(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	query := "UPDATE type::thing('chat', $id) SET users -= $user, updatedAt = time::now()"
	if err := s.updateExisting(ctx, chatID, query, map[string]any{"id": chatID, "user": userID}); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, chatID)
}

// Delete removes the chat record and its messages.
func (s *SurrealChatStore) Delete(ctx context.Context, chatID string) error {
	if err := Execute(ctx, s.db, "DELETE message WHERE chat = $id", map[string]any{"id": chatID}); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if err := Execute(ctx, s.db, "DELETE type::thing('chat', $id)", map[string]any{"id": chatID}); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

// SetLatestMessage points the chat at its most recent message.
func (s *SurrealChatStore) SetLatestMessage(ctx context.Context, chatID, messageID string) error {
	query := "UPDATE type::thing('chat', $id) SET latestMessage = $message, updatedAt = time::now()"
	return s.updateExisting(ctx, chatID, query, map[string]any{"id": chatID, "message": messageID})
}

// updateExisting runs an update and maps a missing record to ErrNotFound.
func (s *SurrealChatStore) updateExisting(ctx context.Context, chatID, query string, params map[string]any) error {
	existing, err := QueryOne[chatRecord](ctx, s.db,
		"SELECT "+chatFields+" FROM chat WHERE meta::id(id) = $id",
		map[string]any{"id": chatID})
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	return nil
}

// populate resolves member, admin and latest-message references into the
// document shape the API serves.
func (s *SurrealChatStore) populate(ctx context.Context, rec *chatRecord) (*domain.Chat, error) {
	users, err := s.users.FindByIDs(ctx, rec.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to populate chat users: %w", err)
	}

	// Preserve the stored member order.
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]domain.User, 0, len(rec.Users))
	for _, id := range rec.Users {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}

	chat := &domain.Chat{
		ID:          rec.ID,
		ChatName:    rec.ChatName,
		IsGroupChat: rec.IsGroupChat,
		Users:       ordered,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}

	if rec.GroupAdmin != "" {
		admin, err := s.users.FindByID(ctx, rec.GroupAdmin)
		switch {
		case err == nil:
			chat.GroupAdmin = admin
		case err == domain.ErrNotFound:
			// A deleted admin account leaves the chat without one; anything
			// else must surface, or admin-only checks would misfire.
		default:
			return nil, fmt.Errorf("failed to populate group admin: %w", err)
		}
	}

	if rec.LatestMessage != "" {
		msg, err := QueryOne[messageRecord](ctx, s.db,
			"SELECT "+messageFields+" FROM message WHERE meta::id(id) = $id",
			map[string]any{"id": rec.LatestMessage})
		if err != nil {
			return nil, fmt.Errorf("failed to populate latest message: %w", err)
		}
		if msg != nil {
			sender, err := s.users.FindByID(ctx, msg.Sender)
			if err != nil && err != domain.ErrNotFound {
				return nil, err
			}
			chat.LatestMessage = &domain.Message{
				ID:        msg.ID,
				Sender:    sender,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			}
		}
	}

	return chat, nil
}
