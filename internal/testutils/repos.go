// Package testutils provides in-memory repository implementations for
// handler and middleware tests. They honor the same error contracts as the
// SurrealDB-backed stores.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/parley/internal/domain"
)

// InMemoryUserRepo is a map-backed domain.UserRepository.
type InMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User // id -> user (PasswordHash set)
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{users: make(map[string]domain.User)}
}

// Seed inserts a user directly, bypassing duplicate checks.
func (r *InMemoryUserRepo) Seed(user domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = user
	return user
}

func (r *InMemoryUserRepo) Create(ctx context.Context, user *domain.User, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrUserAlreadyExists
		}
	}

	stored := *user
	stored.ID = uuid.NewString()
	stored.PasswordHash = passwordHash
	r.users[stored.ID] = stored

	public := stored
	public.PasswordHash = ""
	return &public, nil
}

func (r *InMemoryUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *InMemoryUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	user.PasswordHash = ""
	return &user, nil
}

func (r *InMemoryUserRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			user.PasswordHash = ""
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *InMemoryUserRepo) Search(ctx context.Context, term, excludeID string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	term = strings.ToLower(term)
	var out []domain.User
	for _, user := range r.users {
		if user.ID == excludeID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(user.Name), term) &&
			!strings.Contains(strings.ToLower(user.Email), term) {
			continue
		}
		user.PasswordHash = ""
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InMemoryChatRepo is a map-backed domain.ChatRepository. It resolves member
// references through the user repo so returned chats are populated.
type InMemoryChatRepo struct {
	mu    sync.RWMutex
	chats map[string]*chatRecord
	users *InMemoryUserRepo
}

type chatRecord struct {
	id            string
	name          string
	isGroup       bool
	userIDs       []string
	adminID       string
	latestMessage *domain.Message
	createdAt     time.Time
	updatedAt     time.Time
}

func NewInMemoryChatRepo(users *InMemoryUserRepo) *InMemoryChatRepo {
	return &InMemoryChatRepo{chats: make(map[string]*chatRecord), users: users}
}

func (r *InMemoryChatRepo) Create(ctx context.Context, name string, isGroup bool, userIDs []string, adminID string) (*domain.Chat, error) {
	r.mu.Lock()
	now := time.Now().UTC()
	rec := &chatRecord{
		id:        uuid.NewString(),
		name:      name,
		isGroup:   isGroup,
		userIDs:   append([]string(nil), userIDs...),
		adminID:   adminID,
		createdAt: now,
		updatedAt: now,
	}
	r.chats[rec.id] = rec
	r.mu.Unlock()
	return r.FindByID(ctx, rec.id)
}

func (r *InMemoryChatRepo) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	r.mu.RLock()
	rec, ok := r.chats[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.populate(ctx, rec)
}

func (r *InMemoryChatRepo) FindDirect(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	r.mu.RLock()
	var found *chatRecord
	for _, rec := range r.chats {
		if rec.isGroup || len(rec.userIDs) != 2 {
			continue
		}
		if contains(rec.userIDs, userA) && contains(rec.userIDs, userB) {
			found = rec
			break
		}
	}
	r.mu.RUnlock()
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return r.populate(ctx, found)
}

func (r *InMemoryChatRepo) ListForUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	r.mu.RLock()
	var records []*chatRecord
	for _, rec := range r.chats {
		if contains(rec.userIDs, userID) {
			records = append(records, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].updatedAt.After(records[j].updatedAt)
	})

	out := make([]domain.Chat, 0, len(records))
	for _, rec := range records {
		chat, err := r.populate(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *chat)
	}
	return out, nil
}

func (r *InMemoryChatRepo) Rename(ctx context.Context, chatID, name string) (*domain.Chat, error) {
	r.mu.Lock()
	rec, ok := r.chats[chatID]
	if ok {
		rec.name = name
		rec.updatedAt = time.Now().UTC()
	}
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, chatID)
}

func (r *InMemoryChatRepo) AddUser(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	r.mu.Lock()
	rec, ok := r.chats[chatID]
	if ok {
		if !contains(rec.userIDs, userID) {
			rec.userIDs = append(rec.userIDs, userID)
		}
		rec.updatedAt = time.Now().UTC()
	}
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, chatID)
}

func (r *InMemoryChatRepo) RemoveUser(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	r.mu.Lock()
	rec, ok := r.chats[chatID]
	if ok {
		filtered := rec.userIDs[:0]
		for _, id := range rec.userIDs {
			if id != userID {
				filtered = append(filtered, id)
			}
		}
		rec.userIDs = filtered
		rec.updatedAt = time.Now().UTC()
	}
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, chatID)
}

func (r *InMemoryChatRepo) Delete(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chatID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.chats, chatID)
	return nil
}

func (r *InMemoryChatRepo) SetLatestMessage(ctx context.Context, chatID, messageID string) error {
	// The in-memory message repo links the full message in; here we only bump
	// the activity timestamp.
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.updatedAt = time.Now().UTC()
	return nil
}

// LinkLatestMessage sets the populated latest message on a chat, the way the
// real store resolves it on read.
func (r *InMemoryChatRepo) LinkLatestMessage(chatID string, msg *domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.chats[chatID]; ok {
		rec.latestMessage = msg
		rec.updatedAt = time.Now().UTC()
	}
}

func (r *InMemoryChatRepo) populate(ctx context.Context, rec *chatRecord) (*domain.Chat, error) {
	users, err := r.users.FindByIDs(ctx, rec.userIDs)
	if err != nil {
		return nil, fmt.Errorf("populating chat members: %w", err)
	}

	chat := &domain.Chat{
		ID:            rec.id,
		ChatName:      rec.name,
		IsGroupChat:   rec.isGroup,
		Users:         users,
		LatestMessage: rec.latestMessage,
		CreatedAt:     rec.createdAt,
		UpdatedAt:     rec.updatedAt,
	}
	if rec.adminID != "" {
		admin, err := r.users.FindByID(ctx, rec.adminID)
		if err == nil {
			chat.GroupAdmin = admin
		}
	}
	return chat, nil
}

// InMemoryMessageRepo is a map-backed domain.MessageRepository.
type InMemoryMessageRepo struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message // chatID -> messages, oldest first
	users    *InMemoryUserRepo
}

func NewInMemoryMessageRepo(users *InMemoryUserRepo) *InMemoryMessageRepo {
	return &InMemoryMessageRepo{messages: make(map[string][]domain.Message), users: users}
}

func (r *InMemoryMessageRepo) Create(ctx context.Context, chatID, senderID, content string) (*domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    &domain.User{ID: senderID},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.messages[chatID] = append(r.messages[chatID], msg)
	r.mu.Unlock()
	return &msg, nil
}

func (r *InMemoryMessageRepo) ListByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	r.mu.RLock()
	stored := append([]domain.Message(nil), r.messages[chatID]...)
	r.mu.RUnlock()

	for i := range stored {
		if stored[i].Sender == nil {
			continue
		}
		sender, err := r.users.FindByID(ctx, stored[i].Sender.ID)
		if err == nil {
			stored[i].Sender = sender
		}
	}
	return stored, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
