package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/realtime"
)

// TopicPresenceUpdate carries the full online user list after every change.
const TopicPresenceUpdate = "presence.updated"

// OfflineDebounceDelay is how long a user keeps their online status after
// their last connection closes. Page reloads reconnect well within this
// window, so they never flicker offline.
const OfflineDebounceDelay = 5 * time.Second

// Service tracks which users have at least one live connection. It consumes
// the connection lifecycle events the real-time layer publishes, so it never
// touches the hub directly.
type Service struct {
	mu          sync.RWMutex
	connections map[string]map[string]bool // userID -> connectionID set
	users       map[string]string          // connectionID -> userID

	debounceMu      sync.Mutex
	offlineDebounce map[string]*time.Timer
	debounceDelay   time.Duration

	publisher pubsub.Publisher
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithOfflineDebounce overrides the offline debounce delay. Zero disables
// debouncing, which makes tests deterministic.
func WithOfflineDebounce(d time.Duration) Option {
	return func(s *Service) {
		s.debounceDelay = d
	}
}

func NewService(publisher pubsub.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		connections:     make(map[string]map[string]bool),
		users:           make(map[string]string),
		offlineDebounce: make(map[string]*time.Timer),
		debounceDelay:   OfflineDebounceDelay,
		publisher:       publisher,
		logger:          logger.With("service", "presence"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start subscribes to connection lifecycle events. It returns immediately.
func (s *Service) Start(ctx context.Context, subscriber pubsub.Subscriber) error {
	if err := subscriber.Subscribe(ctx, realtime.TopicClientReady, s.handleClientReady); err != nil {
		return err
	}
	return subscriber.Subscribe(ctx, realtime.TopicClientDisconnected, s.handleClientDisconnected)
}

type lifecycleEvent struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

func (s *Service) handleClientReady(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("failed to unmarshal client ready event", "error", err)
		return err
	}

	s.mu.Lock()
	if s.connections[event.UserID] == nil {
		s.connections[event.UserID] = make(map[string]bool)
		s.logger.Info("user came online", "user_id", event.UserID)
	}
	s.connections[event.UserID][event.ConnectionID] = true
	s.users[event.ConnectionID] = event.UserID
	online := s.onlineLocked()
	s.mu.Unlock()

	s.cancelOfflineDebounce(event.UserID)
	s.publishUpdate(online)
	return nil
}

func (s *Service) handleClientDisconnected(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("failed to unmarshal client disconnected event", "error", err)
		return err
	}

	s.mu.Lock()
	conns, ok := s.connections[event.UserID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(conns, event.ConnectionID)
	delete(s.users, event.ConnectionID)
	lastConnection := len(conns) == 0
	s.mu.Unlock()

	if !lastConnection {
		return nil
	}

	if s.debounceDelay == 0 {
		s.markOffline(event.UserID)
		return nil
	}

	s.debounceMu.Lock()
	if timer, exists := s.offlineDebounce[event.UserID]; exists {
		timer.Stop()
	}
	s.offlineDebounce[event.UserID] = time.AfterFunc(s.debounceDelay, func() {
		s.markOffline(event.UserID)
	})
	s.debounceMu.Unlock()
	return nil
}

// markOffline removes the user if they did not reconnect in the meantime.
func (s *Service) markOffline(userID string) {
	s.cancelOfflineDebounce(userID)

	s.mu.Lock()
	conns, ok := s.connections[userID]
	if ok && len(conns) > 0 {
		// Reconnected during the debounce window.
		s.mu.Unlock()
		return
	}
	delete(s.connections, userID)
	online := s.onlineLocked()
	s.mu.Unlock()

	s.logger.Info("user went offline", "user_id", userID)
	s.publishUpdate(online)
}

func (s *Service) cancelOfflineDebounce(userID string) {
	s.debounceMu.Lock()
	if timer, exists := s.offlineDebounce[userID]; exists {
		timer.Stop()
		delete(s.offlineDebounce, userID)
	}
	s.debounceMu.Unlock()
}

// IsOnline reports whether a user has at least one live connection or is
// inside the offline debounce window.
func (s *Service) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.connections[userID]
	return ok
}

// OnlineUsers returns the ids of all currently online users, sorted.
func (s *Service) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onlineLocked()
}

func (s *Service) onlineLocked() []string {
	// A user with an entry is online; an empty connection set only means
	// their offline debounce has not fired yet.
	users := make([]string, 0, len(s.connections))
	for userID := range s.connections {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (s *Service) publishUpdate(online []string) {
	payload, err := json.Marshal(map[string]any{"users": online})
	if err != nil {
		s.logger.Error("failed to marshal presence update", "error", err)
		return
	}
	msg := pubsub.Message{
		Topic:   TopicPresenceUpdate,
		Payload: payload,
	}
	if err := s.publisher.Publish(context.Background(), msg); err != nil {
		s.logger.Error("failed to publish presence update", "error", err)
	}
}
