package presence

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/realtime"
)

type capturePublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (p *capturePublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) lastUpdate(t *testing.T) []string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.messages)

	var update struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(p.messages[len(p.messages)-1].Payload, &update))
	return update.Users
}

func newTestService(t *testing.T, opts ...Option) (*Service, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithOfflineDebounce(0)}, opts...)
	return NewService(pub, logger, opts...), pub
}

func ready(userID, connID string) pubsub.Message {
	payload, _ := json.Marshal(map[string]string{"userId": userID, "connectionId": connID})
	return pubsub.Message{Topic: realtime.TopicClientReady, Payload: payload}
}

func disconnected(userID, connID string) pubsub.Message {
	payload, _ := json.Marshal(map[string]string{"userId": userID, "connectionId": connID})
	return pubsub.Message{Topic: realtime.TopicClientDisconnected, Payload: payload}
}

func TestServiceTracksOnlineUsers(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.handleClientReady(ctx, ready("user:a", "c1")))
	require.NoError(t, svc.handleClientReady(ctx, ready("user:b", "c2")))

	assert.True(t, svc.IsOnline("user:a"))
	assert.True(t, svc.IsOnline("user:b"))
	assert.False(t, svc.IsOnline("user:c"))
	assert.Equal(t, []string{"user:a", "user:b"}, svc.OnlineUsers())
	assert.Equal(t, []string{"user:a", "user:b"}, pub.lastUpdate(t))
}

func TestServiceUserStaysOnlineWithRemainingConnections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.handleClientReady(ctx, ready("user:a", "tab1")))
	require.NoError(t, svc.handleClientReady(ctx, ready("user:a", "tab2")))

	require.NoError(t, svc.handleClientDisconnected(ctx, disconnected("user:a", "tab1")))
	assert.True(t, svc.IsOnline("user:a"))

	require.NoError(t, svc.handleClientDisconnected(ctx, disconnected("user:a", "tab2")))
	assert.False(t, svc.IsOnline("user:a"))
	assert.Empty(t, svc.OnlineUsers())
}

func TestServiceOfflineDebounceSurvivesReload(t *testing.T) {
	svc, _ := newTestService(t, WithOfflineDebounce(200*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, svc.handleClientReady(ctx, ready("user:a", "c1")))
	require.NoError(t, svc.handleClientDisconnected(ctx, disconnected("user:a", "c1")))

	// Still online during the debounce window.
	assert.True(t, svc.IsOnline("user:a"))

	// Reconnect before the window closes, like a page reload does.
	require.NoError(t, svc.handleClientReady(ctx, ready("user:a", "c2")))

	time.Sleep(400 * time.Millisecond)
	assert.True(t, svc.IsOnline("user:a"))
}

func TestServiceOfflineAfterDebounceExpires(t *testing.T) {
	svc, _ := newTestService(t, WithOfflineDebounce(50*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, svc.handleClientReady(ctx, ready("user:a", "c1")))
	require.NoError(t, svc.handleClientDisconnected(ctx, disconnected("user:a", "c1")))

	require.Eventually(t, func() bool {
		return !svc.IsOnline("user:a")
	}, time.Second, 10*time.Millisecond)
}

func TestServiceIgnoresUnknownDisconnect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.handleClientDisconnected(ctx, disconnected("user:ghost", "c1")))
	assert.Empty(t, svc.OnlineUsers())
}
