package realtime

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient() *Client {
	return &Client{
		ID:     uuid.NewString(),
		sendCh: make(chan []byte, sendBufferSize),
		logger: testLogger(),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// recvFrame waits for the next frame queued on a client's send channel.
func recvFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data, ok := <-c.sendCh:
		require.True(t, ok, "send channel was closed")
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

// assertNoFrame verifies a client receives nothing within a short window.
func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.sendCh:
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubBroadcastReachesRoomMembers(t *testing.T) {
	hub := startHub(t)

	a, b, outsider := newTestClient(), newTestClient(), newTestClient()
	hub.Register(a)
	hub.Register(b)
	hub.Register(outsider)
	hub.Join(a, "chat1")
	hub.Join(b, "chat1")

	hub.Broadcast("chat1", []byte("hello"), nil)

	assert.Equal(t, []byte("hello"), recvFrame(t, a))
	assert.Equal(t, []byte("hello"), recvFrame(t, b))
	assertNoFrame(t, outsider)
}

func TestHubBroadcastExcludesSender(t *testing.T) {
	hub := startHub(t)

	sender, other := newTestClient(), newTestClient()
	hub.Register(sender)
	hub.Register(other)
	hub.Join(sender, "chat1")
	hub.Join(other, "chat1")

	hub.Broadcast("chat1", []byte("typing"), sender)

	assert.Equal(t, []byte("typing"), recvFrame(t, other))
	assertNoFrame(t, sender)
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := startHub(t)

	c := newTestClient()
	hub.Register(c)
	hub.Join(c, "chat1")
	hub.Join(c, "chat1")

	hub.Broadcast("chat1", []byte("once"), nil)

	assert.Equal(t, []byte("once"), recvFrame(t, c))
	assertNoFrame(t, c)
}

func TestHubBroadcastToUnknownRoomIsNoOp(t *testing.T) {
	hub := startHub(t)

	c := newTestClient()
	hub.Register(c)
	hub.Join(c, "chat1")

	hub.Broadcast("nonexistent", []byte("lost"), nil)

	assertNoFrame(t, c)
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := startHub(t)

	a, b := newTestClient(), newTestClient()
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, "chat1")
	hub.Join(b, "chat1")

	hub.Leave(a, "chat1")
	hub.Broadcast("chat1", []byte("after leave"), nil)

	assert.Equal(t, []byte("after leave"), recvFrame(t, b))
	assertNoFrame(t, a)
}

func TestHubSlowConsumerLosesFramesNotConnection(t *testing.T) {
	hub := startHub(t)

	slow, witness := newTestClient(), newTestClient()
	hub.Register(slow)
	hub.Register(witness)
	hub.Join(slow, "chat1")
	hub.Join(witness, "chat1")

	for i := 0; i < sendBufferSize; i++ {
		slow.enqueue([]byte("backlog"))
	}

	hub.Broadcast("chat1", []byte("overflow"), nil)
	assert.Equal(t, []byte("overflow"), recvFrame(t, witness))

	// The overflow frame was dropped, not queued behind the backlog.
	for i := 0; i < sendBufferSize; i++ {
		assert.Equal(t, []byte("backlog"), recvFrame(t, slow))
	}
	assertNoFrame(t, slow)

	// The connection survives: still registered, still a room member.
	hub.Broadcast("chat1", []byte("caught up"), nil)
	assert.Equal(t, []byte("caught up"), recvFrame(t, slow))

	// And a direct enqueue still has an open channel to land on.
	slow.enqueue([]byte("direct"))
	assert.Equal(t, []byte("direct"), recvFrame(t, slow))
}

func TestHubUnregisterRemovesAllMemberships(t *testing.T) {
	hub := startHub(t)

	c, witness := newTestClient(), newTestClient()
	hub.Register(c)
	hub.Register(witness)
	hub.Join(c, "user1")
	hub.Join(c, "chat1")
	hub.Join(witness, "chat1")

	hub.Unregister(c)

	// The send channel is closed once the unregister is processed.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.sendCh:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("chat1", []byte("still flowing"), nil)
	assert.Equal(t, []byte("still flowing"), recvFrame(t, witness))

	// Duplicate unregister must not panic on a closed channel, and the
	// departed client's personal room is gone.
	hub.Unregister(c)
	hub.Broadcast("user1", []byte("gone"), nil)
	hub.Broadcast("chat1", []byte("still alive"), nil)
	assert.Equal(t, []byte("still alive"), recvFrame(t, witness))
}
