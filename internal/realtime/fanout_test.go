package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/pubsub"
)

func messagePayload(t *testing.T, senderID string, memberIDs ...string) []byte {
	t.Helper()
	users := make([]map[string]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		users = append(users, map[string]string{"_id": id})
	}
	data, err := json.Marshal(map[string]any{
		"_id":     "message:1",
		"content": "hello",
		"sender":  map[string]string{"_id": senderID},
		"chat": map[string]any{
			"_id":   "chat:42",
			"users": users,
		},
	})
	require.NoError(t, err)
	return data
}

func TestFanoutDeliversToAllMembersButSender(t *testing.T) {
	hub := startHub(t)
	fanout := NewFanout(nil, hub, testLogger())

	sender, alice, bob := newTestClient(), newTestClient(), newTestClient()
	hub.Register(sender)
	hub.Register(alice)
	hub.Register(bob)
	hub.Join(sender, "user:s")
	hub.Join(alice, "user:a")
	hub.Join(bob, "user:b")

	payload := messagePayload(t, "user:s", "user:s", "user:a", "user:b")
	err := fanout.handleNewMessage(context.Background(), pubsub.Message{
		Topic:   TopicMessageNew,
		UserID:  "user:s",
		Payload: payload,
	})
	require.NoError(t, err)

	for _, recipient := range []*Client{alice, bob} {
		var env Envelope
		require.NoError(t, json.Unmarshal(recvFrame(t, recipient), &env))
		assert.Equal(t, EventMessageReceived, env.Event)
		assert.JSONEq(t, string(payload), string(env.Payload))
	}
	assertNoFrame(t, sender)
}

func TestFanoutDeliversToEveryConnectionOfARecipient(t *testing.T) {
	hub := startHub(t)
	fanout := NewFanout(nil, hub, testLogger())

	tab1, tab2 := newTestClient(), newTestClient()
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Join(tab1, "user:a")
	hub.Join(tab2, "user:a")

	payload := messagePayload(t, "user:s", "user:s", "user:a")
	require.NoError(t, fanout.handleNewMessage(context.Background(), pubsub.Message{
		Topic:   TopicMessageNew,
		Payload: payload,
	}))

	// Both of the user's connections receive exactly one copy.
	for _, tab := range []*Client{tab1, tab2} {
		var env Envelope
		require.NoError(t, json.Unmarshal(recvFrame(t, tab), &env))
		assert.Equal(t, EventMessageReceived, env.Event)
		assertNoFrame(t, tab)
	}
}

func TestFanoutSkipsMessageWithoutMembers(t *testing.T) {
	hub := startHub(t)
	fanout := NewFanout(nil, hub, testLogger())

	c := newTestClient()
	hub.Register(c)
	hub.Join(c, "user:a")

	payload, err := json.Marshal(map[string]any{
		"content": "orphan",
		"sender":  map[string]string{"_id": "user:s"},
		"chat":    map[string]any{"_id": "chat:42"},
	})
	require.NoError(t, err)

	// Unroutable messages are acked, not retried.
	require.NoError(t, fanout.handleNewMessage(context.Background(), pubsub.Message{
		Topic:   TopicMessageNew,
		Payload: payload,
	}))
	assertNoFrame(t, c)
}

func TestFanoutOfflineRecipientIsSkippedSilently(t *testing.T) {
	hub := startHub(t)
	fanout := NewFanout(nil, hub, testLogger())

	alice := newTestClient()
	hub.Register(alice)
	hub.Join(alice, "user:a")

	// user:b has no live connection; delivery to them is simply dropped.
	payload := messagePayload(t, "user:s", "user:s", "user:a", "user:b")
	require.NoError(t, fanout.handleNewMessage(context.Background(), pubsub.Message{
		Topic:   TopicMessageNew,
		Payload: payload,
	}))

	var env Envelope
	require.NoError(t, json.Unmarshal(recvFrame(t, alice), &env))
	assert.Equal(t, EventMessageReceived, env.Event)
}
