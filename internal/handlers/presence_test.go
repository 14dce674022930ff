package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/handlers"
	"github.com/nfrund/parley/internal/presence"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/realtime"
)

func TestPresenceEndpointReportsOnlineUsers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := pubsub.NewWatermillBus()
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := presence.NewService(bus, logger, presence.WithOfflineDebounce(0))
	require.NoError(t, svc.Start(ctx, bus))

	for _, event := range []map[string]string{
		{"userId": "user:a", "connectionId": "c1"},
		{"userId": "user:b", "connectionId": "c2"},
	} {
		payload, err := json.Marshal(event)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, pubsub.Message{
			Topic:   realtime.TopicClientReady,
			Payload: payload,
		}))
	}

	require.Eventually(t, func() bool {
		return len(svc.OnlineUsers()) == 2
	}, time.Second, 10*time.Millisecond)

	e := echo.New()
	handler := handlers.NewPresenceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/presence", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Online(e.NewContext(req, rec)))

	resp := decodeBody[handlers.PresenceResponse](t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"user:a", "user:b"}, resp.OnlineUsers)
}
