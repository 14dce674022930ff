package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event names on the real-time connection.
const (
	EventSetup           = "setup"
	EventConnected       = "connected"
	EventJoinChat        = "join chat"
	EventLeaveChat       = "leave chat"
	EventNewMessage      = "new message"
	EventMessageReceived = "message received"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
)

// envelope is the wire frame for every real-time event.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler is called with an event's raw payload.
type Handler func(payload json.RawMessage)

// Socket is a real-time connection to the service. Handlers run on the read
// goroutine, so they must not block.
type Socket struct {
	conn *websocket.Conn

	mu       sync.RWMutex
	handlers map[string][]Handler

	// connected receives one token per server acknowledgement, so Setup can
	// be used as a round-trip barrier more than once.
	connected chan struct{}
	once      sync.Once
	done      chan struct{}
}

// Dial opens the real-time connection against the service at baseURL.
func Dial(ctx context.Context, baseURL string) (*Socket, error) {
	wsURL := strings.TrimRight(baseURL, "/")
	wsURL = strings.Replace(wsURL, "http", "ws", 1) + "/ws"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}

	s := &Socket{
		conn:      conn,
		handlers:  make(map[string][]Handler),
		connected: make(chan struct{}, 8),
		done:      make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// On registers a handler for an event. Multiple handlers per event are
// allowed and run in registration order.
func (s *Socket) On(event string, h Handler) {
	s.mu.Lock()
	s.handlers[event] = append(s.handlers[event], h)
	s.mu.Unlock()
}

// Setup binds the connection to a user and waits for the server's
// acknowledgement.
func (s *Socket) Setup(ctx context.Context, userID string) error {
	payload, err := json.Marshal(map[string]string{"_id": userID})
	if err != nil {
		return err
	}
	if err := s.EmitRaw(EventSetup, payload); err != nil {
		return err
	}

	select {
	case <-s.connected:
		return nil
	case <-s.done:
		return fmt.Errorf("connection closed during setup")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JoinChat subscribes this connection to a chat room's typing indicators.
func (s *Socket) JoinChat(chatID string) error {
	return s.Emit(EventJoinChat, chatID)
}

// LeaveChat unsubscribes this connection from a chat room.
func (s *Socket) LeaveChat(chatID string) error {
	return s.Emit(EventLeaveChat, chatID)
}

// Emit sends an event with a JSON-encoded payload.
func (s *Socket) Emit(event string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", event, err)
		}
		raw = data
	}
	return s.EmitRaw(event, raw)
}

// EmitRaw sends an event with an already-encoded payload.
func (s *Socket) EmitRaw(event string, payload json.RawMessage) error {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}

// Close shuts the connection down.
func (s *Socket) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.conn.Close(websocket.StatusNormalClosure, "client closed")
}

// Done is closed once the connection is gone.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) readLoop() {
	defer s.once.Do(func() { close(s.done) })

	for {
		_, data, err := s.conn.Read(context.Background())
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		if env.Event == EventConnected {
			select {
			case s.connected <- struct{}{}:
			default:
			}
		}

		s.mu.RLock()
		handlers := append([]Handler(nil), s.handlers[env.Event]...)
		s.mu.RUnlock()
		for _, h := range handlers {
			h(env.Payload)
		}
	}
}
