package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/parley/internal/pubsub"
)

// Router dispatches inbound client events. Membership changes go straight to
// the hub, typing indicators are relayed without touching the bus, and new
// messages are published for the fan-out subscriber to deliver.
type Router struct {
	hub       *Hub
	publisher pubsub.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewRouter(hub *Hub, publisher pubsub.Publisher, logger *slog.Logger) *Router {
	return &Router{
		hub:       hub,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
	}
}

// HandleInbound routes a single wire frame. Malformed frames are logged and
// dropped; the connection stays up.
func (r *Router) HandleInbound(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Warn("dropping malformed frame", "client_id", c.ID, "error", err)
		return
	}

	switch env.Event {
	case EventSetup:
		r.handleSetup(c, env.Payload)
	case EventJoinChat:
		r.handleJoinChat(c, env.Payload)
	case EventLeaveChat:
		r.handleLeaveChat(c, env.Payload)
	case EventNewMessage:
		r.handleNewMessage(c, env.Payload)
	case EventTyping, EventStopTyping:
		r.relayTyping(c, env.Event, env.Payload)
	default:
		r.logger.Warn("dropping unknown event", "client_id", c.ID, "event", env.Event)
	}
}

// handleSetup binds the connection to a user, joins the user's personal room
// and acknowledges with a connected event.
func (r *Router) handleSetup(c *Client, payload []byte) {
	var setup SetupPayload
	if err := json.Unmarshal(payload, &setup); err != nil {
		r.logger.Warn("dropping malformed setup", "client_id", c.ID, "error", err)
		return
	}
	if err := r.validate.Struct(&setup); err != nil {
		r.logger.Warn("dropping invalid setup", "client_id", c.ID, "error", err)
		return
	}

	c.userID = setup.ID
	r.hub.Join(c, setup.ID)

	frame, err := Encode(EventConnected, nil)
	if err != nil {
		r.logger.Error("encoding connected reply", "error", err)
		return
	}
	c.enqueue(frame)

	r.publishLifecycle(TopicClientReady, c)
}

func (r *Router) handleJoinChat(c *Client, payload []byte) {
	room, err := decodeRoom(payload)
	if err != nil {
		r.logger.Warn("dropping join chat", "client_id", c.ID, "error", err)
		return
	}
	r.hub.Join(c, room)
	r.logger.Debug("client joined chat room", "client_id", c.ID, "room", room)
}

func (r *Router) handleLeaveChat(c *Client, payload []byte) {
	room, err := decodeRoom(payload)
	if err != nil {
		r.logger.Warn("dropping leave chat", "client_id", c.ID, "error", err)
		return
	}
	r.hub.Leave(c, room)
}

// handleNewMessage validates the routing fields and hands the payload to the
// bus verbatim. Delivery happens in the fan-out subscriber.
func (r *Router) handleNewMessage(c *Client, payload []byte) {
	if _, err := decodeMessageRouting(payload, r.validate); err != nil {
		r.logger.Warn("dropping new message", "client_id", c.ID, "error", err)
		return
	}

	msg := pubsub.Message{
		Topic:   TopicMessageNew,
		UserID:  c.userID,
		Payload: payload,
	}
	if err := r.publisher.Publish(context.Background(), msg); err != nil {
		r.logger.Error("publishing new message", "client_id", c.ID, "error", err)
	}
}

// relayTyping forwards a typing indicator to every other member of the chat
// room. No state is kept and nothing goes through the bus.
func (r *Router) relayTyping(c *Client, event string, payload []byte) {
	room, err := decodeRoom(payload)
	if err != nil {
		r.logger.Warn("dropping typing event", "client_id", c.ID, "event", event, "error", err)
		return
	}

	frame, err := Encode(event, nil)
	if err != nil {
		r.logger.Error("encoding typing event", "error", err)
		return
	}
	r.hub.Broadcast(room, frame, c)
}

// HandleDisconnect is called once when a connection's read loop ends.
func (r *Router) HandleDisconnect(c *Client) {
	if c.userID == "" {
		return
	}
	r.publishLifecycle(TopicClientDisconnected, c)
}

func (r *Router) publishLifecycle(topic string, c *Client) {
	payload, _ := json.Marshal(map[string]string{
		"userId":       c.userID,
		"connectionId": c.ID,
	})
	msg := pubsub.Message{
		Topic:   topic,
		UserID:  c.userID,
		Payload: payload,
	}
	if err := r.publisher.Publish(context.Background(), msg); err != nil {
		r.logger.Error("publishing lifecycle event", "topic", topic, "error", err)
	}
}
