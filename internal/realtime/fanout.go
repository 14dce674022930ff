package realtime

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/parley/internal/pubsub"
)

// Fanout listens for new chat messages on the bus and delivers each one to
// the personal room of every chat member except the sender. Delivering to the
// personal room reaches all of a user's connections at once.
type Fanout struct {
	subscriber pubsub.Subscriber
	hub        *Hub
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewFanout(sub pubsub.Subscriber, hub *Hub, logger *slog.Logger) *Fanout {
	return &Fanout{
		subscriber: sub,
		hub:        hub,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Start begins listening for new messages. It returns immediately; the
// subscription runs until the context is cancelled.
func (f *Fanout) Start(ctx context.Context) {
	f.logger.Info("starting message fan-out subscriber")

	go func() {
		err := f.subscriber.Subscribe(ctx, TopicMessageNew, f.handleNewMessage)
		if err != nil && err != context.Canceled {
			f.logger.Error("fan-out subscriber stopped with error", "error", err)
		}
	}()
}

// handleNewMessage routes one message document to its recipients. The payload
// is relayed verbatim; each recipient receives it exactly once per this
// message, and the sender never receives their own message back.
func (f *Fanout) handleNewMessage(ctx context.Context, msg pubsub.Message) error {
	routing, err := decodeMessageRouting(msg.Payload, f.validate)
	if err != nil {
		// Undeliverable, not retryable. Log and move on.
		f.logger.Warn("skipping unroutable message", "error", err)
		return nil
	}

	frame, err := Encode(EventMessageReceived, msg.Payload)
	if err != nil {
		f.logger.Error("encoding message received event", "error", err)
		return nil
	}

	for _, user := range routing.Chat.Users {
		if user.ID == routing.Sender.ID {
			continue
		}
		f.hub.Broadcast(user.ID, frame, nil)
	}
	return nil
}
