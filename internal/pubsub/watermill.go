package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillBus implements Publisher and Subscriber using watermill's
// in-memory GoChannel. One process, no persistence. Delivery is best-effort
// and at-most-once, which is all the real-time layer promises.
type WatermillBus struct {
	pub    message.Publisher
	sub    message.Subscriber
	logger watermill.LoggerAdapter
}

const (
	// Metadata keys used to transfer Message fields through watermill.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// NewWatermillBus initializes the in-process Pub/Sub system.
func NewWatermillBus() *WatermillBus {
	logger := watermill.NewStdLogger(false, false)
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{},
		logger,
	)

	return &WatermillBus{
		pub:    goChannel,
		sub:    goChannel,
		logger: logger,
	}
}

// toWatermill converts a pubsub.Message to a watermill message.
func toWatermill(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)

	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}

	return wmMsg
}

// fromWatermill converts a watermill message back to a pubsub.Message.
func fromWatermill(wmMsg *message.Message) Message {
	userID := wmMsg.Metadata.Get(metaKeyUserID)
	topic := wmMsg.Metadata.Get(metaKeyTopic)

	metadata := make(map[string]string)
	for k, v := range wmMsg.Metadata {
		if k != metaKeyUserID && k != metaKeyTopic {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    topic,
		UserID:   userID,
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (b *WatermillBus) Publish(ctx context.Context, msg Message) error {
	return b.pub.Publish(msg.Topic, toWatermill(msg))
}

// Subscribe implements the Subscriber interface. The handler runs on a
// dedicated goroutine; Subscribe itself returns once the subscription is
// active.
func (b *WatermillBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := fromWatermill(wmMsg)

			if err := handler(ctx, msg); err != nil {
				// Ack anyway: gochannel redelivers nacked messages
				// immediately, and a handler that keeps failing would spin.
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts down the bus and terminates all subscriptions.
func (b *WatermillBus) Close() error {
	return b.sub.Close()
}
