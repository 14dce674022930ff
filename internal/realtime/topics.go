package realtime

// Bus topics owned by the real-time layer.
const (
	// TopicMessageNew carries the canonical message document from the event
	// router to the fan-out subscriber.
	TopicMessageNew = "chat.messages.new"

	// TopicClientReady is published when a connection completes setup and is
	// addressable by user id.
	TopicClientReady = "realtime.client.ready"

	// TopicClientDisconnected is published when a connection goes away.
	TopicClientDisconnected = "realtime.client.disconnected"
)
