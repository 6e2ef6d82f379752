package ports

import "context"

// InboundMessage is a chat message as seen by the signal pipeline. Refs are
// opaque strings so the core never depends on a platform's ID types.
type InboundMessage struct {
	MessageRef string
	ChannelRef string
	AuthorRef  string
	Text       string
}

// MessageFeed streams inbound chat messages to the application service.
type MessageFeed interface {
	// Start begins delivering messages. The returned channel closes when the
	// context is cancelled or the feed shuts down.
	Start(ctx context.Context) (<-chan InboundMessage, error)
}

// BacklogFeed is implemented by feeds that can hand over messages queued
// while the consumer was down. The backlog must be drained before Start so
// the same messages are not delivered twice.
type BacklogFeed interface {
	Backlog(ctx context.Context) ([]InboundMessage, error)
}
