package ports

import "context"

// Notifier defines the side-effect channel for trade state transitions.
// The core calls it on every transition except silent closes (origin
// message deleted).
type Notifier interface {
	// Notify posts text in reply to the originating signal message.
	Notify(ctx context.Context, channelRef, originMessageRef, text string) error
}

// MessageChecker verifies that the originating signal message still exists.
// Implementations should fail open: if existence cannot be determined, report
// true so a transient platform error never silently drops a tracked trade.
type MessageChecker interface {
	StillExists(ctx context.Context, channelRef, originMessageRef string) bool
}
