package ports

import (
	"context"

	"signalTracker/internal/domain"
)

// TradeRepository defines the interface for the persistence mirror backing
// restart recovery. The in-memory trade set remains authoritative: callers
// treat every failure here as non-fatal and never roll back in-memory state
// on a mirror error.
type TradeRepository interface {
	// UpsertTrade saves a trade record, replacing any existing record with
	// the same ID.
	UpsertTrade(ctx context.Context, trade *domain.Trade) error
	// UpdateTradeStatus updates the mutable tracking fields of a trade.
	UpdateTradeStatus(ctx context.Context, trade *domain.Trade) error
	// DeleteTrade removes a trade record by its originating message ID.
	DeleteTrade(ctx context.Context, id string) error
	// FindAllOpen retrieves every persisted trade, most recent first.
	FindAllOpen(ctx context.Context) ([]*domain.Trade, error)
}
