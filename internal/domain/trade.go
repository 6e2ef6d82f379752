package domain

import "time"

// Trade represents a tracked trading signal. The live prices (Entry, TP1..3,
// SL) are seeded from a verified market price at signal time and are the only
// prices the tracker ever evaluates. The Display prices are the literal values
// posted in the originating message and exist for human reference only.
type Trade struct {
	ID         string    // Identifier of the originating message
	Instrument string    // Normalized symbol, e.g. "EURUSD", "XAUUSD"
	Direction  Direction // BUY or SELL

	// Live tracking levels.
	Entry float64
	TP1   float64
	TP2   float64
	TP3   float64
	SL    float64

	// Reference prices as posted in the signal text. Never evaluated.
	DisplayEntry float64
	DisplayTP1   float64
	DisplayTP2   float64
	DisplayTP3   float64
	DisplaySL    float64

	LiveEntry float64 // Market price the live levels were derived from

	TPHits          []TPLevel // Insertion-ordered, append-only while open
	BreakevenActive bool      // True once TP2 has been hit
	Status          string    // Human-facing descriptor, see Status* constants
	CloseReason     CloseReason

	ChannelRef string // Opaque channel reference for notifications
	Recovered  bool   // Registered from a backlog scan after restart
	// Approximate marks a recovered trade whose levels were seeded from the
	// current price rather than the price at signal time.
	Approximate bool

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// State derives the tracker state from the trade's fields.
func (t *Trade) State() TradeState {
	if t.CloseReason != "" {
		return StateClosed
	}
	if t.BreakevenActive {
		return StateOpenBreakevenArmed
	}
	return StateOpenNormal
}

// IsOpen reports whether the trade is still being tracked.
func (t *Trade) IsOpen() bool {
	return t.State() != StateClosed
}

// HasHit reports whether the given take-profit level was already recorded.
// Levels are evaluated at most once; this is the idempotence check.
func (t *Trade) HasHit(level TPLevel) bool {
	for _, hit := range t.TPHits {
		if hit == level {
			return true
		}
	}
	return false
}

// RecordHit appends a take-profit level. Appending an already-recorded level
// is a no-op.
func (t *Trade) RecordHit(level TPLevel) {
	if t.HasHit(level) {
		return
	}
	t.TPHits = append(t.TPHits, level)
}
