package domain

// Direction represents the side of a trade signal (BUY or SELL).
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// TradeState represents the tracker state of a trade.
type TradeState string

const (
	// StateOpenNormal is an open trade with no breakeven protection armed.
	StateOpenNormal TradeState = "open"
	// StateOpenBreakevenArmed is an open trade after TP2; a return to the
	// entry price closes it at breakeven.
	StateOpenBreakevenArmed TradeState = "open_breakeven_armed"
	// StateClosed is terminal; closed trades are never re-evaluated.
	StateClosed TradeState = "closed"
)

// CloseReason indicates why a trade was closed.
type CloseReason string

const (
	CloseReasonStopLoss    CloseReason = "SL_HIT"
	CloseReasonTakeProfit3 CloseReason = "TP3_HIT"
	CloseReasonBreakeven   CloseReason = "BREAKEVEN_AFTER_TP2"
	CloseReasonOriginGone  CloseReason = "MESSAGE_DELETED"
	CloseReasonManual      CloseReason = "MANUAL"
	CloseReasonCorrupted   CloseReason = "CORRUPTED"
)

// TPLevel identifies one of the three take-profit levels.
type TPLevel string

const (
	TP1 TPLevel = "tp1"
	TP2 TPLevel = "tp2"
	TP3 TPLevel = "tp3"
)

// Status strings mirrored to the persistence collaborator. Kept verbatim
// across restarts so recovered trades resume with the same descriptor.
const (
	StatusActive          = "active"
	StatusTP1Hit          = "active (tp1 hit)"
	StatusTP2Breakeven    = "active (tp2 hit - breakeven active)"
	StatusCompletedTP3    = "completed (tp3 hit)"
	StatusClosedSL        = "closed (sl hit)"
	StatusClosedBreakeven = "closed (breakeven after tp2)"
)
