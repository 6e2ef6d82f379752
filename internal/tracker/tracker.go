// Package tracker owns the lifecycle of active trades. A single goroutine
// holds the trade map and applies every state transition, so no lock guards
// trade state: all mutation happens inside Run.
package tracker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"signalTracker/internal/domain"
	"signalTracker/internal/pricefeed"
	"signalTracker/internal/ports"
	"signalTracker/internal/signal"
)

const (
	defaultPollInterval     = 225 * time.Second
	defaultFailureThreshold = 3
)

// PriceFeed is the slice of the price selector the tracker consumes.
type PriceFeed interface {
	RoutinePrice(ctx context.Context, symbol string, rateLimited func(source string)) (float64, error)
	VerifiedPrice(ctx context.Context, symbol string, rateLimited func(source string)) (pricefeed.Quote, bool)
}

// Config holds the tracker's collaborators and tuning.
type Config struct {
	Feed     PriceFeed
	Repo     ports.TradeRepository
	Notifier ports.Notifier
	Checker  ports.MessageChecker
	Logger   ports.Logger

	PollInterval     time.Duration
	FailureThreshold int

	// RateLimited is invoked when a price source reports throttling, so the
	// operator surface can warn about exhausted API quotas.
	RateLimited func(source string)
}

type command interface{}

type trackCmd struct {
	trade *domain.Trade
	done  chan struct{}
}

type removeCmd struct {
	id   string
	resp chan bool
}

type catchUpCmd struct {
	done chan struct{}
}

// Tracker is the actor that evaluates every open trade against the market
// on each poll cycle.
type Tracker struct {
	cfg    Config
	trades map[string]*domain.Trade
	// Consecutive poll-cycle failures per trade. Reset on any successful
	// price fetch.
	failures map[string]int
	inbox    chan command

	activeCount atomic.Int64
}

// New creates a tracker. Feed, Repo and Logger are required; Notifier and
// Checker may be no-ops when the chat collaborator is absent.
func New(cfg Config) (*Tracker, error) {
	if cfg.Feed == nil {
		return nil, fmt.Errorf("price feed is required for tracker")
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("trade repository is required for tracker")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for tracker")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	return &Tracker{
		cfg:      cfg,
		trades:   make(map[string]*domain.Trade),
		failures: make(map[string]int),
		inbox:    make(chan command),
	}, nil
}

// ActiveCount reports the number of trades currently tracked. Safe from any
// goroutine.
func (t *Tracker) ActiveCount() int { return int(t.activeCount.Load()) }

// Track registers a trade. The call returns once the actor has accepted it.
func (t *Tracker) Track(ctx context.Context, trade *domain.Trade) error {
	cmd := trackCmd{trade: trade, done: make(chan struct{})}
	select {
	case t.inbox <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Remove drops a trade from tracking and from the mirror. Reports whether
// the trade was being tracked.
func (t *Tracker) Remove(ctx context.Context, id string) (bool, error) {
	cmd := removeCmd{id: id, resp: make(chan bool, 1)}
	select {
	case t.inbox <- cmd:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case removed := <-cmd.resp:
		return removed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// CatchUp runs one evaluation pass over all tracked trades using the
// verification-mode price, with notifications tagged as detected after
// restart. Blocks until the pass completes.
func (t *Tracker) CatchUp(ctx context.Context) error {
	cmd := catchUpCmd{done: make(chan struct{})}
	select {
	case t.inbox <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the actor loop. It processes commands and poll ticks until ctx is
// cancelled. Poll cycles run inside this goroutine; if a cycle outlasts the
// interval the ticker's pending ticks are dropped, never queued.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	t.cfg.Logger.Info(ctx, "Tracker started", map[string]interface{}{"pollInterval": t.cfg.PollInterval.String()})
	for {
		select {
		case <-ctx.Done():
			t.cfg.Logger.Info(ctx, "Tracker stopped", map[string]interface{}{"activeTrades": len(t.trades)})
			return
		case cmd := <-t.inbox:
			t.handle(ctx, cmd)
		case <-ticker.C:
			t.pollCycle(ctx, false)
		}
	}
}

func (t *Tracker) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case trackCmd:
		t.trades[c.trade.ID] = c.trade
		t.failures[c.trade.ID] = 0
		t.activeCount.Store(int64(len(t.trades)))
		t.cfg.Logger.Info(ctx, "Trade registered", map[string]interface{}{
			"tradeID": c.trade.ID, "instrument": c.trade.Instrument,
			"direction": string(c.trade.Direction), "recovered": c.trade.Recovered,
		})
		close(c.done)
	case removeCmd:
		trade, ok := t.trades[c.id]
		if ok {
			trade.CloseReason = domain.CloseReasonManual
			trade.LastUpdatedAt = time.Now().UTC()
			t.drop(ctx, c.id)
			t.cfg.Logger.Info(ctx, "Trade removed from tracking", map[string]interface{}{"tradeID": c.id})
		}
		c.resp <- ok
	case catchUpCmd:
		t.pollCycle(ctx, true)
		close(c.done)
	}
}

// pollCycle evaluates every tracked trade once. In restart mode the price is
// cross-verified and notifications carry the restart tag.
func (t *Tracker) pollCycle(ctx context.Context, restart bool) {
	if len(t.trades) == 0 {
		return
	}
	t.cfg.Logger.Debug(ctx, "Poll cycle started", map[string]interface{}{"trades": len(t.trades), "restart": restart})

	// Iterate over a snapshot of IDs: evaluation closes trades and mutates
	// the map.
	ids := make([]string, 0, len(t.trades))
	for id := range t.trades {
		ids = append(ids, id)
	}
	for _, id := range ids {
		trade, ok := t.trades[id]
		if !ok {
			continue
		}
		t.evaluate(ctx, trade, restart)
		if ctx.Err() != nil {
			return
		}
	}
}

// evaluate applies the transition table to one trade, in fixed priority:
// origin gone, breakeven return, stop loss, then take profits most favorable
// first.
func (t *Tracker) evaluate(ctx context.Context, trade *domain.Trade, restart bool) {
	if t.cfg.Checker != nil && !t.cfg.Checker.StillExists(ctx, trade.ChannelRef, trade.ID) {
		// The originating message is gone; close silently, no notification.
		trade.CloseReason = domain.CloseReasonOriginGone
		trade.LastUpdatedAt = time.Now().UTC()
		t.cfg.Logger.Info(ctx, "Origin message deleted, trade closed silently", map[string]interface{}{"tradeID": trade.ID, "instrument": trade.Instrument})
		t.drop(ctx, trade.ID)
		return
	}

	price, ok := t.fetchPrice(ctx, trade, restart)
	if !ok {
		t.failures[trade.ID]++
		if t.failures[trade.ID] >= t.cfg.FailureThreshold {
			t.cfg.Logger.Error(ctx, ports.ErrPriceUnavailable, "Giving up on trade after consecutive failures", map[string]interface{}{
				"tradeID": trade.ID, "instrument": trade.Instrument, "failures": t.failures[trade.ID],
			})
			trade.CloseReason = domain.CloseReasonCorrupted
			trade.LastUpdatedAt = time.Now().UTC()
			t.drop(ctx, trade.ID)
		}
		return
	}
	t.failures[trade.ID] = 0

	switch trade.State() {
	case domain.StateOpenBreakevenArmed:
		if t.breakevenReturned(trade, price) {
			t.closeTrade(ctx, trade, domain.CloseReasonBreakeven, domain.StatusClosedBreakeven,
				fmt.Sprintf("⚖️ %s closed at breakeven after TP2 (returned to entry %s)",
					trade.Instrument, signal.FormatPrice(trade.DisplayEntry, trade.Instrument)), restart)
			return
		}
		t.evaluateLevels(ctx, trade, price, restart)
	case domain.StateOpenNormal:
		if t.stopLossHit(trade, price) {
			t.closeTrade(ctx, trade, domain.CloseReasonStopLoss, domain.StatusClosedSL,
				fmt.Sprintf("🛑 Stop loss hit on %s at %s",
					trade.Instrument, signal.FormatPrice(trade.DisplaySL, trade.Instrument)), restart)
			return
		}
		t.evaluateLevels(ctx, trade, price, restart)
	}
}

// evaluateLevels checks the take profits, most favorable first, and applies
// the first level that is met and not yet recorded.
func (t *Tracker) evaluateLevels(ctx context.Context, trade *domain.Trade, price float64, restart bool) {
	switch {
	case t.levelReached(trade, price, trade.TP3) && !trade.HasHit(domain.TP3):
		trade.RecordHit(domain.TP3)
		t.closeTrade(ctx, trade, domain.CloseReasonTakeProfit3, domain.StatusCompletedTP3,
			fmt.Sprintf("✅ TP3 hit on %s at %s, trade completed",
				trade.Instrument, signal.FormatPrice(trade.DisplayTP3, trade.Instrument)), restart)
	case t.levelReached(trade, price, trade.TP2) && !trade.HasHit(domain.TP2):
		trade.RecordHit(domain.TP2)
		trade.BreakevenActive = true
		trade.Status = domain.StatusTP2Breakeven
		trade.LastUpdatedAt = time.Now().UTC()
		t.notify(ctx, trade,
			fmt.Sprintf("🎯 TP2 hit on %s at %s, breakeven protection armed",
				trade.Instrument, signal.FormatPrice(trade.DisplayTP2, trade.Instrument)), restart)
		t.mirrorUpdate(ctx, trade)
	case t.levelReached(trade, price, trade.TP1) && !trade.HasHit(domain.TP1):
		trade.RecordHit(domain.TP1)
		trade.Status = domain.StatusTP1Hit
		trade.LastUpdatedAt = time.Now().UTC()
		t.notify(ctx, trade,
			fmt.Sprintf("🎯 TP1 hit on %s at %s",
				trade.Instrument, signal.FormatPrice(trade.DisplayTP1, trade.Instrument)), restart)
		t.mirrorUpdate(ctx, trade)
	}
}

func (t *Tracker) fetchPrice(ctx context.Context, trade *domain.Trade, restart bool) (float64, bool) {
	if restart {
		quote, ok := t.cfg.Feed.VerifiedPrice(ctx, trade.Instrument, t.cfg.RateLimited)
		if !ok {
			return 0, false
		}
		return quote.Price, true
	}
	price, err := t.cfg.Feed.RoutinePrice(ctx, trade.Instrument, t.cfg.RateLimited)
	if err != nil {
		t.cfg.Logger.Warn(ctx, "Price unavailable for cycle", map[string]interface{}{
			"tradeID": trade.ID, "instrument": trade.Instrument, "failures": t.failures[trade.ID] + 1,
		})
		return 0, false
	}
	return price, true
}

// levelReached reports whether price has reached a take-profit level for the
// trade's direction.
func (t *Tracker) levelReached(trade *domain.Trade, price, level float64) bool {
	if trade.Direction == domain.Buy {
		return price >= level
	}
	return price <= level
}

// stopLossHit reports whether price has crossed the stop loss.
func (t *Tracker) stopLossHit(trade *domain.Trade, price float64) bool {
	if trade.Direction == domain.Buy {
		return price <= trade.SL
	}
	return price >= trade.SL
}

// breakevenReturned reports whether an armed trade has come back to entry.
func (t *Tracker) breakevenReturned(trade *domain.Trade, price float64) bool {
	if trade.Direction == domain.Buy {
		return price <= trade.Entry
	}
	return price >= trade.Entry
}

func (t *Tracker) closeTrade(ctx context.Context, trade *domain.Trade, reason domain.CloseReason, status, text string, restart bool) {
	trade.CloseReason = reason
	trade.Status = status
	trade.LastUpdatedAt = time.Now().UTC()
	t.cfg.Logger.Info(ctx, "Trade closed", map[string]interface{}{
		"tradeID": trade.ID, "instrument": trade.Instrument, "reason": string(reason), "status": status,
	})
	t.notify(ctx, trade, text, restart)
	t.drop(ctx, trade.ID)
}

func (t *Tracker) notify(ctx context.Context, trade *domain.Trade, text string, restart bool) {
	if t.cfg.Notifier == nil {
		return
	}
	if restart {
		text += " (detected after restart)"
	}
	if err := t.cfg.Notifier.Notify(ctx, trade.ChannelRef, trade.ID, text); err != nil {
		t.cfg.Logger.Warn(ctx, "Failed to deliver notification", map[string]interface{}{"tradeID": trade.ID, "error": err.Error()})
	}
}

// mirrorUpdate persists a status change. Mirror failures are logged and
// ignored: memory stays authoritative.
func (t *Tracker) mirrorUpdate(ctx context.Context, trade *domain.Trade) {
	if err := t.cfg.Repo.UpdateTradeStatus(ctx, trade); err != nil {
		t.cfg.Logger.Warn(ctx, "Trade mirror update failed", map[string]interface{}{"tradeID": trade.ID, "error": err.Error()})
	}
}

// drop removes a trade from the map and deletes its mirror row. The mirror
// only holds the active set, so every close clears the row, whatever the
// reason.
func (t *Tracker) drop(ctx context.Context, id string) {
	_, ok := t.trades[id]
	delete(t.trades, id)
	delete(t.failures, id)
	t.activeCount.Store(int64(len(t.trades)))
	if !ok {
		return
	}
	if err := t.cfg.Repo.DeleteTrade(ctx, id); err != nil {
		t.cfg.Logger.Warn(ctx, "Trade mirror delete failed", map[string]interface{}{"tradeID": id, "error": err.Error()})
	}
}
