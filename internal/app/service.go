// Package app wires the signal pipeline: feed messages in, parsed signals
// cross-verified against the market, trades registered with the tracker and
// mirrored to storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"signalTracker/config"
	"signalTracker/internal/domain"
	signalparse "signalTracker/internal/signal"
	"signalTracker/internal/ports"
	"signalTracker/internal/tracker"
)

// rateLimitWarnCooldown spaces quota warnings per source so a hammered
// provider does not flood the ops channel.
const rateLimitWarnCooldown = time.Hour

// Status is the health snapshot exposed to operators.
type Status struct {
	Enabled bool
	// ConfiguredSources counts price sources holding a credential; zero
	// means every provider would decline and trades cannot be verified.
	ConfiguredSources int
	ActiveTrades      int
}

// Service orchestrates the signal tracker.
type Service struct {
	cfg      *config.Config
	logger   ports.Logger
	parser   *signalparse.Parser
	calc     *signalparse.Calculator
	feed     tracker.PriceFeed
	tracker  *tracker.Tracker
	repo     ports.TradeRepository
	notifier ports.Notifier
	messages ports.MessageFeed

	sourceCount int

	warnedMu sync.Mutex
	warned   map[string]time.Time
}

// NewService creates the application service. The notifier may be a disabled
// adapter; everything else is required.
func NewService(
	cfg *config.Config,
	logger ports.Logger,
	parser *signalparse.Parser,
	calc *signalparse.Calculator,
	feed tracker.PriceFeed,
	trk *tracker.Tracker,
	repo ports.TradeRepository,
	notifier ports.Notifier,
	messages ports.MessageFeed,
	sourceCount int,
) (*Service, error) {
	if cfg == nil || logger == nil || parser == nil || calc == nil || feed == nil || trk == nil || repo == nil || messages == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		parser:      parser,
		calc:        calc,
		feed:        feed,
		tracker:     trk,
		repo:        repo,
		notifier:    notifier,
		messages:    messages,
		sourceCount: sourceCount,
		warned:      make(map[string]time.Time),
	}, nil
}

// Status reports the current health snapshot.
func (s *Service) Status() Status {
	return Status{
		Enabled:           s.cfg.Enabled,
		ConfiguredSources: s.sourceCount,
		ActiveTrades:      s.tracker.ActiveCount(),
	}
}

// Start runs the service until the context is cancelled or a shutdown signal
// arrives. It restores mirrored trades, runs the catch-up pass, then consumes
// the message feed while the tracker polls in the background. In-flight
// provider calls are abandoned on shutdown.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting signal tracker service")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	go s.tracker.Run(ctx)

	if err := s.restoreMirroredTrades(ctx); err != nil {
		// Non-fatal: the mirror is an aid, not the authority.
		s.logger.Warn(ctx, "Failed to restore mirrored trades", map[string]interface{}{"error": err.Error()})
	}
	if err := s.tracker.CatchUp(ctx); err != nil {
		return fmt.Errorf("restart catch-up pass failed: %w", err)
	}

	if feed, ok := s.messages.(ports.BacklogFeed); ok {
		backlog, err := feed.Backlog(ctx)
		if err != nil {
			// Partial backlogs are still worth scanning.
			s.logger.Warn(ctx, "Failed to drain message backlog", map[string]interface{}{"error": err.Error()})
		}
		s.RecoverSignals(ctx, backlog)
	}

	msgs, err := s.messages.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start message feed: %w", err)
	}
	s.logger.Info(ctx, "Message feed started", map[string]interface{}{
		"sources": s.sourceCount, "marker": s.parser.Marker(), "profile": s.calc.Profile().Name,
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Service stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				s.logger.Info(ctx, "Message feed closed")
				return nil
			}
			s.HandleMessage(ctx, msg)
		}
	}
}

// restoreMirroredTrades reloads open trades from the persistence mirror and
// re-registers them for tracking.
func (s *Service) restoreMirroredTrades(ctx context.Context) error {
	open, err := s.repo.FindAllOpen(ctx)
	if err != nil {
		return err
	}
	for _, trade := range open {
		trade.Recovered = true
		if err := s.tracker.Track(ctx, trade); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "Mirrored trades restored", map[string]interface{}{"count": len(open)})
	return nil
}

// HandleMessage runs one inbound message through the filter and, if it is a
// signal, opens a trade.
func (s *Service) HandleMessage(ctx context.Context, msg ports.InboundMessage) {
	if !s.accept(msg) {
		return
	}
	s.openTrade(ctx, msg, false)
}

// RecoverSignals scans a backlog of messages for signals that were posted
// while the tracker was down and registers them. Recovered trades seed their
// live levels from the current price, which stands in for the price at signal
// time; they are marked approximate.
func (s *Service) RecoverSignals(ctx context.Context, backlog []ports.InboundMessage) int {
	recovered := 0
	for _, msg := range backlog {
		if !s.accept(msg) {
			continue
		}
		if s.openTrade(ctx, msg, true) {
			recovered++
		}
	}
	if recovered > 0 {
		s.logger.Info(ctx, "Missed signals recovered", map[string]interface{}{"count": recovered})
	}
	return recovered
}

// accept applies the channel, author and marker filters.
func (s *Service) accept(msg ports.InboundMessage) bool {
	if !s.cfg.Enabled {
		return false
	}
	if s.cfg.ExcludedChannelID != "" && msg.ChannelRef == s.cfg.ExcludedChannelID {
		return false
	}
	if s.cfg.AllowedAuthorID != "" && msg.AuthorRef != s.cfg.AllowedAuthorID {
		return false
	}
	return s.parser.Looks(msg.Text)
}

// openTrade parses the message, verifies the market price and registers the
// trade. Returns whether a trade was created.
func (s *Service) openTrade(ctx context.Context, msg ports.InboundMessage, recovered bool) bool {
	seed, err := s.parser.Parse(msg.Text)
	if err != nil {
		if errors.Is(err, ports.ErrNoMatch) {
			s.logger.Debug(ctx, "Message matched marker but not the signal format", map[string]interface{}{"messageID": msg.MessageRef, "error": err.Error()})
		} else {
			s.logger.Warn(ctx, "Signal parse failed", map[string]interface{}{"messageID": msg.MessageRef, "error": err.Error()})
		}
		return false
	}

	quote, ok := s.feed.VerifiedPrice(ctx, seed.Instrument, s.rateLimited)
	if !ok {
		// No consensus price means no trade; the signal is dropped, not
		// retried.
		s.logger.Warn(ctx, "No verified price, signal dropped", map[string]interface{}{
			"messageID": msg.MessageRef, "instrument": seed.Instrument,
		})
		return false
	}

	levels := s.calc.Calculate(quote.Price, seed.Instrument, seed.Direction)
	now := time.Now().UTC()
	trade := &domain.Trade{
		ID:            msg.MessageRef,
		Instrument:    seed.Instrument,
		Direction:     seed.Direction,
		Entry:         levels.Entry,
		TP1:           levels.TP1,
		TP2:           levels.TP2,
		TP3:           levels.TP3,
		SL:            levels.SL,
		DisplayEntry:  seed.Entry,
		DisplayTP1:    seed.TP1,
		DisplayTP2:    seed.TP2,
		DisplayTP3:    seed.TP3,
		DisplaySL:     seed.SL,
		LiveEntry:     quote.Price,
		Status:        domain.StatusActive,
		ChannelRef:    msg.ChannelRef,
		Recovered:     recovered,
		Approximate:   recovered,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	// Mirror first so a crash between mirror and tracker loses nothing the
	// catch-up pass cannot rebuild.
	if err := s.repo.UpsertTrade(ctx, trade); err != nil {
		s.logger.Warn(ctx, "Trade mirror upsert failed", map[string]interface{}{"tradeID": trade.ID, "error": err.Error()})
	}
	if err := s.tracker.Track(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to register trade with tracker", map[string]interface{}{"tradeID": trade.ID})
		return false
	}

	s.logger.Info(ctx, "Trade opened", map[string]interface{}{
		"tradeID": trade.ID, "instrument": trade.Instrument, "direction": string(trade.Direction),
		"liveEntry": quote.Price, "sources": len(quote.Sources), "lowConfidence": quote.LowConfidence,
		"recovered": recovered,
	})

	if s.notifier != nil {
		text := fmt.Sprintf("📡 Tracking %s %s from %s (verified by %d source(s))",
			trade.Instrument, trade.Direction,
			signalparse.FormatPrice(quote.Price, trade.Instrument), len(quote.Sources))
		if recovered {
			text += " (recovered signal, levels approximate)"
		}
		if err := s.notifier.Notify(ctx, trade.ChannelRef, trade.ID, text); err != nil {
			s.logger.Warn(ctx, "Failed to deliver tracking confirmation", map[string]interface{}{"tradeID": trade.ID, "error": err.Error()})
		}
	}
	return true
}

// RateLimited is the callback handed to the price selector and tracker. It
// warns the ops channel at most once per source per cooldown window.
func (s *Service) rateLimited(source string) {
	s.warnedMu.Lock()
	last, seen := s.warned[source]
	now := time.Now()
	if seen && now.Sub(last) < rateLimitWarnCooldown {
		s.warnedMu.Unlock()
		return
	}
	s.warned[source] = now
	s.warnedMu.Unlock()

	ctx := context.Background()
	s.logger.Warn(ctx, "Price source rate limited", map[string]interface{}{"source": source})
	if s.notifier != nil && s.cfg.LogChannelID != 0 {
		text := fmt.Sprintf("⚠️ API limit reached for price source %q", source)
		channelRef := strconv.FormatInt(s.cfg.LogChannelID, 10)
		if err := s.notifier.Notify(ctx, channelRef, "0", text); err != nil {
			s.logger.Debug(ctx, "Failed to deliver rate-limit warning", map[string]interface{}{"error": err.Error()})
		}
	}
}

// RateLimitedCallback exposes the throttling callback for tracker wiring.
func (s *Service) RateLimitedCallback() func(source string) { return s.rateLimited }
