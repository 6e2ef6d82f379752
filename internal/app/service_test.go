package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalTracker/config"
	"signalTracker/internal/domain"
	"signalTracker/internal/pricefeed"
	"signalTracker/internal/ports"
	signalparse "signalTracker/internal/signal"
	"signalTracker/internal/tracker"
)

const signalText = `Trade Signal For: EURUSD
Entry Type: Buy
Entry Price: $1.1005
Take Profit 1: $1.1025
Take Profit 2: $1.1045
Take Profit 3: $1.1075
Stop Loss: $1.0955`

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockPriceFeed returns a fixed verified quote, or none.
type mockPriceFeed struct {
	quote pricefeed.Quote
	ok    bool
}

func (m *mockPriceFeed) RoutinePrice(ctx context.Context, symbol string, rateLimited func(string)) (float64, error) {
	if !m.ok {
		return 0, ports.ErrPriceUnavailable
	}
	return m.quote.Price, nil
}

func (m *mockPriceFeed) VerifiedPrice(ctx context.Context, symbol string, rateLimited func(string)) (pricefeed.Quote, bool) {
	return m.quote, m.ok
}

// mockRepo records mirror calls and serves a canned open-trade set.
type mockRepo struct {
	upserts []*domain.Trade
	open    []*domain.Trade
}

func (m *mockRepo) UpsertTrade(ctx context.Context, trade *domain.Trade) error {
	m.upserts = append(m.upserts, trade)
	return nil
}
func (m *mockRepo) UpdateTradeStatus(ctx context.Context, trade *domain.Trade) error { return nil }
func (m *mockRepo) DeleteTrade(ctx context.Context, id string) error                 { return nil }
func (m *mockRepo) FindAllOpen(ctx context.Context) ([]*domain.Trade, error)         { return m.open, nil }

type mockNotifier struct {
	texts []string
}

func (m *mockNotifier) Notify(ctx context.Context, channelRef, originMessageRef, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

// mockMessages delivers nothing; HandleMessage is driven directly in tests.
type mockMessages struct{}

func (m *mockMessages) Start(ctx context.Context) (<-chan ports.InboundMessage, error) {
	ch := make(chan ports.InboundMessage)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type fixture struct {
	service  *Service
	tracker  *tracker.Tracker
	repo     *mockRepo
	notifier *mockNotifier
	cancel   context.CancelFunc
}

func newFixture(t *testing.T, cfg *config.Config, feed *mockPriceFeed) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{Enabled: true, PollInterval: time.Hour, FailureThreshold: 3}
	}

	parser, err := signalparse.NewParser("Trade Signal For:")
	require.NoError(t, err)
	profile, err := signalparse.ProfileByName("standard")
	require.NoError(t, err)

	repo := &mockRepo{}
	notifier := &mockNotifier{}
	trk, err := tracker.New(tracker.Config{
		Feed:         feed,
		Repo:         repo,
		Notifier:     notifier,
		Logger:       &mockLogger{},
		PollInterval: time.Hour,
	})
	require.NoError(t, err)

	svc, err := NewService(cfg, &mockLogger{}, parser, signalparse.NewCalculator(profile),
		feed, trk, repo, notifier, &mockMessages{}, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go trk.Run(ctx)
	t.Cleanup(cancel)

	return &fixture{service: svc, tracker: trk, repo: repo, notifier: notifier, cancel: cancel}
}

func inbound(text string) ports.InboundMessage {
	return ports.InboundMessage{MessageRef: "42", ChannelRef: "chan-1", AuthorRef: "author-1", Text: text}
}

func TestHandleMessageOpensTrade(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1000, Sources: []string{"a", "b"}}, ok: true}
	f := newFixture(t, nil, feed)

	f.service.HandleMessage(context.Background(), inbound(signalText))

	assert.Equal(t, 1, f.tracker.ActiveCount())
	require.Len(t, f.repo.upserts, 1)

	trade := f.repo.upserts[0]
	assert.Equal(t, "42", trade.ID)
	assert.Equal(t, "EURUSD", trade.Instrument)
	assert.Equal(t, domain.Buy, trade.Direction)

	// Live levels come from the verified price, not the posted prices.
	assert.InDelta(t, 1.1000, trade.Entry, 1e-9)
	assert.InDelta(t, 1.1020, trade.TP1, 1e-9)
	assert.InDelta(t, 1.1040, trade.TP2, 1e-9)
	assert.InDelta(t, 1.1070, trade.TP3, 1e-9)
	assert.InDelta(t, 1.0950, trade.SL, 1e-9)

	// Display prices keep the text values.
	assert.InDelta(t, 1.1005, trade.DisplayEntry, 1e-9)
	assert.InDelta(t, 1.0955, trade.DisplaySL, 1e-9)

	assert.False(t, trade.Recovered)
	require.Len(t, f.notifier.texts, 1)
	assert.Contains(t, f.notifier.texts[0], "Tracking EURUSD BUY")
}

func TestNoConsensusMeansNoTrade(t *testing.T) {
	feed := &mockPriceFeed{ok: false}
	f := newFixture(t, nil, feed)

	f.service.HandleMessage(context.Background(), inbound(signalText))

	assert.Equal(t, 0, f.tracker.ActiveCount())
	assert.Empty(t, f.repo.upserts)
	assert.Empty(t, f.notifier.texts)
}

func TestFiltersRejectNonSignals(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1}, ok: true}
	cfg := &config.Config{
		Enabled:           true,
		ExcludedChannelID: "excluded",
		AllowedAuthorID:   "author-1",
	}
	f := newFixture(t, cfg, feed)
	ctx := context.Background()

	noMarker := inbound("just chatting about EURUSD")
	f.service.HandleMessage(ctx, noMarker)

	wrongAuthor := inbound(signalText)
	wrongAuthor.AuthorRef = "someone-else"
	f.service.HandleMessage(ctx, wrongAuthor)

	excluded := inbound(signalText)
	excluded.ChannelRef = "excluded"
	f.service.HandleMessage(ctx, excluded)

	assert.Equal(t, 0, f.tracker.ActiveCount())
}

func TestDisabledServiceIgnoresSignals(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1}, ok: true}
	f := newFixture(t, &config.Config{Enabled: false}, feed)

	f.service.HandleMessage(context.Background(), inbound(signalText))
	assert.Equal(t, 0, f.tracker.ActiveCount())
}

func TestIncompleteSignalIsDropped(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1}, ok: true}
	f := newFixture(t, nil, feed)

	partial := inbound("Trade Signal For: EURUSD\nEntry Type: Buy\nEntry Price: $1.1005")
	f.service.HandleMessage(context.Background(), partial)

	assert.Equal(t, 0, f.tracker.ActiveCount())
	assert.Empty(t, f.repo.upserts)
}

func TestRecoverSignalsMarksApproximate(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1000, Sources: []string{"a", "b"}}, ok: true}
	f := newFixture(t, nil, feed)

	backlog := []ports.InboundMessage{
		inbound(signalText),
		{MessageRef: "43", ChannelRef: "chan-1", AuthorRef: "author-1", Text: "no signal here"},
	}
	n := f.service.RecoverSignals(context.Background(), backlog)

	assert.Equal(t, 1, n)
	require.Len(t, f.repo.upserts, 1)
	assert.True(t, f.repo.upserts[0].Recovered)
	assert.True(t, f.repo.upserts[0].Approximate)
	require.NotEmpty(t, f.notifier.texts)
	assert.Contains(t, f.notifier.texts[0], "recovered signal")
}

// backlogMessages serves a queued-while-down backlog before live delivery.
type backlogMessages struct {
	mockMessages
	backlog []ports.InboundMessage
}

func (m *backlogMessages) Backlog(ctx context.Context) ([]ports.InboundMessage, error) {
	return m.backlog, nil
}

func TestStartRecoversQueuedBacklog(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1000, Sources: []string{"a", "b"}}, ok: true}
	parser, err := signalparse.NewParser("Trade Signal For:")
	require.NoError(t, err)
	profile, err := signalparse.ProfileByName("standard")
	require.NoError(t, err)

	repo := &mockRepo{}
	notifier := &mockNotifier{}
	trk, err := tracker.New(tracker.Config{
		Feed: feed, Repo: repo, Notifier: notifier, Logger: &mockLogger{}, PollInterval: time.Hour,
	})
	require.NoError(t, err)

	messages := &backlogMessages{backlog: []ports.InboundMessage{inbound(signalText)}}
	svc, err := NewService(&config.Config{Enabled: true}, &mockLogger{}, parser,
		signalparse.NewCalculator(profile), feed, trk, repo, notifier, messages, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	require.Eventually(t, func() bool { return trk.ActiveCount() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Len(t, repo.upserts, 1)
	assert.True(t, repo.upserts[0].Recovered)
	assert.True(t, repo.upserts[0].Approximate)
}

func TestRestoreMirroredTrades(t *testing.T) {
	feed := &mockPriceFeed{ok: false}
	f := newFixture(t, nil, feed)
	f.repo.open = []*domain.Trade{
		{ID: "m1", Instrument: "EURUSD", Direction: domain.Buy, Status: domain.StatusActive},
		{ID: "m2", Instrument: "XAUUSD", Direction: domain.Sell, Status: domain.StatusTP1Hit},
	}

	require.NoError(t, f.service.restoreMirroredTrades(context.Background()))

	assert.Equal(t, 2, f.tracker.ActiveCount())
	assert.True(t, f.repo.open[0].Recovered)
}

func TestStatus(t *testing.T) {
	feed := &mockPriceFeed{quote: pricefeed.Quote{Price: 1.1, Sources: []string{"a"}}, ok: true}
	f := newFixture(t, nil, feed)

	st := f.service.Status()
	assert.True(t, st.Enabled)
	assert.Equal(t, 2, st.ConfiguredSources)
	assert.Equal(t, 0, st.ActiveTrades)

	f.service.HandleMessage(context.Background(), inbound(signalText))
	assert.Equal(t, 1, f.service.Status().ActiveTrades)
}
