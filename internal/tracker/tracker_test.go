package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalTracker/internal/domain"
	"signalTracker/internal/pricefeed"
	"signalTracker/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockFeed replays a scripted sequence of routine prices. A nil entry means
// the cycle fails.
type mockFeed struct {
	prices []*float64
	idx    int
}

func price(v float64) *float64 { return &v }

func (m *mockFeed) RoutinePrice(ctx context.Context, symbol string, rateLimited func(string)) (float64, error) {
	if m.idx >= len(m.prices) {
		return 0, ports.ErrPriceUnavailable
	}
	p := m.prices[m.idx]
	m.idx++
	if p == nil {
		return 0, ports.ErrPriceUnavailable
	}
	return *p, nil
}

func (m *mockFeed) VerifiedPrice(ctx context.Context, symbol string, rateLimited func(string)) (pricefeed.Quote, bool) {
	p, err := m.RoutinePrice(ctx, symbol, rateLimited)
	if err != nil {
		return pricefeed.Quote{}, false
	}
	return pricefeed.Quote{Price: p, Sources: []string{"mock"}}, true
}

// mockRepo records mirror calls.
type mockRepo struct {
	upserts []string
	updates []string
	deletes []string
}

func (m *mockRepo) UpsertTrade(ctx context.Context, trade *domain.Trade) error {
	m.upserts = append(m.upserts, trade.ID)
	return nil
}

func (m *mockRepo) UpdateTradeStatus(ctx context.Context, trade *domain.Trade) error {
	m.updates = append(m.updates, trade.ID+":"+trade.Status)
	return nil
}

func (m *mockRepo) DeleteTrade(ctx context.Context, id string) error {
	m.deletes = append(m.deletes, id)
	return nil
}

func (m *mockRepo) FindAllOpen(ctx context.Context) ([]*domain.Trade, error) { return nil, nil }

// mockNotifier records delivered texts.
type mockNotifier struct {
	texts []string
}

func (m *mockNotifier) Notify(ctx context.Context, channelRef, originMessageRef, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

// mockChecker replays scripted existence answers; defaults to present.
type mockChecker struct {
	answers []bool
	idx     int
}

func (m *mockChecker) StillExists(ctx context.Context, channelRef, originMessageRef string) bool {
	if m.idx >= len(m.answers) {
		return true
	}
	a := m.answers[m.idx]
	m.idx++
	return a
}

func buyTrade(id string) *domain.Trade {
	return &domain.Trade{
		ID:           id,
		Instrument:   "EURUSD",
		Direction:    domain.Buy,
		Entry:        1.1000,
		TP1:          1.1020,
		TP2:          1.1040,
		TP3:          1.1070,
		SL:           1.0950,
		DisplayEntry: 1.1000,
		DisplayTP1:   1.1020,
		DisplayTP2:   1.1040,
		DisplayTP3:   1.1070,
		DisplaySL:    1.0950,
		Status:       domain.StatusActive,
		ChannelRef:   "chan-1",
		CreatedAt:    time.Now().UTC(),
	}
}

type harness struct {
	tracker  *Tracker
	feed     *mockFeed
	repo     *mockRepo
	notifier *mockNotifier
	checker  *mockChecker
}

func newHarness(t *testing.T, prices []*float64) *harness {
	t.Helper()
	h := &harness{
		feed:     &mockFeed{prices: prices},
		repo:     &mockRepo{},
		notifier: &mockNotifier{},
		checker:  &mockChecker{},
	}
	tr, err := New(Config{
		Feed:     h.feed,
		Repo:     h.repo,
		Notifier: h.notifier,
		Checker:  h.checker,
		Logger:   &mockLogger{},
	})
	require.NoError(t, err)
	h.tracker = tr
	return h
}

// register puts a trade in the map directly; transition tests drive evaluate
// without the actor loop.
func (h *harness) register(trade *domain.Trade) {
	h.tracker.trades[trade.ID] = trade
	h.tracker.failures[trade.ID] = 0
	h.tracker.activeCount.Store(int64(len(h.tracker.trades)))
}

func TestTP1Hit(t *testing.T) {
	h := newHarness(t, []*float64{price(1.1025)})
	trade := buyTrade("m1")
	h.register(trade)

	h.tracker.pollCycle(context.Background(), false)

	assert.Equal(t, domain.StatusTP1Hit, trade.Status)
	assert.True(t, trade.HasHit(domain.TP1))
	assert.True(t, trade.IsOpen())
	require.Len(t, h.notifier.texts, 1)
	assert.Contains(t, h.notifier.texts[0], "TP1")
	assert.Equal(t, 1, h.tracker.ActiveCount())
}

func TestTP2ArmsBreakeven(t *testing.T) {
	h := newHarness(t, []*float64{price(1.1045)})
	trade := buyTrade("m2")
	h.register(trade)

	h.tracker.pollCycle(context.Background(), false)

	assert.Equal(t, domain.StatusTP2Breakeven, trade.Status)
	assert.True(t, trade.BreakevenActive)
	assert.Equal(t, domain.StateOpenBreakevenArmed, trade.State())
	// TP2 was the most favorable unmet level; TP1 stays unrecorded.
	assert.False(t, trade.HasHit(domain.TP1))
	require.Len(t, h.notifier.texts, 1)
	assert.Contains(t, h.notifier.texts[0], "TP2")
}

func TestTP3ClosesTrade(t *testing.T) {
	h := newHarness(t, []*float64{price(1.1080)})
	trade := buyTrade("m3")
	h.register(trade)

	h.tracker.pollCycle(context.Background(), false)

	assert.Equal(t, domain.CloseReasonTakeProfit3, trade.CloseReason)
	assert.Equal(t, domain.StatusCompletedTP3, trade.Status)
	assert.Equal(t, 0, h.tracker.ActiveCount())
	require.Len(t, h.notifier.texts, 1)
	assert.Contains(t, h.notifier.texts[0], "TP3")
	// The mirror holds only the active set; completion clears the row.
	assert.Contains(t, h.repo.deletes, "m3")
}

func TestStopLossClosesTrade(t *testing.T) {
	h := newHarness(t, []*float64{price(1.0940)})
	trade := buyTrade("m4")
	h.register(trade)

	h.tracker.pollCycle(context.Background(), false)

	assert.Equal(t, domain.CloseReasonStopLoss, trade.CloseReason)
	assert.Equal(t, domain.StatusClosedSL, trade.Status)
	assert.Equal(t, 0, h.tracker.ActiveCount())
	require.Len(t, h.notifier.texts, 1)
	assert.Contains(t, h.notifier.texts[0], "Stop loss")
	assert.Contains(t, h.repo.deletes, "m4")
}

func TestBreakevenTakesPriorityOverStopLoss(t *testing.T) {
	// 1.1010: nothing. 1.1041: TP2, breakeven armed. 1.0949: below SL, but
	// the armed trade closes at breakeven, not as an SL hit.
	h := newHarness(t, []*float64{price(1.1010), price(1.1041), price(1.0949)})
	trade := buyTrade("m5")
	h.register(trade)

	ctx := context.Background()
	h.tracker.pollCycle(ctx, false)
	assert.Equal(t, domain.StatusActive, trade.Status)

	h.tracker.pollCycle(ctx, false)
	assert.True(t, trade.BreakevenActive)

	h.tracker.pollCycle(ctx, false)
	assert.Equal(t, domain.CloseReasonBreakeven, trade.CloseReason)
	assert.Equal(t, domain.StatusClosedBreakeven, trade.Status)
	assert.Contains(t, h.repo.deletes, "m5")
}

func TestSellDirectionFlipsComparisons(t *testing.T) {
	trade := &domain.Trade{
		ID:         "m6",
		Instrument: "EURUSD",
		Direction:  domain.Sell,
		Entry:      1.1000,
		TP1:        1.0980,
		TP2:        1.0960,
		TP3:        1.0930,
		SL:         1.1050,
		Status:     domain.StatusActive,
		ChannelRef: "chan-1",
	}
	h := newHarness(t, []*float64{price(1.0975), price(1.1055)})
	h.register(trade)

	ctx := context.Background()
	h.tracker.pollCycle(ctx, false)
	assert.True(t, trade.HasHit(domain.TP1))

	h.tracker.pollCycle(ctx, false)
	assert.Equal(t, domain.CloseReasonStopLoss, trade.CloseReason)
}

func TestTPLevelsAreIdempotent(t *testing.T) {
	// Price lingers above TP1 for two cycles; only one notification fires.
	h := newHarness(t, []*float64{price(1.1025), price(1.1026)})
	trade := buyTrade("m7")
	h.register(trade)

	ctx := context.Background()
	h.tracker.pollCycle(ctx, false)
	h.tracker.pollCycle(ctx, false)

	assert.Equal(t, []domain.TPLevel{domain.TP1}, trade.TPHits)
	assert.Len(t, h.notifier.texts, 1)
}

func TestOriginGoneClosesSilently(t *testing.T) {
	h := newHarness(t, []*float64{price(1.1025)})
	h.checker.answers = []bool{false}
	trade := buyTrade("m8")
	h.register(trade)

	h.tracker.pollCycle(context.Background(), false)

	assert.Equal(t, domain.CloseReasonOriginGone, trade.CloseReason)
	assert.Empty(t, h.notifier.texts)
	assert.Contains(t, h.repo.deletes, "m8")
	assert.Equal(t, 0, h.tracker.ActiveCount())
}

func TestConsecutiveFailuresGiveUp(t *testing.T) {
	h := newHarness(t, []*float64{nil, nil, nil})
	trade := buyTrade("m9")
	h.register(trade)

	ctx := context.Background()
	h.tracker.pollCycle(ctx, false)
	h.tracker.pollCycle(ctx, false)
	assert.True(t, trade.IsOpen())

	h.tracker.pollCycle(ctx, false)
	assert.Equal(t, domain.CloseReasonCorrupted, trade.CloseReason)
	assert.Contains(t, h.repo.deletes, "m9")
	assert.Equal(t, 0, h.tracker.ActiveCount())
}

func TestFailureCountResetsOnSuccess(t *testing.T) {
	h := newHarness(t, []*float64{nil, nil, price(1.1005), nil, nil})
	trade := buyTrade("m10")
	h.register(trade)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		h.tracker.pollCycle(ctx, false)
	}
	// Two failures, a success, two failures: never three in a row.
	assert.True(t, trade.IsOpen())
}

func TestCatchUpTagsRestartDetections(t *testing.T) {
	h := newHarness(t, []*float64{price(1.1045)})
	trade := buyTrade("m11")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.tracker.Run(ctx)

	require.NoError(t, h.tracker.Track(ctx, trade))
	require.NoError(t, h.tracker.CatchUp(ctx))

	require.Len(t, h.notifier.texts, 1)
	assert.Contains(t, h.notifier.texts[0], "detected after restart")
	assert.True(t, trade.BreakevenActive)
}

func TestRemove(t *testing.T) {
	h := newHarness(t, nil)
	trade := buyTrade("m12")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.tracker.Run(ctx)

	require.NoError(t, h.tracker.Track(ctx, trade))
	assert.Equal(t, 1, h.tracker.ActiveCount())

	removed, err := h.tracker.Remove(ctx, "m12")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, h.tracker.ActiveCount())

	removed, err = h.tracker.Remove(ctx, "m12")
	require.NoError(t, err)
	assert.False(t, removed)
}
