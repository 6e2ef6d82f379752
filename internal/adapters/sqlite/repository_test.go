package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "signal-tracker-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func sampleTrade(id string) *domain.Trade {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Trade{
		ID:            id,
		Instrument:    "EURUSD",
		Direction:     domain.Buy,
		Entry:         1.1000,
		TP1:           1.1020,
		TP2:           1.1040,
		TP3:           1.1070,
		SL:            1.0950,
		DisplayEntry:  1.1001,
		DisplayTP1:    1.1021,
		DisplayTP2:    1.1041,
		DisplayTP3:    1.1071,
		DisplaySL:     1.0951,
		LiveEntry:     1.1000,
		Status:        domain.StatusActive,
		ChannelRef:    "chan-1",
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

func TestRepository_UpsertAndFindAllOpen(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := sampleTrade("msg-100")
	require.NoError(t, repo.UpsertTrade(ctx, trade))

	open, err := repo.FindAllOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	got := open[0]
	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, trade.Instrument, got.Instrument)
	assert.Equal(t, domain.Buy, got.Direction)
	assert.InDelta(t, trade.Entry, got.Entry, 1e-9)
	assert.InDelta(t, trade.DisplaySL, got.DisplaySL, 1e-9)
	assert.Empty(t, got.TPHits)
	assert.False(t, got.BreakevenActive)
	assert.Equal(t, domain.StatusActive, got.Status)
}

func TestRepository_UpsertReplacesExistingRow(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := sampleTrade("msg-101")
	require.NoError(t, repo.UpsertTrade(ctx, trade))

	// Re-register the same message with different levels, as a restart
	// catch-up pass would.
	trade.Entry = 1.2000
	trade.Status = domain.StatusTP1Hit
	trade.RecordHit(domain.TP1)
	require.NoError(t, repo.UpsertTrade(ctx, trade))

	open, err := repo.FindAllOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.InDelta(t, 1.2000, open[0].Entry, 1e-9)
	assert.Equal(t, []domain.TPLevel{domain.TP1}, open[0].TPHits)
}

func TestRepository_UpdateTradeStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := sampleTrade("msg-102")
	require.NoError(t, repo.UpsertTrade(ctx, trade))

	trade.RecordHit(domain.TP1)
	trade.RecordHit(domain.TP2)
	trade.BreakevenActive = true
	trade.Status = domain.StatusTP2Breakeven
	trade.LastUpdatedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateTradeStatus(ctx, trade))

	open, err := repo.FindAllOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, []domain.TPLevel{domain.TP1, domain.TP2}, open[0].TPHits)
	assert.True(t, open[0].BreakevenActive)
	assert.Equal(t, domain.StatusTP2Breakeven, open[0].Status)
}

func TestRepository_UpdateMissingTrade(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	trade := sampleTrade("msg-never-stored")
	err := repo.UpdateTradeStatus(context.Background(), trade)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ClosedTradesExcludedFromOpen(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	open := sampleTrade("msg-open")
	closed := sampleTrade("msg-closed")
	closed.CloseReason = domain.CloseReasonStopLoss
	closed.Status = domain.StatusClosedSL

	require.NoError(t, repo.UpsertTrade(ctx, open))
	require.NoError(t, repo.UpsertTrade(ctx, closed))

	got, err := repo.FindAllOpen(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "msg-open", got[0].ID)
}

func TestRepository_DeleteTrade(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := sampleTrade("msg-103")
	require.NoError(t, repo.UpsertTrade(ctx, trade))
	require.NoError(t, repo.DeleteTrade(ctx, trade.ID))

	open, err := repo.FindAllOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	// Deleting an absent row is not an error.
	assert.NoError(t, repo.DeleteTrade(ctx, "msg-absent"))
}

func TestEncodeDecodeTPHits(t *testing.T) {
	assert.Equal(t, "", encodeTPHits(nil))
	assert.Nil(t, decodeTPHits(""))

	hits := []domain.TPLevel{domain.TP1, domain.TP2, domain.TP3}
	assert.Equal(t, "tp1,tp2,tp3", encodeTPHits(hits))
	assert.Equal(t, hits, decodeTPHits("tp1,tp2,tp3"))
}
