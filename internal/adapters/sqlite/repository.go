package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.TradeRepository using SQLite. It is a mirror of
// the in-memory tracker state: callers treat every failure here as non-fatal
// and keep tracking from memory.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/signal_tracker.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits from
	// limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS active_trades (
		message_id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		instrument TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry REAL NOT NULL,
		tp1 REAL NOT NULL,
		tp2 REAL NOT NULL,
		tp3 REAL NOT NULL,
		sl REAL NOT NULL,
		display_entry REAL NOT NULL,
		display_tp1 REAL NOT NULL,
		display_tp2 REAL NOT NULL,
		display_tp3 REAL NOT NULL,
		display_sl REAL NOT NULL,
		live_entry REAL NOT NULL,
		tp_hits TEXT NOT NULL DEFAULT '',
		breakeven_active INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		close_reason TEXT NOT NULL DEFAULT '',
		recovered INTEGER NOT NULL DEFAULT 0,
		approximate INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		last_updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_active_trades_close_reason ON active_trades (close_reason);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// UpsertTrade inserts a trade mirror row or replaces the existing one keyed
// by the originating message ID.
func (r *Repository) UpsertTrade(ctx context.Context, trade *domain.Trade) error {
	const query = `
	INSERT INTO active_trades (
		message_id, channel_id, instrument, direction,
		entry, tp1, tp2, tp3, sl,
		display_entry, display_tp1, display_tp2, display_tp3, display_sl,
		live_entry, tp_hits, breakeven_active, status, close_reason,
		recovered, approximate, created_at, last_updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(message_id) DO UPDATE SET
		channel_id = excluded.channel_id,
		instrument = excluded.instrument,
		direction = excluded.direction,
		entry = excluded.entry, tp1 = excluded.tp1, tp2 = excluded.tp2,
		tp3 = excluded.tp3, sl = excluded.sl,
		display_entry = excluded.display_entry, display_tp1 = excluded.display_tp1,
		display_tp2 = excluded.display_tp2, display_tp3 = excluded.display_tp3,
		display_sl = excluded.display_sl,
		live_entry = excluded.live_entry, tp_hits = excluded.tp_hits,
		breakeven_active = excluded.breakeven_active, status = excluded.status,
		close_reason = excluded.close_reason, recovered = excluded.recovered,
		approximate = excluded.approximate, last_updated_at = excluded.last_updated_at`

	_, err := r.db.ExecContext(ctx, query,
		trade.ID, trade.ChannelRef, trade.Instrument, string(trade.Direction),
		trade.Entry, trade.TP1, trade.TP2, trade.TP3, trade.SL,
		trade.DisplayEntry, trade.DisplayTP1, trade.DisplayTP2, trade.DisplayTP3, trade.DisplaySL,
		trade.LiveEntry, encodeTPHits(trade.TPHits), trade.BreakevenActive, trade.Status, string(trade.CloseReason),
		trade.Recovered, trade.Approximate, trade.CreatedAt, trade.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert trade %s: %v", ports.ErrQueryFailed, trade.ID, err)
	}
	r.logger.Debug(ctx, "Trade mirrored", map[string]interface{}{"tradeID": trade.ID, "instrument": trade.Instrument})
	return nil
}

// UpdateTradeStatus rewrites the mutable tracking fields of an existing row.
func (r *Repository) UpdateTradeStatus(ctx context.Context, trade *domain.Trade) error {
	const query = `
	UPDATE active_trades
	SET tp_hits = ?, breakeven_active = ?, status = ?, close_reason = ?, last_updated_at = ?
	WHERE message_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		encodeTPHits(trade.TPHits), trade.BreakevenActive, trade.Status, string(trade.CloseReason),
		trade.LastUpdatedAt, trade.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to update trade %s: %v", ports.ErrUpdateFailed, trade.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected for trade %s: %v", ports.ErrUpdateFailed, trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s not found for update: %w", trade.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade status mirrored", map[string]interface{}{"tradeID": trade.ID, "status": trade.Status})
	return nil
}

// DeleteTrade removes a closed or abandoned trade from the mirror.
func (r *Repository) DeleteTrade(ctx context.Context, id string) error {
	const query = `DELETE FROM active_trades WHERE message_id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete trade %s: %v", ports.ErrDeleteFailed, id, err)
	}
	r.logger.Debug(ctx, "Trade removed from mirror", map[string]interface{}{"tradeID": id})
	return nil
}

// FindAllOpen retrieves every trade without a close reason, oldest first.
func (r *Repository) FindAllOpen(ctx context.Context) ([]*domain.Trade, error) {
	const query = `
	SELECT message_id, channel_id, instrument, direction,
	       entry, tp1, tp2, tp3, sl,
	       display_entry, display_tp1, display_tp2, display_tp3, display_sl,
	       live_entry, tp_hits, breakeven_active, status, close_reason,
	       recovered, approximate, created_at, last_updated_at
	FROM active_trades
	WHERE close_reason = ''
	ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query open trades: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan trade row: %v", ports.ErrQueryFailed, err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating trade rows: %v", ports.ErrQueryFailed, err)
	}
	return trades, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var direction, tpHits, closeReason string
	err := s.Scan(
		&t.ID, &t.ChannelRef, &t.Instrument, &direction,
		&t.Entry, &t.TP1, &t.TP2, &t.TP3, &t.SL,
		&t.DisplayEntry, &t.DisplayTP1, &t.DisplayTP2, &t.DisplayTP3, &t.DisplaySL,
		&t.LiveEntry, &tpHits, &t.BreakevenActive, &t.Status, &closeReason,
		&t.Recovered, &t.Approximate, &t.CreatedAt, &t.LastUpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Direction = domain.Direction(direction)
	t.CloseReason = domain.CloseReason(closeReason)
	t.TPHits = decodeTPHits(tpHits)
	return t, nil
}

// encodeTPHits flattens the hit list into a comma separated column value,
// preserving insertion order.
func encodeTPHits(hits []domain.TPLevel) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, string(h))
	}
	return strings.Join(parts, ",")
}

func decodeTPHits(encoded string) []domain.TPLevel {
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, ",")
	hits := make([]domain.TPLevel, 0, len(parts))
	for _, p := range parts {
		hits = append(hits, domain.TPLevel(p))
	}
	return hits
}
