// Package store persists holdings and the watchlist in a local SQLite
// database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "stockwatch/internal/errors"
	"stockwatch/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS holdings (
	symbol     TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	avg_price  REAL NOT NULL,
	profit     INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS watchlist (
	symbol        TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	current_price REAL NOT NULL DEFAULT 0,
	high_alert    REAL NOT NULL DEFAULT 0,
	low_alert     REAL NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'normal',
	updated_at    TIMESTAMP NOT NULL
);
`

// Store wraps the SQLite database holding extraction results and the
// watchlist.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New opens (or creates) the database at path and applies the schema.
func New(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "store")),
		now:    time.Now,
	}, nil
}

// UpsertHoldings writes reconstructed holdings, replacing existing rows
// with the same symbol. Later duplicates within one batch win.
func (s *Store) UpsertHoldings(ctx context.Context, records []domain.HoldingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO holdings (symbol, name, quantity, avg_price, profit, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			avg_price = excluded.avg_price,
			profit = excluded.profit,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Symbol, rec.Name, rec.Quantity, rec.AvgPrice, rec.Profit, now); err != nil {
			return fmt.Errorf("upsert holding %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	s.logger.InfoContext(ctx, "holdings upserted", slog.Int("count", len(records)))
	return nil
}

// ListHoldings returns all stored holdings ordered by symbol.
func (s *Store) ListHoldings(ctx context.Context) ([]domain.HoldingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name, quantity, avg_price, profit
		FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var records []domain.HoldingRecord
	for rows.Next() {
		var rec domain.HoldingRecord
		if err := rows.Scan(&rec.Symbol, &rec.Name, &rec.Quantity, &rec.AvgPrice, &rec.Profit); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetHolding fetches a single holding by symbol.
func (s *Store) GetHolding(ctx context.Context, symbol string) (domain.HoldingRecord, error) {
	var rec domain.HoldingRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, name, quantity, avg_price, profit
		FROM holdings WHERE symbol = ?`, symbol).
		Scan(&rec.Symbol, &rec.Name, &rec.Quantity, &rec.AvgPrice, &rec.Profit)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HoldingRecord{}, fmt.Errorf("holding %s not found", symbol)
	}
	if err != nil {
		return domain.HoldingRecord{}, fmt.Errorf("query holding %s: %w", symbol, err)
	}
	return rec, nil
}

// AddWatch inserts or replaces a watchlist entry.
func (s *Store) AddWatch(ctx context.Context, item domain.WatchItem) error {
	if item.Status == "" {
		item.Status = domain.WatchStatusNormal
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlist (symbol, name, current_price, high_alert, low_alert, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			high_alert = excluded.high_alert,
			low_alert = excluded.low_alert,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		item.Symbol, item.Name, item.CurrentPrice, item.HighAlert, item.LowAlert, item.Status, s.now())
	if err != nil {
		return fmt.Errorf("add watch %s: %w", item.Symbol, err)
	}
	return nil
}

// ListWatch returns the whole watchlist ordered by symbol.
func (s *Store) ListWatch(ctx context.Context) ([]domain.WatchItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name, current_price, high_alert, low_alert, status, updated_at
		FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var items []domain.WatchItem
	for rows.Next() {
		var item domain.WatchItem
		if err := rows.Scan(&item.Symbol, &item.Name, &item.CurrentPrice,
			&item.HighAlert, &item.LowAlert, &item.Status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan watch item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetWatch fetches one watchlist entry.
func (s *Store) GetWatch(ctx context.Context, symbol string) (domain.WatchItem, error) {
	var item domain.WatchItem
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, name, current_price, high_alert, low_alert, status, updated_at
		FROM watchlist WHERE symbol = ?`, symbol).
		Scan(&item.Symbol, &item.Name, &item.CurrentPrice,
			&item.HighAlert, &item.LowAlert, &item.Status, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WatchItem{}, apperrors.ErrSymbolNotWatched
	}
	if err != nil {
		return domain.WatchItem{}, fmt.Errorf("query watch %s: %w", symbol, err)
	}
	return item, nil
}

// SetAlertBounds updates the alert band of a watched symbol. A zero bound
// clears that side.
func (s *Store) SetAlertBounds(ctx context.Context, symbol string, high, low float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE watchlist SET high_alert = ?, low_alert = ?, updated_at = ?
		WHERE symbol = ?`, high, low, s.now(), symbol)
	if err != nil {
		return fmt.Errorf("set bounds for %s: %w", symbol, err)
	}
	return s.requireRow(res, symbol)
}

// UpdateQuote records the latest price and alert status for a watched
// symbol, as the monitor loop observes them.
func (s *Store) UpdateQuote(ctx context.Context, symbol string, price float64, status domain.WatchStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE watchlist SET current_price = ?, status = ?, updated_at = ?
		WHERE symbol = ?`, price, status, s.now(), symbol)
	if err != nil {
		return fmt.Errorf("update quote for %s: %w", symbol, err)
	}
	return s.requireRow(res, symbol)
}

// SetStatus changes only the alert status of a watched symbol. Muting and
// auto-unmuting go through here.
func (s *Store) SetStatus(ctx context.Context, symbol string, status domain.WatchStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE watchlist SET status = ?, updated_at = ?
		WHERE symbol = ?`, status, s.now(), symbol)
	if err != nil {
		return fmt.Errorf("set status for %s: %w", symbol, err)
	}
	return s.requireRow(res, symbol)
}

// RemoveWatch deletes a watchlist entry.
func (s *Store) RemoveWatch(ctx context.Context, symbol string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("remove watch %s: %w", symbol, err)
	}
	return s.requireRow(res, symbol)
}

func (s *Store) requireRow(res sql.Result, symbol string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", symbol, err)
	}
	if n == 0 {
		return apperrors.ErrSymbolNotWatched
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
