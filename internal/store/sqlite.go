package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockalert/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS optimization_runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker           TEXT NOT NULL,
	run_at           INTEGER NOT NULL, -- Unix ms
	buy_threshold    REAL NOT NULL,
	sell_threshold   REAL NOT NULL,
	return_window    INTEGER NOT NULL,
	starting_capital REAL NOT NULL,
	terminal_value   REAL NOT NULL,
	trade_count      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_ticker_run_at ON optimization_runs (ticker, run_at DESC);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id          INTEGER NOT NULL REFERENCES optimization_runs (id),
	seq             INTEGER NOT NULL,
	trade_date      INTEGER NOT NULL, -- Unix ms
	action          TEXT NOT NULL,
	price           REAL NOT NULL,
	shares          REAL NOT NULL,
	portfolio_value REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);`)
	return err
}

// SaveRun persists the winning result of a grid search and its trade log in
// one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, ticker string, runAt time.Time, res *domain.OptimizationResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
INSERT INTO optimization_runs
	(ticker, run_at, buy_threshold, sell_threshold, return_window, starting_capital, terminal_value, trade_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ticker,
		runAt.UnixMilli(),
		res.Params.BuyThreshold,
		res.Params.SellThreshold,
		res.Params.ReturnWindow,
		res.Params.StartingCapital,
		res.TerminalValue,
		len(res.Trades),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_trades (run_id, seq, trade_date, action, price, shares, portfolio_value)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, t := range res.Trades {
		if _, err := stmt.ExecContext(ctx, runID, i, t.Date.UnixMilli(), string(t.Action), t.Price, t.Shares, t.PortfolioValue); err != nil {
			return 0, fmt.Errorf("inserting trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent runs for a ticker, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, ticker string, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ticker, run_at, buy_threshold, sell_threshold, return_window, starting_capital, terminal_value, trade_count
FROM optimization_runs
WHERE ticker = ?
ORDER BY run_at DESC, id DESC
LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var runAt int64
		if err := rows.Scan(&r.ID, &r.Ticker, &runAt,
			&r.Params.BuyThreshold, &r.Params.SellThreshold,
			&r.Params.ReturnWindow, &r.Params.StartingCapital,
			&r.TerminalValue, &r.TradeCount); err != nil {
			return nil, err
		}
		r.RunAt = time.UnixMilli(runAt).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunTrades returns the chronological trade log of a saved run.
func (s *SQLiteStore) RunTrades(ctx context.Context, runID int64) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT trade_date, action, price, shares, portfolio_value
FROM run_trades
WHERE run_id = ?
ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var date int64
		var action string
		if err := rows.Scan(&date, &action, &t.Price, &t.Shares, &t.PortfolioValue); err != nil {
			return nil, err
		}
		t.Date = time.UnixMilli(date).UTC()
		t.Action = domain.Action(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
