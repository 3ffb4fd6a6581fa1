// Package store persists the pieces of a stockalert run: the daily bar
// cache (Parquet, one file per symbol and year), exported equity/trade
// series for the reporting sink, and the relational history of optimization
// runs (SQLite).
package store

import (
	"context"
	"time"

	"stockalert/internal/domain"
)

// BarStore caches daily bar data so repeated optimizations do not refetch
// the full history.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with existing data.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// oldest first.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// RunRecord is one persisted optimization run.
type RunRecord struct {
	ID            int64
	Ticker        string
	RunAt         time.Time
	Params        domain.StrategyParams
	TerminalValue float64
	TradeCount    int
}

// RunStore records optimization runs and their trade logs.
type RunStore interface {
	// SaveRun persists the winning result of a grid search and returns the
	// new run's ID.
	SaveRun(ctx context.Context, ticker string, runAt time.Time, res *domain.OptimizationResult) (int64, error)

	// ListRuns returns the most recent runs for a ticker, newest first, up
	// to limit.
	ListRuns(ctx context.Context, ticker string, limit int) ([]RunRecord, error)

	// RunTrades returns the chronological trade log of a saved run.
	RunTrades(ctx context.Context, runID int64) ([]domain.Trade, error)
}
