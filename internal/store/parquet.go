package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockalert/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements the bar cache and the run-artifact export using
// Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// EquityRecord is the Parquet schema for one equity-curve point.
type EquityRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"`
	Value     float64 `parquet:"value"`
}

// TradeRecord is the Parquet schema for one executed trade.
type TradeRecord struct {
	Timestamp      int64   `parquet:"timestamp,timestamp(millisecond)"`
	Action         string  `parquet:"action"`
	Price          float64 `parquet:"price"`
	Shares         float64 `parquet:"shares"`
	PortfolioValue float64 `parquet:"portfolio_value"`
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars writes bar data organized by symbol and year, merging with any
// bars already on disk. Layout: <DataDir>/daily/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) WriteBars(_ context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{symbol: strings.ToUpper(b.Symbol), year: b.Date.Year()}
		groups[k] = append(groups[k], BarRecord{
			Symbol:    strings.ToUpper(b.Symbol),
			Timestamp: b.Date.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.symbol, k.year)

		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadBars reads cached bars for the given symbol and time range.
func (s *ParquetStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[BarRecord](s.barPath(strings.ToUpper(symbol), year))
		if err != nil {
			// No file for this year — skip.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if !ts.Before(start) && !ts.After(end) {
				bars = append(bars, domain.Bar{
					Symbol: r.Symbol,
					Date:   ts,
					Open:   r.Open,
					High:   r.High,
					Low:    r.Low,
					Close:  r.Close,
					Volume: r.Volume,
				})
			}
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ---------------------------------------------------------------------------
// Run-artifact export
// ---------------------------------------------------------------------------

// ExportResult writes a run's equity curve and trade log for the reporting
// sink. Layout: <DataDir>/runs/<TICKER>/<YYYY-MM-DD>/{equity,trades}.parquet
// Returns the directory the artifacts were written to.
func (s *ParquetStore) ExportResult(ticker string, runAt time.Time, res *domain.OptimizationResult) (string, error) {
	dir := filepath.Join(s.DataDir, "runs", strings.ToUpper(ticker), runAt.Format("2006-01-02"))

	equity := make([]EquityRecord, 0, len(res.EquityCurve))
	for _, p := range res.EquityCurve {
		equity = append(equity, EquityRecord{Timestamp: p.Date.UnixMilli(), Value: p.Value})
	}
	if err := writeParquetFile(filepath.Join(dir, "equity.parquet"), equity); err != nil {
		return "", fmt.Errorf("writing equity curve: %w", err)
	}

	trades := make([]TradeRecord, 0, len(res.Trades))
	for _, t := range res.Trades {
		trades = append(trades, TradeRecord{
			Timestamp:      t.Date.UnixMilli(),
			Action:         string(t.Action),
			Price:          t.Price,
			Shares:         t.Shares,
			PortfolioValue: t.PortfolioValue,
		})
	}
	if err := writeParquetFile(filepath.Join(dir, "trades.parquet"), trades); err != nil {
		return "", fmt.Errorf("writing trade log: %w", err)
	}
	return dir, nil
}

// ReadExportedEquity loads an exported equity curve back as EquityPoints.
func (s *ParquetStore) ReadExportedEquity(dir string) ([]domain.EquityPoint, error) {
	records, err := readParquetFile[EquityRecord](filepath.Join(dir, "equity.parquet"))
	if err != nil {
		return nil, err
	}
	points := make([]domain.EquityPoint, 0, len(records))
	for _, r := range records {
		points = append(points, domain.EquityPoint{Date: time.UnixMilli(r.Timestamp).UTC(), Value: r.Value})
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// barPath returns the filesystem path for a bar Parquet file.
func (s *ParquetStore) barPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "daily", symbol, fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates bar records by (symbol, timestamp), preferring
// incoming records over existing ones. Results are sorted by timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
