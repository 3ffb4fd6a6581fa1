// stockalert-optimize runs the threshold grid search from the command line
// and prints the winning parameters, the top grid points, and the trade log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"stockalert/internal/config"
	"stockalert/internal/domain"
	"stockalert/internal/indicator"
	"stockalert/internal/optimize"
	"stockalert/internal/provider"
	"stockalert/internal/store"
	"stockalert/internal/strategy"
	"stockalert/internal/util"
)

func main() {
	cfgPath := flag.String("config", "config/stockalert.yaml", "path to the YAML config")
	ticker := flag.String("ticker", "", "override the configured ticker")
	workers := flag.Int("workers", 0, "override the configured worker count")
	cached := flag.Bool("cached", false, "read bars from the local Parquet cache instead of the API")
	noSave := flag.Bool("no-save", false, "skip persisting the run to SQLite and Parquet")
	flag.Parse()

	if p := os.Getenv("STOCKALERT_CONFIG"); p != "" && !isFlagSet("config") {
		*cfgPath = p
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *ticker != "" {
		cfg.Monitor.Ticker = *ticker
	}
	if *workers > 0 {
		cfg.Optimize.MaxWorkers = *workers
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, "text"))

	ctx := context.Background()
	now := time.Now().UTC()
	start := now.AddDate(-cfg.Monitor.HistoryYears, 0, 0)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	bars, err := loadBars(ctx, cfg, pstore, *cached, start, now)
	if err != nil {
		log.Fatalf("failed to load %s bars: %v", cfg.Monitor.Ticker, err)
	}
	if len(bars) == 0 {
		log.Fatalf("no %s bars between %s and %s", cfg.Monitor.Ticker,
			start.Format("2006-01-02"), now.Format("2006-01-02"))
	}

	ind := indicator.Config{
		ReturnWindow: cfg.Monitor.ReturnWindow,
		RSIWindow:    cfg.Monitor.RSIWindow,
		SMAWindow:    cfg.Monitor.SMAWindow,
	}
	rows, err := indicator.Compute(bars, ind)
	if err != nil {
		log.Fatalf("failed to compute indicators: %v", err)
	}

	req := optimize.Request{
		Buy:             optimize.Range(cfg.Optimize.Buy),
		Sell:            optimize.Range(cfg.Optimize.Sell),
		ReturnWindow:    cfg.Monitor.ReturnWindow,
		StartingCapital: cfg.Optimize.StartingCapital,
		Workers:         cfg.Optimize.MaxWorkers,
	}
	best, points, err := optimize.Search(rows, req)
	if err != nil {
		log.Fatalf("grid search failed: %v", err)
	}

	hold, err := strategy.BuyAndHold(rows, req.StartingCapital)
	if err != nil {
		log.Fatalf("buy-and-hold baseline failed: %v", err)
	}

	printReport(cfg.Monitor.Ticker, bars[0].Date, bars[len(bars)-1].Date, best, points, hold, req.StartingCapital)

	if *noSave {
		return
	}

	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer sqlite.Close()

	runID, err := sqlite.SaveRun(ctx, cfg.Monitor.Ticker, now, best)
	if err != nil {
		log.Fatalf("failed to save run: %v", err)
	}
	dir, err := pstore.ExportResult(cfg.Monitor.Ticker, now, best)
	if err != nil {
		log.Fatalf("failed to export run artifacts: %v", err)
	}
	fmt.Printf("\nSaved run %d; artifacts in %s\n", runID, dir)
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// loadBars reads from the local Parquet cache or fetches from the API,
// refreshing the cache on the way through.
func loadBars(ctx context.Context, cfg *config.Config, pstore *store.ParquetStore, cached bool, start, end time.Time) ([]domain.Bar, error) {
	if cached {
		return pstore.ReadBars(ctx, cfg.Monitor.Ticker, start, end)
	}

	p := provider.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	bars, err := p.DailyBars(ctx, cfg.Monitor.Ticker, start, end)
	if err != nil {
		return nil, err
	}
	if err := pstore.WriteBars(ctx, bars); err != nil {
		return nil, fmt.Errorf("caching bars: %w", err)
	}
	return bars, nil
}

func printReport(ticker string, first, last time.Time, best *domain.OptimizationResult, points []optimize.Point, hold *strategy.Result, capital float64) {
	fmt.Printf("%s grid search over %s .. %s (%d grid points, $%.2f starting capital)\n\n",
		ticker, first.Format("2006-01-02"), last.Format("2006-01-02"), len(points), capital)

	fmt.Printf("Best: buy %.1f%% / sell %.1f%% -> terminal $%.2f (%+.2f%%)\n",
		best.Params.BuyThreshold, best.Params.SellThreshold,
		best.TerminalValue, (best.TerminalValue/capital-1)*100)
	fmt.Printf("Buy-and-hold baseline: $%.2f (%+.2f%%)\n\n",
		hold.TerminalValue, (hold.TerminalValue/capital-1)*100)

	// Top five grid points by terminal value; enumeration order breaks ties.
	ranked := make([]optimize.Point, len(points))
	copy(ranked, points)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TerminalValue > ranked[j].TerminalValue })
	n := min(5, len(ranked))
	fmt.Println("Top grid points:")
	fmt.Println("  buy%   sell%     terminal")
	for _, p := range ranked[:n] {
		fmt.Printf("  %5.1f  %5.1f  $%11.2f\n", p.BuyThreshold, p.SellThreshold, p.TerminalValue)
	}

	fmt.Printf("\nTrade log (%d trades):\n", len(best.Trades))
	for _, t := range best.Trades {
		fmt.Printf("  %s  %-4s  %10.4f shares @ $%8.2f  -> $%11.2f\n",
			t.Date.Format("2006-01-02"), t.Action, t.Shares, t.Price, t.PortfolioValue)
	}
}
