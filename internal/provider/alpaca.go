// Package provider supplies the monitored ticker's daily price history from
// the Alpaca market-data API and answers trading-calendar questions for the
// scheduled-run trigger. The core packages only ever see the validated
// []domain.Bar it produces.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockalert/internal/domain"
	"stockalert/internal/util"
)

// BarProvider is the price-history boundary the alert and optimizer paths
// depend on; tests substitute a canned implementation.
type BarProvider interface {
	// DailyBars returns daily bars for symbol within [start, end], oldest
	// first, strictly increasing by date.
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// Compile-time interface check.
var _ BarProvider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches daily OHLCV bars via the Alpaca market-data API.
type AlpacaProvider struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewAlpacaProvider creates a provider with the given credentials. dataURL
// may be empty to use the SDK default.
func NewAlpacaProvider(apiKey, apiSecret, dataURL string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaProvider{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("provider", "alpaca"),
	}
}

// DailyBars fetches daily bars for one symbol, retrying transient failures
// with exponential backoff (the data API rate-limits aggressively around the
// open). The returned sequence is validated before being handed to callers.
func (p *AlpacaProvider) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var raw []marketdata.Bar
	err := util.Retry(ctx, 3, 5*time.Second, func() error {
		var err error
		raw, err = p.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			p.log.Warn("bar fetch failed, will retry", "symbol", symbol, "err", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	bars := toDomainBars(symbol, raw)
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validating %s bars: %w", symbol, err)
	}
	p.log.Info("fetched daily bars", "symbol", symbol, "bars", len(bars))
	return bars, nil
}

// toDomainBars maps SDK bars to domain bars, oldest first.
func toDomainBars(symbol string, raw []marketdata.Bar) []domain.Bar {
	bars := make([]domain.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, domain.Bar{
			Symbol: strings.ToUpper(symbol),
			Date:   ab.Timestamp,
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: int64(ab.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}
