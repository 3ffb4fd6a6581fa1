package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockalert/internal/indicator"
	"stockalert/internal/provider"
	"stockalert/internal/store"
)

// Alerter runs the daily dashboard flow: calendar check, history fetch,
// indicator computation, snapshot, email.
type Alerter struct {
	Ticker       string
	HistoryYears int
	Indicators   indicator.Config

	Provider provider.BarProvider
	Calendar provider.MarketCalendar
	Bars     store.BarStore
	Mailer   Mailer

	log *slog.Logger
}

// NewAlerter wires an alerter from its collaborators.
func NewAlerter(ticker string, historyYears int, ind indicator.Config, p provider.BarProvider, cal provider.MarketCalendar, bars store.BarStore, m Mailer) *Alerter {
	return &Alerter{
		Ticker:       ticker,
		HistoryYears: historyYears,
		Indicators:   ind,
		Provider:     p,
		Calendar:     cal,
		Bars:         bars,
		Mailer:       m,
		log:          slog.Default().With("component", "alerter"),
	}
}

// RunOutcome reports what a single alert run did.
type RunOutcome struct {
	Skipped bool     // true when now is not a trading day
	Metrics *Metrics // nil when skipped
}

// Run executes one alert cycle as of now. On non-trading days it returns a
// skipped outcome without fetching or emailing.
func (a *Alerter) Run(ctx context.Context, now time.Time) (*RunOutcome, error) {
	open, err := a.Calendar.IsTradingDay(now)
	if err != nil {
		return nil, fmt.Errorf("checking trading day: %w", err)
	}
	if !open {
		a.log.Info("market closed, skipping alert", "date", now.Format("2006-01-02"))
		return &RunOutcome{Skipped: true}, nil
	}

	m, err := a.snapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	htmlBody, err := RenderHTML(m)
	if err != nil {
		return nil, err
	}
	if err := a.Mailer.Send(m.Subject(), m.PlainText(), htmlBody); err != nil {
		return nil, fmt.Errorf("sending dashboard email: %w", err)
	}

	a.log.Info("dashboard email sent",
		"ticker", m.Ticker,
		"date", m.Date.Format("2006-01-02"),
		"price", m.LatestPrice,
		"return", m.ReturnDisplay(),
		"rsi", m.RSIDisplay(),
		"sma_status", m.SMAStatus(),
	)
	return &RunOutcome{Metrics: m}, nil
}

// Snapshot computes the current dashboard metrics without emailing. The
// dashboard API endpoint uses this path.
func (a *Alerter) Snapshot(ctx context.Context, now time.Time) (*Metrics, error) {
	return a.snapshot(ctx, now)
}

func (a *Alerter) snapshot(ctx context.Context, now time.Time) (*Metrics, error) {
	start := now.AddDate(-a.HistoryYears, 0, 0)
	bars, err := a.Provider.DailyBars(ctx, a.Ticker, start, now)
	if err != nil {
		return nil, fmt.Errorf("fetching %s history: %w", a.Ticker, err)
	}

	if a.Bars != nil {
		if err := a.Bars.WriteBars(ctx, bars); err != nil {
			// Cache failures never block the alert itself.
			a.log.Warn("bar cache write failed", "err", err)
		}
	}

	rows, err := indicator.Compute(bars, a.Indicators)
	if err != nil {
		return nil, fmt.Errorf("computing indicators: %w", err)
	}
	return Snapshot(a.Ticker, rows)
}
