// Package httpapi exposes the scheduled-run trigger and the dashboard and
// optimizer surfaces over HTTP, serving JSON to the cron hook and any
// front-end.
package httpapi

import (
	"time"

	"stockalert/internal/alert"
	"stockalert/internal/domain"
	"stockalert/internal/optimize"
	"stockalert/internal/store"
)

// DashboardResponse is the JSON form of the latest metric snapshot.
// Indicator fields are pointers so unfilled windows serialize as null
// instead of an unencodable NaN.
type DashboardResponse struct {
	Ticker      string   `json:"ticker"`
	Date        string   `json:"date"`
	LatestPrice float64  `json:"latestPrice"`
	Open        float64  `json:"open"`
	Return      *float64 `json:"return,omitempty"`
	RSI         *float64 `json:"rsi,omitempty"`
	RSIZone     string   `json:"rsiZone"`
	SMA         *float64 `json:"sma,omitempty"`
	SMAStatus   string   `json:"smaStatus"`
}

// RunResponse reports what a triggered alert run did.
type RunResponse struct {
	Date      string             `json:"date"`
	Skipped   bool               `json:"skipped"`
	Reason    string             `json:"reason,omitempty"`
	Dashboard *DashboardResponse `json:"dashboard,omitempty"`
}

// RangeJSON is an inclusive threshold progression in a request body.
type RangeJSON struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Step  float64 `json:"step"`
}

// OptimizeRequest overrides the configured grid search parameters. Every
// field is optional; zero values fall back to the server defaults.
type OptimizeRequest struct {
	Buy             *RangeJSON `json:"buy,omitempty"`
	Sell            *RangeJSON `json:"sell,omitempty"`
	StartingCapital float64    `json:"startingCapital,omitempty"`
	Workers         int        `json:"workers,omitempty"`
}

// TradeJSON is one executed trade in a response.
type TradeJSON struct {
	Date           string  `json:"date"`
	Action         string  `json:"action"`
	Price          float64 `json:"price"`
	Shares         float64 `json:"shares"`
	PortfolioValue float64 `json:"portfolioValue"`
}

// GridPointJSON summarizes one evaluated grid point.
type GridPointJSON struct {
	Buy           float64 `json:"buy"`
	Sell          float64 `json:"sell"`
	TerminalValue float64 `json:"terminalValue"`
}

// OptimizeResponse is the grid search outcome.
type OptimizeResponse struct {
	Ticker             string          `json:"ticker"`
	RunID              int64           `json:"runId,omitempty"`
	BuyThreshold       float64         `json:"buyThreshold"`
	SellThreshold      float64         `json:"sellThreshold"`
	ReturnWindow       int             `json:"returnWindow"`
	StartingCapital    float64         `json:"startingCapital"`
	TerminalValue      float64         `json:"terminalValue"`
	BuyAndHoldTerminal float64         `json:"buyAndHoldTerminal"`
	Trades             []TradeJSON     `json:"trades"`
	EquityPoints       int             `json:"equityPoints"`
	Grid               []GridPointJSON `json:"grid"`
	ArtifactsDir       string          `json:"artifactsDir,omitempty"`
}

// RunRecordJSON is one saved optimization run in the history listing.
type RunRecordJSON struct {
	ID            int64   `json:"id"`
	Ticker        string  `json:"ticker"`
	RunAt         string  `json:"runAt"`
	BuyThreshold  float64 `json:"buyThreshold"`
	SellThreshold float64 `json:"sellThreshold"`
	TerminalValue float64 `json:"terminalValue"`
	TradeCount    int     `json:"tradeCount"`
}

// RunsResponse lists saved optimization runs, newest first.
type RunsResponse struct {
	Ticker string          `json:"ticker"`
	Runs   []RunRecordJSON `json:"runs"`
}

// ---------------------------------------------------------------------------
// Converters
// ---------------------------------------------------------------------------

func convertDashboard(m *alert.Metrics) *DashboardResponse {
	resp := &DashboardResponse{
		Ticker:      m.Ticker,
		Date:        m.Date.Format("2006-01-02"),
		LatestPrice: m.LatestPrice,
		Open:        m.CurrentOpen,
		RSIZone:     m.RSIZone(),
		SMAStatus:   m.SMAStatus(),
	}
	if m.Row.HasReturn() {
		v := m.Row.Return
		resp.Return = &v
	}
	if m.Row.HasRSI() {
		v := m.Row.RSI
		resp.RSI = &v
	}
	if m.Row.HasSMA() {
		v := m.Row.SMA
		resp.SMA = &v
	}
	return resp
}

func convertTrades(trades []domain.Trade) []TradeJSON {
	out := make([]TradeJSON, 0, len(trades))
	for _, t := range trades {
		out = append(out, TradeJSON{
			Date:           t.Date.Format("2006-01-02"),
			Action:         string(t.Action),
			Price:          t.Price,
			Shares:         t.Shares,
			PortfolioValue: t.PortfolioValue,
		})
	}
	return out
}

func convertGrid(points []optimize.Point) []GridPointJSON {
	out := make([]GridPointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, GridPointJSON{
			Buy:           p.BuyThreshold,
			Sell:          p.SellThreshold,
			TerminalValue: p.TerminalValue,
		})
	}
	return out
}

func convertRuns(ticker string, records []store.RunRecord) RunsResponse {
	runs := make([]RunRecordJSON, 0, len(records))
	for _, r := range records {
		runs = append(runs, RunRecordJSON{
			ID:            r.ID,
			Ticker:        r.Ticker,
			RunAt:         r.RunAt.Format(time.RFC3339),
			BuyThreshold:  r.Params.BuyThreshold,
			SellThreshold: r.Params.SellThreshold,
			TerminalValue: r.TerminalValue,
			TradeCount:    r.TradeCount,
		})
	}
	return RunsResponse{Ticker: ticker, Runs: runs}
}
