// Package alert produces the daily dashboard snapshot for the monitored
// ticker and delivers it as an HTML email. It sits on the reporting side of
// the core: it consumes indicator rows, never raw bars.
package alert

import (
	"errors"
	"fmt"
	"time"

	"stockalert/internal/domain"
)

// ErrNoRows is returned when a snapshot is requested from an empty series.
var ErrNoRows = errors.New("alert: no indicator rows")

// Metrics is the dashboard snapshot for the latest trading day.
type Metrics struct {
	Ticker      string
	Date        time.Time
	LatestPrice float64
	CurrentOpen float64
	Row         domain.IndicatorRow
}

// Snapshot extracts dashboard metrics from the latest indicator row.
func Snapshot(ticker string, rows []domain.IndicatorRow) (*Metrics, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	last := rows[len(rows)-1]
	return &Metrics{
		Ticker:      ticker,
		Date:        last.Date,
		LatestPrice: last.Close,
		CurrentOpen: last.Open,
		Row:         last,
	}, nil
}

// RSIZone classifies the RSI for display: Oversold below 30, Overbought
// above 70, Neutral between, N/A while the window is unfilled.
func (m *Metrics) RSIZone() string {
	switch {
	case !m.Row.HasRSI():
		return "N/A"
	case m.Row.RSI < 30:
		return "Oversold"
	case m.Row.RSI > 70:
		return "Overbought"
	default:
		return "Neutral"
	}
}

// ReturnDisplay formats the rolling return for display.
func (m *Metrics) ReturnDisplay() string {
	if !m.Row.HasReturn() {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", m.Row.Return)
}

// RSIDisplay formats the RSI for display.
func (m *Metrics) RSIDisplay() string {
	if !m.Row.HasRSI() {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", m.Row.RSI)
}

// SMADisplay formats the SMA for display.
func (m *Metrics) SMADisplay() string {
	if !m.Row.HasSMA() {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", m.Row.SMA)
}

// SMAStatus reports the open-vs-SMA relation (ABOVE, BELOW, EQUAL, N/A).
func (m *Metrics) SMAStatus() string {
	return m.Row.SMAStatus()
}

// Subject is the email subject line for this snapshot.
func (m *Metrics) Subject() string {
	return fmt.Sprintf("%s Dashboard - %s", m.Ticker, m.Date.Format("2006-01-02"))
}

// PlainText renders the snapshot as the plain-text email alternative.
func (m *Metrics) PlainText() string {
	return fmt.Sprintf(
		"%s Dashboard (%s)\nLatest Price: $%.2f\nOpen: $%.2f\nReturn: %s\nRSI: %s (%s)\nSMA: %s (%s)\n",
		m.Ticker, m.Date.Format("2006-01-02"),
		m.LatestPrice, m.CurrentOpen,
		m.ReturnDisplay(),
		m.RSIDisplay(), m.RSIZone(),
		m.SMADisplay(), m.SMAStatus(),
	)
}
