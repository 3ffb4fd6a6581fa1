// Package domain defines the shared data types that flow between the price
// history provider, the indicator engine, the strategy simulator, and the
// reporting surfaces.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Bar is one day's OHLC price record for a symbol. Bars are produced by the
// price history provider and are read-only everywhere else.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// ValidateBars checks that a bar sequence is strictly increasing by date.
// Duplicate or out-of-order dates are invalid; gaps (weekends, holidays) are
// fine — the calendar is the provider's concern.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Date, bars[i].Date
		if !cur.After(prev) {
			return fmt.Errorf("bar %d (%s) does not follow bar %d (%s): dates must be strictly increasing",
				i, cur.Format("2006-01-02"), i-1, prev.Format("2006-01-02"))
		}
	}
	return nil
}

// IndicatorRow carries the rolling metrics derived for one bar. Indicator
// fields hold NaN until their window has filled; the Has* accessors report
// whether a value is defined. Undefined rows must never drive a trade.
type IndicatorRow struct {
	Date   time.Time
	Open   float64
	Close  float64
	Return float64 // rolling N-bar return, percent
	RSI    float64
	SMA    float64
}

// HasReturn reports whether the rolling return is defined for this row.
func (r IndicatorRow) HasReturn() bool { return !math.IsNaN(r.Return) }

// HasRSI reports whether the RSI is defined for this row.
func (r IndicatorRow) HasRSI() bool { return !math.IsNaN(r.RSI) }

// HasSMA reports whether the SMA is defined for this row.
func (r IndicatorRow) HasSMA() bool { return !math.IsNaN(r.SMA) }

// AboveSMA reports whether the day's open is above the SMA. ok is false when
// the SMA is still undefined.
func (r IndicatorRow) AboveSMA() (above, ok bool) {
	if !r.HasSMA() {
		return false, false
	}
	return r.Open > r.SMA, true
}

// SMAStatus renders the open-vs-SMA relation for display: ABOVE, BELOW,
// EQUAL, or N/A while the SMA window is unfilled.
func (r IndicatorRow) SMAStatus() string {
	switch {
	case !r.HasSMA():
		return "N/A"
	case r.Open > r.SMA:
		return "ABOVE"
	case r.Open < r.SMA:
		return "BELOW"
	default:
		return "EQUAL"
	}
}

// Action is the side of an executed trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Position is the simulator's state: all cash or all shares.
type Position string

const (
	PositionFlat Position = "FLAT"
	PositionLong Position = "LONG"
)

// StrategyParams parametrizes one simulation run. Thresholds are percentages
// compared directly against the rolling return.
type StrategyParams struct {
	BuyThreshold    float64
	SellThreshold   float64
	ReturnWindow    int
	StartingCapital float64
}

// Trade is one executed transition of the simulator's position state machine.
type Trade struct {
	Date           time.Time
	Action         Action
	Price          float64
	Shares         float64
	PortfolioValue float64 // portfolio value after the trade settles
}

// EquityPoint is the simulator's mark-to-market valuation for one day.
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// OptimizationResult is the grid optimizer's winning run: the parameters, the
// terminal portfolio value, and the full trade log and equity curve.
type OptimizationResult struct {
	Params        StrategyParams
	TerminalValue float64
	Trades        []Trade
	EquityCurve   []EquityPoint
}
