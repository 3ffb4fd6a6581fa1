// Package strategy replays an indicator series through the long/flat
// mean-reversion state machine: buy with all cash when the rolling return
// drops to the buy threshold, sell everything when it rises to the sell
// threshold, and mark the portfolio to market every day in between.
package strategy

import (
	"errors"
	"fmt"
	"math"

	"stockalert/internal/domain"
)

var (
	// ErrInvalidParams is returned for structurally invalid parameters:
	// non-positive starting capital, NaN thresholds, or a return window < 2.
	// Threshold ordering is deliberately not checked — the grid explores
	// buy ≥ sell pairs too.
	ErrInvalidParams = errors.New("strategy: invalid parameters")

	// ErrEmptySeries is returned when there are no rows to simulate; a run
	// with no days has no terminal value.
	ErrEmptySeries = errors.New("strategy: empty indicator series")
)

// Result holds the output of a single simulation run.
type Result struct {
	TerminalValue float64
	Trades        []domain.Trade
	EquityCurve   []domain.EquityPoint
}

// ValidateParams checks the structural constraints on strategy parameters.
func ValidateParams(p domain.StrategyParams) error {
	if math.IsNaN(p.BuyThreshold) || math.IsNaN(p.SellThreshold) {
		return fmt.Errorf("%w: threshold is NaN", ErrInvalidParams)
	}
	if p.StartingCapital <= 0 {
		return fmt.Errorf("%w: starting capital %v", ErrInvalidParams, p.StartingCapital)
	}
	if p.ReturnWindow < 2 {
		return fmt.Errorf("%w: return window %d", ErrInvalidParams, p.ReturnWindow)
	}
	return nil
}

// Simulate replays the rows in order, exactly once. Rows whose rolling
// return is undefined never trigger a transition but are still valued at
// that day's close, so the equity curve has one point per row. A position
// still open on the final row is marked to market, not liquidated.
// Identical inputs always produce identical output.
func Simulate(rows []domain.IndicatorRow, params domain.StrategyParams) (*Result, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptySeries
	}

	cash := params.StartingCapital
	shares := 0.0
	state := domain.PositionFlat

	res := &Result{
		EquityCurve: make([]domain.EquityPoint, 0, len(rows)),
	}

	for _, row := range rows {
		if row.HasReturn() {
			switch {
			case state == domain.PositionFlat && row.Return <= params.BuyThreshold:
				shares = cash / row.Close
				cash = 0
				state = domain.PositionLong
				res.Trades = append(res.Trades, domain.Trade{
					Date:           row.Date,
					Action:         domain.ActionBuy,
					Price:          row.Close,
					Shares:         shares,
					PortfolioValue: shares * row.Close,
				})

			case state == domain.PositionLong && row.Return >= params.SellThreshold:
				cash = shares * row.Close
				res.Trades = append(res.Trades, domain.Trade{
					Date:           row.Date,
					Action:         domain.ActionSell,
					Price:          row.Close,
					Shares:         shares,
					PortfolioValue: cash,
				})
				shares = 0
				state = domain.PositionFlat
			}
		}

		res.EquityCurve = append(res.EquityCurve, domain.EquityPoint{
			Date:  row.Date,
			Value: cash + shares*row.Close,
		})
	}

	res.TerminalValue = res.EquityCurve[len(res.EquityCurve)-1].Value
	return res, nil
}
