package strategy

import (
	"stockalert/internal/domain"
)

// BuyAndHold is the passive benchmark the reporting sink compares runs
// against: buy once at the first row's close with the full capital, hold to
// the end, no further trades. The curve uses the same EquityPoint format as
// Simulate, so the two series plot directly against each other when given
// the same rows.
func BuyAndHold(rows []domain.IndicatorRow, startingCapital float64) (*Result, error) {
	if startingCapital <= 0 {
		return nil, ErrInvalidParams
	}
	if len(rows) == 0 {
		return nil, ErrEmptySeries
	}

	shares := startingCapital / rows[0].Close
	res := &Result{
		Trades: []domain.Trade{{
			Date:           rows[0].Date,
			Action:         domain.ActionBuy,
			Price:          rows[0].Close,
			Shares:         shares,
			PortfolioValue: startingCapital,
		}},
		EquityCurve: make([]domain.EquityPoint, 0, len(rows)),
	}
	for _, row := range rows {
		res.EquityCurve = append(res.EquityCurve, domain.EquityPoint{
			Date:  row.Date,
			Value: shares * row.Close,
		})
	}
	res.TerminalValue = res.EquityCurve[len(res.EquityCurve)-1].Value
	return res, nil
}
