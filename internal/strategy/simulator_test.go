package strategy

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"stockalert/internal/domain"
	"stockalert/internal/indicator"
)

func rowDate(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// rowsWith builds indicator rows with a fixed close and explicit return
// values; NaN returns mark rows whose window has not filled.
func rowsWith(closes, rets []float64) []domain.IndicatorRow {
	rows := make([]domain.IndicatorRow, len(closes))
	for i := range closes {
		rows[i] = domain.IndicatorRow{
			Date:   rowDate(i),
			Open:   closes[i],
			Close:  closes[i],
			Return: rets[i],
			RSI:    math.NaN(),
			SMA:    math.NaN(),
		}
	}
	return rows
}

func params(buy, sell float64) domain.StrategyParams {
	return domain.StrategyParams{
		BuyThreshold:    buy,
		SellThreshold:   sell,
		ReturnWindow:    5,
		StartingCapital: 10000,
	}
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name string
		p    domain.StrategyParams
	}{
		{"zero capital", domain.StrategyParams{BuyThreshold: -5, SellThreshold: 45, ReturnWindow: 63}},
		{"negative capital", domain.StrategyParams{BuyThreshold: -5, SellThreshold: 45, ReturnWindow: 63, StartingCapital: -1}},
		{"nan buy threshold", domain.StrategyParams{BuyThreshold: math.NaN(), SellThreshold: 45, ReturnWindow: 63, StartingCapital: 10000}},
		{"nan sell threshold", domain.StrategyParams{BuyThreshold: -5, SellThreshold: math.NaN(), ReturnWindow: 63, StartingCapital: 10000}},
		{"window below 2", domain.StrategyParams{BuyThreshold: -5, SellThreshold: 45, ReturnWindow: 1, StartingCapital: 10000}},
	}
	for _, tt := range tests {
		if err := ValidateParams(tt.p); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s: ValidateParams error = %v, want ErrInvalidParams", tt.name, err)
		}
	}

	// Inverted thresholds are structurally fine: the grid explores them.
	inverted := domain.StrategyParams{BuyThreshold: 10, SellThreshold: -5, ReturnWindow: 5, StartingCapital: 10000}
	if err := ValidateParams(inverted); err != nil {
		t.Errorf("ValidateParams rejected buy > sell ordering: %v", err)
	}
}

func TestSimulateEmptySeries(t *testing.T) {
	_, err := Simulate(nil, params(-3, 8))
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("Simulate(nil) error = %v, want ErrEmptySeries", err)
	}
}

func TestSimulateDeterministic(t *testing.T) {
	closes := []float64{50, 50, 48, 46, 50, 54, 58, 55}
	rets := []float64{math.NaN(), math.NaN(), -4, -8, 0, 8, 16, -5}
	rows := rowsWith(closes, rets)

	a, err := Simulate(rows, params(-3, 8))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	b, err := Simulate(rows, params(-3, 8))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two runs over identical inputs diverged")
	}
}

func TestSimulateConservationAcrossRoundTrip(t *testing.T) {
	// Buy then immediately sell at the same close: no fees are modeled, so
	// the portfolio value must return exactly to its pre-trade level.
	closes := []float64{50, 50, 50}
	rets := []float64{0, -5, 10}
	res, err := Simulate(rowsWith(closes, rets), params(-3, 8))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("len(Trades) = %d, want 2", len(res.Trades))
	}
	if res.Trades[0].Action != domain.ActionBuy || res.Trades[1].Action != domain.ActionSell {
		t.Fatalf("trade actions = %v, %v; want BUY, SELL", res.Trades[0].Action, res.Trades[1].Action)
	}
	if res.TerminalValue != 10000 {
		t.Errorf("TerminalValue = %v, want 10000", res.TerminalValue)
	}
	for i, p := range res.EquityCurve {
		if p.Value != 10000 {
			t.Errorf("equity point %d = %v, want 10000", i, p.Value)
		}
	}
}

func TestSimulateUndefinedRowsStillValued(t *testing.T) {
	closes := []float64{50, 52, 54}
	rets := []float64{math.NaN(), math.NaN(), math.NaN()}
	res, err := Simulate(rowsWith(closes, rets), params(-3, 8))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("undefined rows produced %d trades", len(res.Trades))
	}
	if len(res.EquityCurve) != len(closes) {
		t.Fatalf("len(EquityCurve) = %d, want %d", len(res.EquityCurve), len(closes))
	}
	for i, p := range res.EquityCurve {
		if p.Value != 10000 {
			t.Errorf("equity point %d = %v, want flat 10000 while no position", i, p.Value)
		}
	}
}

// TestSimulateDipThenRally walks a hand-computable 70-day series through the
// full indicator → simulator pipeline: flat at 50, a dip to 45, a rally to
// 65, then flat. With a 5-bar return window and thresholds (-3, +8) the run
// buys once at 48 and sells once at 49.
func TestSimulateDipThenRally(t *testing.T) {
	var closes []float64
	for i := 0; i < 10; i++ {
		closes = append(closes, 50)
	}
	closes = append(closes, 49, 48, 47, 46, 45)
	for i := 0; i < 5; i++ {
		closes = append(closes, 45)
	}
	for i := 0; i < 10; i++ {
		closes = append(closes, 47+2*float64(i))
	}
	for i := 0; i < 40; i++ {
		closes = append(closes, 65)
	}
	if len(closes) != 70 {
		t.Fatalf("series length = %d, want 70", len(closes))
	}

	rows, err := indicator.Compute(barsFromCloses(closes), indicator.Config{
		ReturnWindow: 5, RSIWindow: 5, SMAWindow: 5,
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	res, err := Simulate(rows, params(-3, 8))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if len(res.Trades) != 2 {
		t.Fatalf("len(Trades) = %d, want 2 (one BUY, one SELL)", len(res.Trades))
	}
	buy, sell := res.Trades[0], res.Trades[1]
	if buy.Action != domain.ActionBuy || buy.Price != 48 {
		t.Errorf("first trade = %s @ %v, want BUY @ 48", buy.Action, buy.Price)
	}
	if sell.Action != domain.ActionSell || sell.Price != 49 {
		t.Errorf("second trade = %s @ %v, want SELL @ 49", sell.Action, sell.Price)
	}

	// Hand computation: 10000 / 48 shares sold at 49.
	want := 10000.0 / 48.0 * 49.0
	if math.Abs(res.TerminalValue-want) > 1e-9 {
		t.Errorf("TerminalValue = %v, want %v", res.TerminalValue, want)
	}
	if math.Abs(sell.PortfolioValue-want) > 1e-9 {
		t.Errorf("sell PortfolioValue = %v, want %v", sell.PortfolioValue, want)
	}
}

// TestSimulateRiseThenFall covers the mark-to-market terminal: a series that
// rises then falls triggers only the mean-reversion BUY on the way down, and
// the still-open position is valued at the final close, never liquidated.
func TestSimulateRiseThenFall(t *testing.T) {
	var closes []float64
	for i := 0; i < 40; i++ {
		closes = append(closes, 50+0.25*float64(i))
	}
	for i := 1; i <= 30; i++ {
		closes = append(closes, 59.75-0.5*float64(i))
	}

	rows, err := indicator.Compute(barsFromCloses(closes), indicator.Config{
		ReturnWindow: 5, RSIWindow: 5, SMAWindow: 5,
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	res, err := Simulate(rows, params(-3, 8))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	if len(res.Trades) != 1 || res.Trades[0].Action != domain.ActionBuy {
		t.Fatalf("trades = %+v, want exactly one BUY", res.Trades)
	}
	buy := res.Trades[0]
	finalClose := closes[len(closes)-1]
	want := 10000.0 / buy.Price * finalClose
	if math.Abs(res.TerminalValue-want) > 1e-9 {
		t.Errorf("TerminalValue = %v, want marked-to-market %v", res.TerminalValue, want)
	}
	if res.TerminalValue >= 10000 {
		t.Errorf("TerminalValue = %v, expected a loss on this series", res.TerminalValue)
	}
}

func TestBuyAndHold(t *testing.T) {
	closes := []float64{50, 55, 60, 45}
	rets := []float64{math.NaN(), 10, 20, -25}
	res, err := BuyAndHold(rowsWith(closes, rets), 10000)
	if err != nil {
		t.Fatalf("BuyAndHold: %v", err)
	}
	if len(res.EquityCurve) != len(closes) {
		t.Fatalf("len(EquityCurve) = %d, want %d", len(res.EquityCurve), len(closes))
	}
	if res.EquityCurve[0].Value != 10000 {
		t.Errorf("first equity point = %v, want 10000", res.EquityCurve[0].Value)
	}
	want := 10000.0 / 50.0 * 45.0
	if math.Abs(res.TerminalValue-want) > 1e-9 {
		t.Errorf("TerminalValue = %v, want %v", res.TerminalValue, want)
	}
	if len(res.Trades) != 1 || res.Trades[0].Action != domain.ActionBuy {
		t.Errorf("trades = %+v, want the single opening BUY", res.Trades)
	}
}

func TestBuyAndHoldEmpty(t *testing.T) {
	if _, err := BuyAndHold(nil, 10000); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("BuyAndHold(nil) error = %v, want ErrEmptySeries", err)
	}
	if _, err := BuyAndHold(rowsWith([]float64{50}, []float64{0}), 0); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("BuyAndHold with zero capital error = %v, want ErrInvalidParams", err)
	}
}

func barsFromCloses(closes []float64) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{Symbol: "TQQQ", Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}
