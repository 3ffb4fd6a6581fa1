// Package optimize searches a Cartesian grid of (buy, sell) threshold pairs
// for the combination that maximizes terminal portfolio value. Each grid
// point is an independent simulation over the same indicator series, so the
// grid fans out across workers and reduces deterministically at the end.
package optimize

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"stockalert/internal/domain"
	"stockalert/internal/strategy"
)

// ErrEmptyGrid is returned when a threshold range yields no candidate values.
var ErrEmptyGrid = errors.New("optimize: threshold range yields no candidates")

// Range is an inclusive arithmetic progression of threshold percentages.
// Start == Stop yields a single candidate.
type Range struct {
	Start float64
	Stop  float64
	Step  float64
}

// Values enumerates the range ascending. A non-positive step or a stop below
// the start is a degenerate range.
func (r Range) Values() ([]float64, error) {
	if r.Step <= 0 {
		return nil, fmt.Errorf("%w: step %v", ErrEmptyGrid, r.Step)
	}
	if r.Stop < r.Start {
		return nil, fmt.Errorf("%w: stop %v below start %v", ErrEmptyGrid, r.Stop, r.Start)
	}
	// The epsilon keeps float accumulation from dropping the stop itself.
	n := int(math.Floor((r.Stop-r.Start)/r.Step+1e-9)) + 1
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = r.Start + float64(i)*r.Step
	}
	return vals, nil
}

// Request describes one grid search.
type Request struct {
	Buy             Range
	Sell            Range
	ReturnWindow    int
	StartingCapital float64
	Workers         int // ≤1 runs the grid sequentially
}

// Point summarizes one evaluated grid point.
type Point struct {
	BuyThreshold  float64
	SellThreshold float64
	TerminalValue float64
}

// Search runs one simulation per grid point and returns the winner plus a
// per-point summary in enumeration order (buy ascending, then sell
// ascending). Ties on terminal value go to the first pair in enumeration
// order; the parallel path reduces over a position-indexed slice, so worker
// scheduling cannot change the winner.
func Search(rows []domain.IndicatorRow, req Request) (*domain.OptimizationResult, []Point, error) {
	buys, err := req.Buy.Values()
	if err != nil {
		return nil, nil, fmt.Errorf("buy range: %w", err)
	}
	sells, err := req.Sell.Values()
	if err != nil {
		return nil, nil, fmt.Errorf("sell range: %w", err)
	}

	grid := make([]domain.StrategyParams, 0, len(buys)*len(sells))
	for _, b := range buys {
		for _, s := range sells {
			grid = append(grid, domain.StrategyParams{
				BuyThreshold:    b,
				SellThreshold:   s,
				ReturnWindow:    req.ReturnWindow,
				StartingCapital: req.StartingCapital,
			})
		}
	}

	results := make([]*strategy.Result, len(grid))
	errs := make([]error, len(grid))

	if req.Workers <= 1 {
		for i, p := range grid {
			results[i], errs[i] = strategy.Simulate(rows, p)
		}
	} else {
		idxCh := make(chan int, len(grid))
		for i := range grid {
			idxCh <- i
		}
		close(idxCh)

		var wg sync.WaitGroup
		for w := 0; w < min(req.Workers, len(grid)); w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idxCh {
					results[i], errs[i] = strategy.Simulate(rows, grid[i])
				}
			}()
		}
		wg.Wait()
	}

	points := make([]Point, len(grid))
	bestIdx := -1
	for i := range grid {
		if errs[i] != nil {
			return nil, nil, fmt.Errorf("grid point (%v, %v): %w",
				grid[i].BuyThreshold, grid[i].SellThreshold, errs[i])
		}
		points[i] = Point{
			BuyThreshold:  grid[i].BuyThreshold,
			SellThreshold: grid[i].SellThreshold,
			TerminalValue: results[i].TerminalValue,
		}
		// Strictly greater, so the first pair encountered wins ties.
		if bestIdx == -1 || results[i].TerminalValue > results[bestIdx].TerminalValue {
			bestIdx = i
		}
	}

	best := results[bestIdx]
	return &domain.OptimizationResult{
		Params:        grid[bestIdx],
		TerminalValue: best.TerminalValue,
		Trades:        best.Trades,
		EquityCurve:   best.EquityCurve,
	}, points, nil
}
