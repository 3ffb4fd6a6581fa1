// Package indicator derives rolling metrics from a daily bar series: the
// N-bar percentage return, the Wilder-smoothed RSI, and the simple moving
// average of closes. Computation is a pure function of its inputs; rows
// whose window has not yet filled carry NaN and are reported as undefined
// by the domain.IndicatorRow accessors.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"stockalert/internal/domain"
)

var (
	// ErrInvalidWindow is returned when a requested window size is < 1.
	ErrInvalidWindow = errors.New("indicator: window size must be at least 1")

	// ErrInsufficientHistory is returned when the bar series is shorter than
	// the largest requested window.
	ErrInsufficientHistory = errors.New("indicator: bar series shorter than largest window")
)

// Config holds the window sizes for one engine invocation.
type Config struct {
	ReturnWindow int // bars spanned by the rolling return
	RSIWindow    int // close-to-close changes averaged by the RSI
	SMAWindow    int // closes averaged by the SMA
}

// Validate checks the window sizes against the bar series length. It is run
// before any computation so the engine never partially computes and fails.
func (c Config) Validate(seriesLen int) error {
	for _, w := range []struct {
		name string
		size int
	}{
		{"return", c.ReturnWindow},
		{"rsi", c.RSIWindow},
		{"sma", c.SMAWindow},
	} {
		if w.size < 1 {
			return fmt.Errorf("%w: %s window %d", ErrInvalidWindow, w.name, w.size)
		}
	}
	largest := max(c.ReturnWindow, c.RSIWindow, c.SMAWindow)
	if seriesLen < largest {
		return fmt.Errorf("%w: have %d bars, largest window is %d", ErrInsufficientHistory, seriesLen, largest)
	}
	return nil
}

// Compute produces one IndicatorRow per bar, in the same order.
//
// The rolling return spans ReturnWindow bars: row t compares close[t] to
// close[t-(N-1)] and is defined from row N-1 on, so a series of exactly N
// bars yields exactly one defined value.
//
// The RSI uses Wilder's smoothing: the first value is the simple mean of the
// first M close-to-close gains and losses, after which
// avg = (prev*(M-1) + current) / M. It is defined from row M on (M changes
// need M+1 bars) and an all-gain window reads 100.
//
// The SMA is the mean of the trailing SMAWindow closes, defined from row
// SMAWindow-1 on.
func Compute(bars []domain.Bar, cfg Config) ([]domain.IndicatorRow, error) {
	if err := cfg.Validate(len(bars)); err != nil {
		return nil, err
	}

	rows := make([]domain.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = domain.IndicatorRow{
			Date:   b.Date,
			Open:   b.Open,
			Close:  b.Close,
			Return: math.NaN(),
			RSI:    math.NaN(),
			SMA:    math.NaN(),
		}
	}

	computeReturn(bars, cfg.ReturnWindow, rows)
	computeRSI(bars, cfg.RSIWindow, rows)
	computeSMA(bars, cfg.SMAWindow, rows)
	return rows, nil
}

func computeReturn(bars []domain.Bar, window int, rows []domain.IndicatorRow) {
	lag := window - 1
	for t := lag; t < len(bars); t++ {
		past := bars[t-lag].Close
		rows[t].Return = (bars[t].Close - past) / past * 100
	}
}

func computeRSI(bars []domain.Bar, window int, rows []domain.IndicatorRow) {
	if len(bars) <= window {
		return
	}

	// Seed with the simple mean of the first `window` changes.
	var avgGain, avgLoss float64
	for i := 1; i <= window; i++ {
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)
	rows[window].RSI = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the rest of the series.
	for t := window + 1; t < len(bars); t++ {
		delta := bars[t].Close - bars[t-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		rows[t].RSI = rsiValue(avgGain, avgLoss)
	}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func computeSMA(bars []domain.Bar, window int, rows []domain.IndicatorRow) {
	var sum float64
	for t, b := range bars {
		sum += b.Close
		if t >= window {
			sum -= bars[t-window].Close
		}
		if t >= window-1 {
			rows[t].SMA = sum / float64(window)
		}
	}
}
