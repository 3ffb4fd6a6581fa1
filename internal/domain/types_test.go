package domain

import (
	"math"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestValidateBars(t *testing.T) {
	bars := []Bar{
		{Symbol: "TQQQ", Date: day(0), Close: 50},
		{Symbol: "TQQQ", Date: day(1), Close: 51},
		{Symbol: "TQQQ", Date: day(4), Close: 52}, // weekend gap is fine
	}
	if err := ValidateBars(bars); err != nil {
		t.Fatalf("ValidateBars returned error for valid sequence: %v", err)
	}
}

func TestValidateBarsDuplicateDate(t *testing.T) {
	bars := []Bar{
		{Date: day(0), Close: 50},
		{Date: day(0), Close: 51},
	}
	if err := ValidateBars(bars); err == nil {
		t.Error("ValidateBars accepted duplicate dates")
	}
}

func TestValidateBarsOutOfOrder(t *testing.T) {
	bars := []Bar{
		{Date: day(2), Close: 50},
		{Date: day(1), Close: 51},
	}
	if err := ValidateBars(bars); err == nil {
		t.Error("ValidateBars accepted out-of-order dates")
	}
}

func TestIndicatorRowUndefinedFields(t *testing.T) {
	r := IndicatorRow{
		Date:   day(0),
		Open:   50,
		Close:  51,
		Return: math.NaN(),
		RSI:    math.NaN(),
		SMA:    math.NaN(),
	}
	if r.HasReturn() || r.HasRSI() || r.HasSMA() {
		t.Error("Has* accessors reported defined values for NaN fields")
	}
	if _, ok := r.AboveSMA(); ok {
		t.Error("AboveSMA ok = true with undefined SMA")
	}
	if got := r.SMAStatus(); got != "N/A" {
		t.Errorf("SMAStatus() = %q, want %q", got, "N/A")
	}
}

func TestSMAStatus(t *testing.T) {
	tests := []struct {
		open, sma float64
		want      string
	}{
		{51, 50, "ABOVE"},
		{49, 50, "BELOW"},
		{50, 50, "EQUAL"},
	}
	for _, tt := range tests {
		r := IndicatorRow{Open: tt.open, SMA: tt.sma}
		if got := r.SMAStatus(); got != tt.want {
			t.Errorf("SMAStatus() with open=%v sma=%v = %q, want %q", tt.open, tt.sma, got, tt.want)
		}
		above, ok := r.AboveSMA()
		if !ok {
			t.Errorf("AboveSMA ok = false with defined SMA")
		}
		if above != (tt.want == "ABOVE") {
			t.Errorf("AboveSMA() with open=%v sma=%v = %v", tt.open, tt.sma, above)
		}
	}
}
