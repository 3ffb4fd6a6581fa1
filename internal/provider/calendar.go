package provider

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// MarketCalendar reports whether a given date is a trading day. The HTTP
// trigger consults it so a weekend or holiday invocation exits without
// fetching data or emailing.
type MarketCalendar interface {
	IsTradingDay(t time.Time) (bool, error)
}

// Compile-time interface check.
var _ MarketCalendar = (*AlpacaCalendar)(nil)

// AlpacaCalendar answers trading-day questions using the Alpaca trading
// calendar API (which covers NYSE holidays).
type AlpacaCalendar struct {
	client *alpaca.Client
	loc    *time.Location
}

// NewAlpacaCalendar creates a calendar client. baseURL may be empty for the
// SDK default.
func NewAlpacaCalendar(apiKey, apiSecret, baseURL string) (*AlpacaCalendar, error) {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("loading ET timezone: %w", err)
	}
	return &AlpacaCalendar{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		loc: et,
	}, nil
}

// IsTradingDay reports whether the exchange is open on t's date in Eastern
// time. Weekends are decided locally; holidays come from the calendar API.
func (c *AlpacaCalendar) IsTradingDay(t time.Time) (bool, error) {
	day := t.In(c.loc)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, nil
	}

	calendar, err := c.client.GetCalendar(alpaca.GetCalendarRequest{
		Start: day,
		End:   day,
	})
	if err != nil {
		return false, fmt.Errorf("GetCalendar: %w", err)
	}

	date := day.Format("2006-01-02")
	for _, d := range calendar {
		if d.Date == date {
			return true, nil
		}
	}
	return false, nil
}
