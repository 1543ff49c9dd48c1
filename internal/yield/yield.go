// Package yield derives the trailing-twelve-month dividend yield.
package yield

import (
	"time"

	"github.com/shopspring/decimal"

	"stockinfo/internal/provider"
)

// WindowDays is the length of the trailing window.
const WindowDays = 365

var hundred = decimal.NewFromInt(100)

// Trailing returns the percentage yield of the dividends paid in the
// WindowDays before now, relative to price, rounded to 2 decimals.
//
// The result is nil when the series is nil or empty, or when price is nil or
// zero. A non-empty series with nothing inside the window yields 0.
// The window is evaluated in the series' timezone.
func Trailing(s *provider.DividendSeries, price *float64, now time.Time) *decimal.Decimal {
	if s.Len() == 0 || price == nil || *price == 0 {
		return nil
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	end := now.In(loc)
	start := end.AddDate(0, 0, -WindowDays)

	total := decimal.Zero
	for _, d := range s.Events {
		pd := d.PayDate.In(loc)
		if pd.After(start) && !pd.After(end) {
			total = total.Add(d.Amount)
		}
	}
	y := Round2(total.Mul(hundred).Div(decimal.NewFromFloat(*price)))
	return &y
}

// Round2 rounds to 2 decimals, halves away from zero.
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}
