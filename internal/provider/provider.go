package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Fields is the unordered set of descriptive fields a provider returns for a
// ticker. Keys differ across issuers; values are whatever the provider sent
// (float64, string, nil, ...).
type Fields map[string]any

// Dividend is a single cash distribution.
type Dividend struct {
	PayDate time.Time       `json:"pay_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// DividendSeries is a chronological list of dividends. Location is the
// exchange timezone the pay dates are expressed in.
type DividendSeries struct {
	Location *time.Location
	Events   []Dividend
}

// Len is safe on a nil series.
func (s *DividendSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Events)
}

// Gateway is a market-data provider keyed by a market-qualified ticker.
// A nil price from LatestClose means the provider has no trading data.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_gateway.go -source=provider.go Gateway
type Gateway interface {
	Name() string
	LatestClose(ctx context.Context, ticker string) (*float64, error)
	DescriptiveFields(ctx context.Context, ticker string) (Fields, error)
	DividendSeries(ctx context.Context, ticker string) (*DividendSeries, error)
}
