package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/shopspring/decimal"
)

// Chart is the subset of a v8 chart payload this client exposes.
type Chart struct {
	Symbol   string
	Currency string
	// Timezone is the IANA name of the exchange timezone, e.g. Asia/Tokyo.
	Timezone   string
	Timestamps []int64
	// Closes is aligned with Timestamps; Yahoo sends null for missing bars.
	Closes    []*float64
	Dividends []DividendEvent
}

// DividendEvent is one entry of events.dividends, date in unix seconds.
// Amount keeps the exact decimal text of the payload.
type DividendEvent struct {
	Amount decimal.Decimal `json:"amount"`
	Date   int64           `json:"date"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]DividendEvent `json:"dividends"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// GetChart fetches daily bars for ticker over rng (e.g. 5d, 1y, max).
// When withDividends is set the dividend events are requested too.
// An empty result set yields an empty Chart, not an error.
func (c *Client) GetChart(ctx context.Context, ticker, rng string, withDividends bool) (*Chart, error) {
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}
	q := url.Values{}
	q.Set("interval", "1d")
	if rng != "" {
		q.Set("range", rng)
	}
	if withDividends {
		q.Set("events", "div")
	}

	var body chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), q, &body); err != nil {
		return nil, err
	}
	if body.Chart.Error != nil {
		return nil, body.Chart.Error
	}

	out := &Chart{Symbol: ticker}
	if len(body.Chart.Result) == 0 {
		return out, nil
	}
	r := body.Chart.Result[0]
	out.Symbol = r.Meta.Symbol
	out.Currency = r.Meta.Currency
	out.Timezone = r.Meta.ExchangeTimezoneName
	out.Timestamps = r.Timestamp
	if len(r.Indicators.Quote) > 0 {
		out.Closes = r.Indicators.Quote[0].Close
	}
	for _, d := range r.Events.Dividends {
		out.Dividends = append(out.Dividends, d)
	}
	sort.Slice(out.Dividends, func(i, j int) bool { return out.Dividends[i].Date < out.Dividends[j].Date })
	return out, nil
}

// LastClose returns the most recent non-null close, or nil when there is none.
func (ch *Chart) LastClose() *float64 {
	if ch == nil {
		return nil
	}
	for i := len(ch.Closes) - 1; i >= 0; i-- {
		if v := ch.Closes[i]; v != nil {
			x := *v
			return &x
		}
	}
	return nil
}
