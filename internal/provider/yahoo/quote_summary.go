package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultModules are the quoteSummary modules that carry per-share figures.
var DefaultModules = []string{"defaultKeyStatistics", "financialData", "summaryDetail", "price"}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]any `json:"result"`
		Error  *APIError        `json:"error"`
	} `json:"quoteSummary"`
}

// GetQuoteSummary fetches the given modules for ticker and flattens them into
// a single field map. Formatted values ({"raw": x, "fmt": "..."}) contribute
// raw; empty objects contribute nil. When two modules carry the same key the
// first module in modules order with a non-nil value wins.
func (c *Client) GetQuoteSummary(ctx context.Context, ticker string, modules []string) (map[string]any, error) {
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}
	if len(modules) == 0 {
		modules = DefaultModules
	}
	q := url.Values{}
	q.Set("modules", strings.Join(modules, ","))

	var body quoteSummaryResponse
	if err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(ticker), q, &body); err != nil {
		return nil, err
	}
	if body.QuoteSummary.Error != nil {
		return nil, body.QuoteSummary.Error
	}

	fields := map[string]any{}
	if len(body.QuoteSummary.Result) == 0 {
		return fields, nil
	}
	result := body.QuoteSummary.Result[0]
	for _, module := range modules {
		raw, ok := result[module]
		if !ok || raw == nil {
			continue
		}
		data, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decoding %s: unexpected type %T", module, raw)
		}
		for key, v := range data {
			v = flatten(v)
			if cur, seen := fields[key]; seen && cur != nil {
				continue
			}
			fields[key] = v
		}
	}
	return fields, nil
}

// flatten unwraps Yahoo's formatted value objects.
func flatten(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if raw, ok := m["raw"]; ok {
		return raw
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
