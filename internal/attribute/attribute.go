// Package attribute resolves single per-security attributes through a
// provider.Gateway. Every call is isolated: a provider error or panic turns
// into an *UnavailableError for that attribute only.
package attribute

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockinfo/internal/provider"
)

// Name identifies a reportable attribute.
type Name string

const (
	Price     Name = "Price"
	EPS       Name = "EPS"
	BPS       Name = "BPS"
	Dividends Name = "Dividends"
	Yield     Name = "Yield"
)

// Fallbacks maps an attribute to the provider field names that may carry it,
// most authoritative first.
type Fallbacks map[Name][]string

// DefaultFallbacks is the key preference used when none is configured.
var DefaultFallbacks = Fallbacks{
	EPS: {"trailingEps", "epsTrailingTwelveMonths", "forwardEps"},
	BPS: {"bookValuePerShare", "bookValue"},
}

// ErrNoData means the provider answered but had nothing for the attribute.
var ErrNoData = errors.New("no data")

// UnavailableError reports an attribute that could not be resolved.
type UnavailableError struct {
	Attribute Name
	Ticker    string
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable for %s: %v", e.Attribute, e.Ticker, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Resolver resolves attributes for market-qualified tickers.
type Resolver struct {
	gw   provider.Gateway
	keys Fallbacks
}

// NewResolver returns a Resolver over gw. Attributes missing from keys use
// DefaultFallbacks.
func NewResolver(gw provider.Gateway, keys Fallbacks) *Resolver {
	merged := make(Fallbacks, len(DefaultFallbacks))
	for n, k := range DefaultFallbacks {
		merged[n] = k
	}
	for n, k := range keys {
		if len(k) > 0 {
			merged[n] = k
		}
	}
	return &Resolver{gw: gw, keys: merged}
}

// Keys returns the fallback list used for n.
func (r *Resolver) Keys(n Name) []string { return r.keys[n] }

// Price returns the latest daily close.
func (r *Resolver) Price(ctx context.Context, ticker string) (v *float64, err error) {
	defer guard(Price, ticker, &err)
	p, err := r.gw.LatestClose(ctx, ticker)
	if err != nil {
		return nil, unavailable(Price, ticker, err)
	}
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil, unavailable(Price, ticker, ErrNoData)
	}
	return p, nil
}

// EPS returns earnings per share using the EPS fallback keys.
func (r *Resolver) EPS(ctx context.Context, ticker string) (*float64, string, error) {
	return r.Field(ctx, EPS, ticker)
}

// BPS returns book value per share using the BPS fallback keys.
func (r *Resolver) BPS(ctx context.Context, ticker string) (*float64, string, error) {
	return r.Field(ctx, BPS, ticker)
}

// Field fetches the descriptive fields for ticker and tries the fallback
// keys of n in order. It also returns the key that matched.
func (r *Resolver) Field(ctx context.Context, n Name, ticker string) (v *float64, key string, err error) {
	defer guard(n, ticker, &err)
	keys := r.keys[n]
	if len(keys) == 0 {
		return nil, "", unavailable(n, ticker, fmt.Errorf("no fallback keys for %s", n))
	}
	fields, err := r.gw.DescriptiveFields(ctx, ticker)
	if err != nil {
		return nil, "", unavailable(n, ticker, err)
	}
	x, key, ok := Lookup(fields, keys)
	if !ok {
		return nil, "", unavailable(n, ticker, ErrNoData)
	}
	return &x, key, nil
}

// Dividends returns the dividend history sorted by pay date. A provider that
// reports no dividends yields an empty, non-nil series.
func (r *Resolver) Dividends(ctx context.Context, ticker string) (s *provider.DividendSeries, err error) {
	defer guard(Dividends, ticker, &err)
	raw, err := r.gw.DividendSeries(ctx, ticker)
	if err != nil {
		return nil, unavailable(Dividends, ticker, err)
	}
	out := &provider.DividendSeries{Location: time.UTC, Events: []provider.Dividend{}}
	if raw == nil {
		return out, nil
	}
	if raw.Location != nil {
		out.Location = raw.Location
	}
	out.Events = append(out.Events, raw.Events...)
	sort.SliceStable(out.Events, func(i, j int) bool { return out.Events[i].PayDate.Before(out.Events[j].PayDate) })
	return out, nil
}

// Lookup returns the value of the first key in keys that is present in
// fields with a numeric value. Non-numeric values are skipped.
func Lookup(fields provider.Fields, keys []string) (float64, string, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		if x, ok := toFloat(v); ok {
			return x, k, true
		}
	}
	return 0, "", false
}

func toFloat(v any) (float64, bool) {
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int64:
		x = float64(t)
	case int32:
		x = float64(t)
	case interface{ Float64() (float64, error) }: // json.Number
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func unavailable(n Name, ticker string, err error) *UnavailableError {
	return &UnavailableError{Attribute: n, Ticker: ticker, Err: err}
}

// guard turns a panic inside a provider call into an UnavailableError.
func guard(n Name, ticker string, err *error) {
	if rec := recover(); rec != nil {
		*err = unavailable(n, ticker, fmt.Errorf("provider panic: %v", rec))
	}
}
