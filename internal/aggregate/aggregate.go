package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stockinfo/internal/attribute"
	"stockinfo/internal/market"
	"stockinfo/internal/provider"
	"stockinfo/internal/yield"
)

// Request selects the attributes resolved for every code of a run.
type Request struct {
	Price     bool `json:"price"`
	EPS       bool `json:"eps"`
	BPS       bool `json:"bps"`
	Dividends bool `json:"dividends"`
	Yield     bool `json:"yield"`
}

// Any reports whether at least one attribute is requested.
func (r Request) Any() bool { return r.Price || r.EPS || r.BPS || r.Dividends || r.Yield }

// Scalars lists the requested single-valued attributes in report order.
func (r Request) Scalars() []attribute.Name {
	out := make([]attribute.Name, 0, 4)
	if r.Price {
		out = append(out, attribute.Price)
	}
	if r.EPS {
		out = append(out, attribute.EPS)
	}
	if r.BPS {
		out = append(out, attribute.BPS)
	}
	if r.Yield {
		out = append(out, attribute.Yield)
	}
	return out
}

// requestAliases maps attribute tokens to Request fields.
var requestAliases = map[string]attribute.Name{
	"price":     attribute.Price,
	"close":     attribute.Price,
	"eps":       attribute.EPS,
	"bps":       attribute.BPS,
	"div":       attribute.Dividends,
	"dividend":  attribute.Dividends,
	"dividends": attribute.Dividends,
	"yield":     attribute.Yield,
}

// ParseRequest builds a Request from tokens such as "price", "eps", "div".
// Tokens are case-insensitive; unknown tokens are an error.
func ParseRequest(tokens []string) (Request, error) {
	var r Request
	for _, tok := range tokens {
		t := strings.ToLower(strings.TrimSpace(tok))
		if t == "" {
			continue
		}
		n, ok := requestAliases[t]
		if !ok {
			return Request{}, fmt.Errorf("unknown attribute %q", tok)
		}
		switch n {
		case attribute.Price:
			r.Price = true
		case attribute.EPS:
			r.EPS = true
		case attribute.BPS:
			r.BPS = true
		case attribute.Dividends:
			r.Dividends = true
		case attribute.Yield:
			r.Yield = true
		}
	}
	return r, nil
}

// Record is the outcome for one code. Attributes that were not requested are
// always nil; requested attributes that are nil are unavailable, and Issues
// carries why.
type Record struct {
	Code    string
	Market  market.Market
	Ticker  string
	Request Request

	Price     *float64
	EPS       *float64
	BPS       *float64
	Dividends *provider.DividendSeries
	Yield     *decimal.Decimal

	// Sources holds the provider field each fallback attribute was read from.
	Sources map[attribute.Name]string
	// Issues are attribute-level failures (*attribute.UnavailableError).
	Issues []error
	// Err is set when the whole resolution of this code was aborted.
	Err error
}

// Value returns the provider-reported scalar n (Price, EPS or BPS). The
// derived Yield is a decimal and is read from r.Yield.
func (r *Record) Value(n attribute.Name) *float64 {
	switch n {
	case attribute.Price:
		return r.Price
	case attribute.EPS:
		return r.EPS
	case attribute.BPS:
		return r.BPS
	}
	return nil
}

// Batch is one Record per code, in the order the codes were given.
type Batch []Record

// ResolutionError reports a code whose resolution was aborted.
type ResolutionError struct {
	Code string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Code, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Config controls how codes are qualified and resolved.
type Config struct {
	// Override forces one market for every code of the run when set.
	Override market.Market
	// DomesticSuffix is appended to domestic codes, default market.DefaultDomesticSuffix.
	DomesticSuffix string
	// Fallbacks overrides the descriptive field keys per attribute.
	Fallbacks attribute.Fallbacks
	// Concurrency > 1 resolves that many codes in parallel.
	Concurrency int
	// Timeout bounds one code's resolution; 0 means no deadline.
	Timeout time.Duration
}

// Aggregator composes attribute results into Records.
type Aggregator struct {
	cfg Config
	res *attribute.Resolver
	log zerolog.Logger
	now func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock sets the evaluation instant used for the yield window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(cfg Config, gw provider.Gateway, log zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		cfg: cfg,
		res: attribute.NewResolver(gw, cfg.Fallbacks),
		log: log.With().Str("component", "aggregate").Str("provider", gw.Name()).Logger(),
		now: time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AggregateAll resolves every code and returns the records in input order.
// A failing code never stops the batch.
func (a *Aggregator) AggregateAll(ctx context.Context, codes []string, req Request) Batch {
	out := make(Batch, len(codes))
	if a.cfg.Concurrency <= 1 || len(codes) <= 1 {
		for i, code := range codes {
			out[i] = a.Aggregate(ctx, code, req)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			out[i] = a.Aggregate(ctx, code, req)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Aggregate resolves the requested attributes of one code. Price and the
// dividend history are fetched once and reused for the yield even when they
// are not requested themselves.
func (a *Aggregator) Aggregate(ctx context.Context, code string, req Request) (rec Record) {
	m := market.Resolve(code, a.cfg.Override)
	ticker := market.Qualify(code, m, a.cfg.DomesticSuffix)
	rec = Record{Code: code, Market: m, Ticker: ticker, Request: req}
	log := a.log.With().Str("code", code).Str("ticker", ticker).Logger()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			rec.Err = &ResolutionError{Code: code, Err: fmt.Errorf("panic: %v", p)}
		}
		if rec.Err != nil {
			log.Error().Err(rec.Err).Msg("code aborted")
		}
	}()

	note := func(err error) {
		rec.Issues = append(rec.Issues, err)
		ev := log.Warn().Err(err)
		var ue *attribute.UnavailableError
		if errors.As(err, &ue) {
			ev = ev.Str("attribute", string(ue.Attribute))
		}
		ev.Msg("attribute unavailable")
	}
	aborted := func() bool {
		if err := ctx.Err(); err != nil {
			rec.Err = &ResolutionError{Code: code, Err: err}
			return true
		}
		return false
	}
	source := func(n attribute.Name, key string) {
		if rec.Sources == nil {
			rec.Sources = map[attribute.Name]string{}
		}
		rec.Sources[n] = key
		log.Debug().Str("attribute", string(n)).Str("key", key).Msg("fallback key matched")
	}

	var (
		price    *float64
		priceErr error
		divs     *provider.DividendSeries
		divErr   error
	)

	if req.Price || req.Yield {
		if aborted() {
			return rec
		}
		price, priceErr = a.res.Price(ctx, ticker)
		if req.Price {
			rec.Price = price
			if priceErr != nil {
				note(priceErr)
			}
		}
	}

	if req.EPS {
		if aborted() {
			return rec
		}
		v, key, err := a.res.EPS(ctx, ticker)
		if err != nil {
			note(err)
		} else {
			rec.EPS = v
			source(attribute.EPS, key)
		}
	}

	if req.BPS {
		if aborted() {
			return rec
		}
		v, key, err := a.res.BPS(ctx, ticker)
		if err != nil {
			note(err)
		} else {
			rec.BPS = v
			source(attribute.BPS, key)
		}
	}

	if req.Dividends || req.Yield {
		if aborted() {
			return rec
		}
		divs, divErr = a.res.Dividends(ctx, ticker)
		if req.Dividends {
			rec.Dividends = divs
			if divErr != nil {
				note(divErr)
			}
		}
	}

	if req.Yield {
		rec.Yield = yield.Trailing(divs, price, a.now())
		if rec.Yield == nil {
			note(&attribute.UnavailableError{Attribute: attribute.Yield, Ticker: ticker, Err: yieldCause(price, priceErr, divs, divErr)})
		}
	}
	return rec
}

// yieldCause explains a nil yield.
func yieldCause(price *float64, priceErr error, divs *provider.DividendSeries, divErr error) error {
	switch {
	case priceErr != nil:
		return fmt.Errorf("price: %w", priceErr)
	case price == nil:
		return fmt.Errorf("price: %w", attribute.ErrNoData)
	case *price == 0:
		return errors.New("price is zero")
	case divErr != nil:
		return fmt.Errorf("dividends: %w", divErr)
	default:
		return fmt.Errorf("no dividend history: %w", attribute.ErrNoData)
	}
}
