package yahooadapter

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"stockinfo/internal/provider"
	"stockinfo/internal/provider/yahoo"
)

// Client is the subset of *yahoo.Client the adapter needs.
type Client interface {
	GetChart(ctx context.Context, ticker, rng string, withDividends bool) (*yahoo.Chart, error)
	GetQuoteSummary(ctx context.Context, ticker string, modules []string) (map[string]any, error)
}

type Config struct {
	Name string // display name, default: Yahoo
	// PriceRange is the chart range scanned for the latest close.
	PriceRange string
	// DividendRange is the chart range scanned for dividends.
	DividendRange string
	// Modules are the quoteSummary modules flattened into descriptive fields.
	Modules []string
}

// Adapter implements provider.Gateway on top of the Yahoo Finance client.
type Adapter struct {
	cfg    Config
	client Client
	log    zerolog.Logger
}

var _ provider.Gateway = (*Adapter)(nil)

func New(cfg Config, client Client, log zerolog.Logger) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.PriceRange == "" {
		cfg.PriceRange = "5d"
	}
	if cfg.DividendRange == "" {
		cfg.DividendRange = "max"
	}
	if len(cfg.Modules) == 0 {
		cfg.Modules = yahoo.DefaultModules
	}
	return &Adapter{cfg: cfg, client: client, log: log.With().Str("component", "yahooadapter").Logger()}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) LatestClose(ctx context.Context, ticker string) (*float64, error) {
	ch, err := a.client.GetChart(ctx, ticker, a.cfg.PriceRange, false)
	if err != nil {
		return nil, fmt.Errorf("%s chart %s: %w", a.cfg.Name, ticker, err)
	}
	return ch.LastClose(), nil
}

func (a *Adapter) DescriptiveFields(ctx context.Context, ticker string) (provider.Fields, error) {
	m, err := a.client.GetQuoteSummary(ctx, ticker, a.cfg.Modules)
	if err != nil {
		return nil, fmt.Errorf("%s quoteSummary %s: %w", a.cfg.Name, ticker, err)
	}
	return provider.Fields(m), nil
}

func (a *Adapter) DividendSeries(ctx context.Context, ticker string) (*provider.DividendSeries, error) {
	ch, err := a.client.GetChart(ctx, ticker, a.cfg.DividendRange, true)
	if err != nil {
		return nil, fmt.Errorf("%s dividends %s: %w", a.cfg.Name, ticker, err)
	}

	loc := time.UTC
	if ch.Timezone != "" {
		if l, err := time.LoadLocation(ch.Timezone); err == nil {
			loc = l
		} else {
			a.log.Debug().Str("ticker", ticker).Str("tz", ch.Timezone).Msg("unknown exchange timezone, using UTC")
		}
	}

	s := &provider.DividendSeries{Location: loc, Events: make([]provider.Dividend, 0, len(ch.Dividends))}
	for _, d := range ch.Dividends {
		s.Events = append(s.Events, provider.Dividend{
			PayDate: time.Unix(d.Date, 0).In(loc),
			Amount:  d.Amount,
		})
	}
	return s, nil
}
