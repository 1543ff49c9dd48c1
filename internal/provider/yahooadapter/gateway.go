package yahooadapter

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"stockinfo/internal/config"
	"stockinfo/internal/httpx"
	"stockinfo/internal/provider/yahoo"
)

// NewGateway builds the Yahoo gateway used by every command from cfg.
func NewGateway(cfg config.Config, log zerolog.Logger) (*Adapter, error) {
	hc := httpx.New(cfg.YahooTimeout())
	hc.UserAgent = cfg.Yahoo.UserAgent
	hc.Log = log.With().Str("component", "httpx").Logger()

	client, err := yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(hc),
		yahoo.WithHeader(http.Header{"Accept-Language": []string{"en-US,en;q=0.9"}}),
	)
	if err != nil {
		return nil, fmt.Errorf("yahoo client: %w", err)
	}
	return New(Config{
		PriceRange:    cfg.Yahoo.PriceRange,
		DividendRange: cfg.Yahoo.DividendRange,
		Modules:       cfg.Yahoo.Modules,
	}, client, log), nil
}
