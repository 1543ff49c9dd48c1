package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stockinfo/internal/attribute"
	"stockinfo/internal/market"
)

type Yahoo struct {
	BaseURL       string   `json:"base_url" yaml:"base_url" validate:"required,url"`
	TimeoutSec    int      `json:"timeout_sec" yaml:"timeout_sec" validate:"gt=0"`
	UserAgent     string   `json:"user_agent" yaml:"user_agent"`
	PriceRange    string   `json:"price_range" yaml:"price_range" validate:"required"`
	DividendRange string   `json:"dividend_range" yaml:"dividend_range" validate:"required"`
	Modules       []string `json:"modules" yaml:"modules" validate:"min=1,dive,required"`
}

type Market struct {
	DomesticSuffix string `json:"domestic_suffix" yaml:"domestic_suffix" validate:"required"`
	// Override forces one market for every code; empty infers per code.
	Override string `json:"override" yaml:"override"`
}

type Fetch struct {
	Concurrency int `json:"concurrency" yaml:"concurrency" validate:"gte=1,lte=64"`
	// TimeoutSec bounds one code's resolution; 0 disables the deadline.
	TimeoutSec int `json:"timeout_sec" yaml:"timeout_sec" validate:"gte=0"`
}

type Fallbacks struct {
	EPS []string `json:"eps" yaml:"eps" validate:"dive,required"`
	BPS []string `json:"bps" yaml:"bps" validate:"dive,required"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

type Server struct {
	Port              string `json:"port" yaml:"port" validate:"required,numeric"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec" validate:"gt=0"`
	MaxCodes          int    `json:"max_codes" yaml:"max_codes" validate:"gt=0"`
}

type Config struct {
	Yahoo     Yahoo     `json:"yahoo" yaml:"yahoo"`
	Market    Market    `json:"market" yaml:"market"`
	Fetch     Fetch     `json:"fetch" yaml:"fetch"`
	Fallbacks Fallbacks `json:"fallbacks" yaml:"fallbacks"`
	Log       Log       `json:"log" yaml:"log"`
	Server    Server    `json:"server" yaml:"server"`
}

func Default() Config {
	return Config{
		Yahoo: Yahoo{
			BaseURL:       "https://query2.finance.yahoo.com",
			TimeoutSec:    15,
			UserAgent:     "Mozilla/5.0 (compatible; stockinfo/1.0)",
			PriceRange:    "5d",
			DividendRange: "max",
			Modules:       []string{"defaultKeyStatistics", "financialData", "summaryDetail", "price"},
		},
		Market: Market{DomesticSuffix: market.DefaultDomesticSuffix},
		Fetch:  Fetch{Concurrency: 1},
		Fallbacks: Fallbacks{
			EPS: append([]string(nil), attribute.DefaultFallbacks[attribute.EPS]...),
			BPS: append([]string(nil), attribute.DefaultFallbacks[attribute.BPS]...),
		},
		Log:    Log{Level: "info"},
		Server: Server{Port: "8080", RequestTimeoutSec: 30, MaxCodes: 200},
	}
}

// Load reads a JSON or YAML (by extension) config from path. When path is
// empty, STOCKINFO_CONFIG is used, then config.json or config.yaml if present.
// A missing file yields defaults. A .env file in the working directory is
// loaded first; environment variables override file values.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("STOCKINFO_CONFIG")
	}
	if path == "" {
		for _, p := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}
	if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
		cfg.Yahoo.UserAgent = v
	}
	if v := os.Getenv("DOMESTIC_SUFFIX"); v != "" {
		cfg.Market.DomesticSuffix = v
	}
	if v := os.Getenv("MARKET"); v != "" {
		cfg.Market.Override = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("env LOG_PRETTY: %w", err)
		}
		cfg.Log.Pretty = b
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"YAHOO_TIMEOUT_SEC", &cfg.Yahoo.TimeoutSec},
		{"FETCH_CONCURRENCY", &cfg.Fetch.Concurrency},
		{"REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", e.key, err)
		}
		*e.dst = x
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}

// Validate checks field constraints and the market override token.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if _, err := c.MarketOverride(); err != nil {
		return fmt.Errorf("validate config: market.override: %w", err)
	}
	return nil
}

// MarketOverride parses Market.Override.
func (c Config) MarketOverride() (market.Market, error) {
	return market.Parse(c.Market.Override)
}

// FallbackTable returns the configured fallback keys per attribute.
func (c Config) FallbackTable() attribute.Fallbacks {
	return attribute.Fallbacks{
		attribute.EPS: c.Fallbacks.EPS,
		attribute.BPS: c.Fallbacks.BPS,
	}
}

func (c Config) YahooTimeout() time.Duration {
	return time.Duration(c.Yahoo.TimeoutSec) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}
