package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stockinfo/internal/aggregate"
	"stockinfo/internal/codes"
	"stockinfo/internal/config"
	"stockinfo/internal/logger"
	"stockinfo/internal/market"
	"stockinfo/internal/provider"
	"stockinfo/internal/provider/yahooadapter"
	"stockinfo/internal/report"
)

const usage = `usage: fetch [flags] CODE...

Fetches price, EPS, BPS, dividend history and trailing dividend yield
for domestic (digits, e.g. 7203) and foreign (e.g. AAPL) codes.

examples:
  fetch 7203 6758 --price --eps
  fetch 5016 --div
  fetch --file codes.txt --price --eps --bps --csv out.csv

flags:
`

type options struct {
	configPath  string
	file        string
	market      string
	csvPath     string
	jsonPath    string
	logLevel    string
	pretty      bool
	concurrency int
	timeoutSec  int
	req         aggregate.Request
	codes       []string
	set         map[string]bool
}

// parseArgs accepts flags before, after and between codes.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.configPath, "config", "", "path to config.json or config.yaml (optional)")
	fs.StringVar(&o.file, "file", "", "text file of codes, newline or comma separated (- for stdin)")
	fs.StringVar(&o.market, "market", "", "force market for every code: domestic|foreign (jp, tse, us, ...)")
	fs.BoolVar(&o.req.Price, "price", false, "fetch latest close")
	fs.BoolVar(&o.req.EPS, "eps", false, "fetch EPS")
	fs.BoolVar(&o.req.BPS, "bps", false, "fetch BPS")
	fs.BoolVar(&o.req.Dividends, "div", false, "fetch dividend history")
	fs.BoolVar(&o.req.Yield, "yield", false, "compute trailing 12 month dividend yield")
	fs.StringVar(&o.csvPath, "csv", "", "write Code, Market and requested scalars to this CSV file")
	fs.StringVar(&o.jsonPath, "json", "", "write the full report, dividends included, to this JSON file")
	fs.IntVar(&o.concurrency, "concurrency", 0, "codes resolved in parallel (default from config)")
	fs.IntVar(&o.timeoutSec, "timeout", 0, "per code deadline in seconds, 0 for none (default from config)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug|info|warn|error")
	fs.BoolVar(&o.pretty, "log-pretty", false, "human readable logs")

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return o, err
		}
		if fs.NArg() == 0 {
			break
		}
		o.codes = append(o.codes, fs.Arg(0))
		rest = fs.Args()[1:]
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

type gatewayFactory func(cfg config.Config, log zerolog.Logger) (provider.Gateway, error)

func newYahooGateway(cfg config.Config, log zerolog.Logger) (provider.Gateway, error) {
	gw, err := yahooadapter.NewGateway(cfg, log)
	if err != nil {
		return nil, err
	}
	return gw, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, newYahooGateway))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, newGateway gatewayFactory) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if !o.req.Any() {
		fmt.Fprintln(stderr, "at least one of --price, --eps, --bps, --div or --yield is required")
		return 2
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if o.set["market"] {
		cfg.Market.Override = o.market
	}
	if o.set["concurrency"] {
		cfg.Fetch.Concurrency = o.concurrency
	}
	if o.set["timeout"] {
		cfg.Fetch.TimeoutSec = o.timeoutSec
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	if o.set["log-pretty"] {
		cfg.Log.Pretty = o.pretty
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	override, _ := cfg.MarketOverride()

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: stderr}).
		With().Str("run_id", uuid.NewString()).Logger()

	list, err := readCodes(o, stdin)
	if err != nil {
		if errors.Is(err, codes.ErrEmptyInput) {
			log.Error().Msg("no valid codes given")
		} else {
			log.Error().Err(err).Msg("read codes")
		}
		return 1
	}

	gw, err := newGateway(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("gateway")
		return 1
	}

	agg := aggregate.New(aggregate.Config{
		Override:       override,
		DomesticSuffix: cfg.Market.DomesticSuffix,
		Fallbacks:      cfg.FallbackTable(),
		Concurrency:    cfg.Fetch.Concurrency,
		Timeout:        cfg.FetchTimeout(),
	}, gw, log)

	log.Info().Int("codes", len(list)).Str("market", marketLabel(override)).Msg("fetch started")
	start := time.Now()
	batch := agg.AggregateAll(ctx, list, o.req)
	log.Info().Dur("elapsed", time.Since(start)).Msg("fetch finished")

	if err := report.Console(stdout, batch); err != nil {
		log.Error().Err(err).Msg("console report")
		return 1
	}

	code := 0
	if o.csvPath != "" {
		if err := report.SaveCSV(o.csvPath, batch, o.req); err != nil {
			log.Error().Err(err).Str("path", o.csvPath).Msg("csv export failed")
			code = 1
		} else {
			fmt.Fprintf(stdout, "\nCSV saved: %s\n", o.csvPath)
		}
	}
	if o.jsonPath != "" {
		if err := report.SaveJSON(o.jsonPath, batch, time.Now()); err != nil {
			log.Error().Err(err).Str("path", o.jsonPath).Msg("json export failed")
			code = 1
		} else {
			fmt.Fprintf(stdout, "\nJSON saved: %s\n", o.jsonPath)
		}
	}
	return code
}

func readCodes(o options, stdin io.Reader) ([]string, error) {
	if o.file == "" {
		return codes.Normalize(o.codes, nil)
	}
	if o.file == "-" {
		return codes.Normalize(o.codes, stdin)
	}
	f, err := os.Open(o.file)
	if err != nil {
		return nil, fmt.Errorf("open codes file: %w", err)
	}
	defer f.Close()
	return codes.Normalize(o.codes, f)
}

func marketLabel(m market.Market) string {
	if m == market.Unset {
		return "auto"
	}
	return m.String()
}
