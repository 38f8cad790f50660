package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/qmoney/config"
	"github.com/alejandrodnm/qmoney/internal/adapters/notify"
	"github.com/alejandrodnm/qmoney/internal/adapters/storage"
	"github.com/alejandrodnm/qmoney/internal/adapters/tiingo"
	"github.com/alejandrodnm/qmoney/internal/adapters/tradefile"
	"github.com/alejandrodnm/qmoney/internal/application/portfolio"
	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/alejandrodnm/qmoney/internal/ports"
)

const usage = "usage: qmoney [flags] <trades.json> <endDate:yyyy-MM-dd>"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print returns as a table instead of JSON")
	symbols := flag.Bool("symbols", false, "print the trade symbols and exit (no API calls)")
	closing := flag.Bool("closing", false, "print symbols sorted by closing price on the end date")
	workers := flag.Int("workers", 0, "parallel price fetches (overrides config)")
	history := flag.Bool("history", false, "print the latest stored run and exit")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *workers > 0 {
		cfg.Portfolio.Workers = *workers
	}
	runID := uuid.NewString()
	setupLogger(cfg.Log, runID)

	notifier := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history {
		if err := printHistory(ctx, cfg, notifier); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	}

	file, endDate, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	trades, err := tradefile.LoadFile(file)
	if err != nil {
		slog.Error("failed to load trades", "err", err, "file", file)
		os.Exit(1)
	}

	if *symbols {
		if err := notifier.PrintSymbols(tradefile.Symbols(trades)); err != nil {
			slog.Error("print failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	slog.Info("qmoney starting",
		"config", *configPath,
		"file", file,
		"end_date", endDate.Format(domain.DateLayout),
		"trades", len(trades),
		"workers", cfg.Portfolio.Workers,
	)

	client := tiingo.NewClient(tiingo.Config{
		BaseURL:    cfg.API.BaseURL,
		Token:      cfg.API.Token,
		RatePerSec: cfg.API.RatePerSec,
		MaxRetries: cfg.API.MaxRetries,
		Timeout:    cfg.Timeout(),
	})
	manager := portfolio.New(portfolio.Config{
		Workers: cfg.Portfolio.Workers,
		RunID:   runID,
	}, client)

	if *closing {
		sorted, err := manager.SymbolsByClosingPrice(ctx, trades, endDate)
		if err != nil {
			slog.Error("closing price sort failed", "err", err)
			os.Exit(1)
		}
		if err := notifier.PrintSymbols(sorted); err != nil {
			slog.Error("print failed", "err", err)
			os.Exit(1)
		}
		return
	}

	report, err := manager.CalculateAnnualizedReturns(ctx, trades, endDate)
	if err != nil {
		slog.Error("annualized returns failed", "err", err)
		os.Exit(1)
	}

	if cfg.Storage.DSN != "" {
		if err := saveReport(ctx, cfg.Storage.DSN, report); err != nil {
			slog.Warn("storage error", "err", err, "dsn", cfg.Storage.DSN)
		}
	}

	if err := notifier.Notify(ctx, report); err != nil {
		slog.Error("failed to print returns", "err", err)
		os.Exit(1)
	}
}

// parseArgs valida los argumentos posicionales: archivo y fecha final.
func parseArgs(args []string) (string, time.Time, error) {
	if len(args) != 2 {
		return "", time.Time{}, fmt.Errorf("%w: want 2 arguments, got %d", domain.ErrArgument, len(args))
	}
	end, err := domain.ParseDate(args[1])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: end date %q: want yyyy-MM-dd", domain.ErrArgument, args[1])
	}
	return args[0], end, nil
}

func saveReport(ctx context.Context, dsn string, report domain.Report) error {
	store, err := storage.NewSQLiteStorage(dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveReport(ctx, report)
}

func printHistory(ctx context.Context, cfg *config.Config, notifier ports.Notifier) error {
	if cfg.Storage.DSN == "" {
		return errors.New("no storage.dsn configured")
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	return showLatest(ctx, store, notifier)
}

// showLatest imprime el último run guardado.
func showLatest(ctx context.Context, store ports.Storage, notifier ports.Notifier) error {
	report, ok, err := store.LatestReport(ctx)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("no stored runs")
		return nil
	}
	slog.Info("latest stored run",
		"stored_run_id", report.RunID,
		"end_date", report.EndDate.Format(domain.DateLayout),
		"created_at", report.CreatedAt,
	)
	return notifier.Notify(ctx, report)
}

func setupLogger(cfg config.LogConfig, runID string) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stderr: stdout queda reservado para el JSON de resultados
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("run_id", runID))
}
