// Command polypaper runs the paper-trading pipeline: one pass, a timed loop
// with the HTTP API, or a candidate snapshot fetch.
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

	"github.com/alanyoungcy/polypaper/internal/app"
	"github.com/alanyoungcy/polypaper/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.toml", "path to the TOML config")
	mode := flag.String("mode", "", "run mode, overriding the config: pass, loop or fetch")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", slog.String("path", *configPath), slog.String("error", err.Error()))
		return 1
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logger.Warn("unknown log_level, using info", slog.String("log_level", cfg.LogLevel))
		level.Set(slog.LevelInfo)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config rejected", slog.String("error", err.Error()))
		return 1
	}

	redacted := config.RedactedConfig(cfg)
	logger.Info("polypaper starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
		slog.String("ledger_backend", redacted.Ledger.Backend),
		slog.String("estimator", redacted.Estimator.Kind),
	)
	logger.Debug("effective config", slog.Any("config", redacted))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	defer a.Close()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("polypaper failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "polypaper: %v\n", err)
		return 1
	}
	logger.Info("polypaper stopped")
	return 0
}
