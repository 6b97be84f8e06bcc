package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendant/simple-content-regen/internal/config"
	"github.com/tendant/simple-content-regen/internal/log"
	"github.com/tendant/simple-content-regen/internal/metrics"
	"github.com/tendant/simple-content-regen/internal/report"
	"github.com/tendant/simple-content-regen/internal/selection"
	"github.com/tendant/simple-content-regen/pkg/runner"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Environment (.env included) first, flags override
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "regenerate: %v\n", err)
		return report.ExitUsage
	}
	if err := config.ParseFlags(cfg, args, os.Stderr); err != nil {
		if errors.Is(err, config.ErrHelp) {
			return report.ExitOK
		}
		fmt.Fprintf(os.Stderr, "regenerate: %v\n", err)
		return report.ExitUsage
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Console: cfg.LogConsole})
	logger := log.WithComponent("regenerate")

	scope, err := selection.ParseScope(cfg.IDs, cfg.Only, cfg.OnlyMissing)
	if err != nil {
		logger.Error().Err(err).Msg("invalid selection")
		return report.ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewRecorder()
	r, cleanup, err := runner.Setup(ctx, cfg, log.Base(), recorder, nil)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialise regeneration")
		return report.ExitEngineFault
	}
	defer cleanup()

	rep, err := r.Regenerate(ctx, scope)
	if err != nil {
		logger.Error().Err(err).Msg("regeneration aborted")
		return report.ExitEngineFault
	}

	if err := report.WriteText(os.Stdout, rep); err != nil {
		logger.Warn().Err(err).Msg("failed to write summary")
	}
	exportMetrics(cfg, recorder)

	return report.ExitStatus(rep)
}

// exportMetrics pushes or writes the batch metrics when configured. Export
// failures never change the exit status.
func exportMetrics(cfg *config.Config, recorder *metrics.Recorder) {
	logger := log.WithComponent("metrics")

	if cfg.PushgatewayURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.Push(ctx, cfg.PushgatewayURL, cfg.MetricsJob); err != nil {
			logger.Warn().Err(err).Str("url", cfg.PushgatewayURL).Msg("metrics push failed")
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("metrics textfile write failed")
		}
	}
}
