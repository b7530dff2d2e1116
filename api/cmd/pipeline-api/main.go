package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"assessment-pipeline/api/internal/bootstrap"
	"assessment-pipeline/api/internal/config"
	"assessment-pipeline/api/internal/handle"
	"assessment-pipeline/api/internal/httpserver"
	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pipeline-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	engines, err := bootstrap.Engines(cfg)
	if err != nil {
		return err
	}
	client, err := engines.GetEngine(cfg.LLMProvider)
	if err != nil {
		return err
	}

	repo, closeStore, err := bootstrap.Store(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close store", "error", err)
		}
	}()

	orch := bootstrap.Orchestrator(cfg.Pipeline, client, log, metrics.Default())
	log.Info("pipeline ready",
		"provider", client.Name(),
		"model", client.GetModel(),
		"max_refinements", cfg.Pipeline.MaxRefinementAttempts,
		"thresholds", cfg.Pipeline.PassThresholds,
		"min_average", cfg.Pipeline.MinAverageScore,
	)

	mux := http.NewServeMux()
	handle.New(orch, repo, cfg.RunTimeout, log).Register(mux)
	httpserver.WithMetrics(mux, prometheus.DefaultGatherer)

	srv := httpserver.New("0.0.0.0:"+cfg.Port, mux, log)
	return httpserver.Run(ctx, srv, log)
}
