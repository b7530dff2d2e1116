// Package bootstrap turns a loaded config into the running pieces shared by
// the HTTP and bot binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"assessment-pipeline/api/internal/agent"
	"assessment-pipeline/api/internal/config"
	"assessment-pipeline/api/internal/llm"
	"assessment-pipeline/api/internal/llm/deepseek"
	"assessment-pipeline/api/internal/llm/gemini"
	"assessment-pipeline/api/internal/llm/openai"
	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/metrics"
	"assessment-pipeline/api/internal/pipeline"
	"assessment-pipeline/api/internal/store"
)

// Engines builds an adapter for every provider that has an API key.
func Engines(cfg *config.Config) (llm.Engines, error) {
	var e llm.Engines
	if cfg.OpenAIAPIKey != "" {
		c, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return e, fmt.Errorf("openai: %w", err)
		}
		e.OpenAI = c
	}
	if cfg.GeminiAPIKey != "" {
		c, err := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return e, fmt.Errorf("gemini: %w", err)
		}
		e.Gemini = c
	}
	if cfg.DeepSeekKey != "" {
		c, err := deepseek.New(cfg.DeepSeekKey, cfg.DeepSeekModel, "")
		if err != nil {
			return e, fmt.Errorf("deepseek: %w", err)
		}
		e.DeepSeek = c
	}
	return e, nil
}

// Orchestrator wires the four agents on client using the pipeline settings.
// m may be nil.
func Orchestrator(p config.Pipeline, client llm.Client, log *slog.Logger, m *metrics.Metrics) *pipeline.Orchestrator {
	runnerOpts := []agent.Option{
		agent.WithTemperature(p.Temperature),
		agent.WithCallTimeout(p.LLMCallTimeout),
		agent.WithRepairJSON(p.RepairJSON),
		agent.WithLogger(log),
	}
	if m != nil {
		runnerOpts = append(runnerOpts, agent.WithObserver(m))
	}
	runner := agent.NewRunner(client, runnerOpts...)

	th := agent.Thresholds{PerDimension: p.PassThresholds, MinAverage: p.MinAverageScore}
	stages := pipeline.NewStages(runner, th, p.MaxGenerationRetries)
	return pipeline.New(stages, pipeline.Config{
		MaxRefinements: p.MaxRefinementAttempts,
		Provider:       client.Name(),
		Model:          client.GetModel(),
	}, pipeline.WithLogger(log), pipeline.WithMetrics(m))
}

// Store opens Postgres when DATABASE_URL is set and the JSON file store
// otherwise, behind the artifact cache. closeFn releases the backing store.
func Store(ctx context.Context, cfg *config.Config, log *slog.Logger) (repo store.Repository, closeFn func() error, err error) {
	log = logging.Component(log, "store")
	var backing store.Repository
	closeFn = func() error { return nil }

	if cfg.DatabaseURL != "" {
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresRepo(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info("postgres connected", "dsn", store.SafeDSNSummary(cfg.DatabaseURL))
		backing, closeFn = pg, db.Close
	} else {
		fr, err := store.OpenFile(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("file store opened", "path", cfg.StoragePath)
		backing = fr
	}

	repo, err = store.NewCached(backing, cfg.ArtifactCacheSize)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return repo, closeFn, nil
}
