// Package pipeline drives one request through generate, review, refine and tag
// and records everything that happened in a RunArtifact.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"assessment-pipeline/api/internal/agent"
	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/metrics"
	"assessment-pipeline/api/internal/types"
)

type Generator interface {
	Generate(ctx context.Context, req types.Request) (types.Draft, error)
}

type Reviewer interface {
	Review(ctx context.Context, in agent.ReviewInput) (types.ReviewResult, error)
}

type Refiner interface {
	Refine(ctx context.Context, in agent.RefineInput) (types.Draft, error)
}

type Tagger interface {
	Tag(ctx context.Context, in agent.TagInput) (types.TagResult, error)
}

// Stages are the four agents a run goes through.
type Stages struct {
	Generator Generator
	Reviewer  Reviewer
	Refiner   Refiner
	Tagger    Tagger
}

// NewStages wires the concrete agents onto one runner.
func NewStages(r *agent.Runner, th agent.Thresholds, generationRetries int) Stages {
	return Stages{
		Generator: agent.NewGenerator(r, generationRetries),
		Reviewer:  agent.NewReviewer(r, th, 1),
		Refiner:   agent.NewRefiner(r, 1),
		Tagger:    agent.NewTagger(r, 1),
	}
}

type Config struct {
	MaxRefinements int
	Provider       string
	Model          string
}

// Metadata keys written on every artifact.
const (
	MetaProvider       = "provider"
	MetaModel          = "model"
	MetaMaxRefinements = "max_refinements"
	MetaFailedStage    = "failed_stage"
	MetaFailureKind    = "failure_kind"
)

const noFeedback = "No specific feedback available"

type Orchestrator struct {
	stages  Stages
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

func WithIDGenerator(f func() string) Option { return func(o *Orchestrator) { o.newID = f } }

func New(stages Stages, cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxRefinements < 0 {
		cfg.MaxRefinements = 0
	}
	o := &Orchestrator{
		stages: stages,
		cfg:    cfg,
		log:    logging.Discard(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logging.Component(o.log, "orchestrator")
	return o
}

// Run executes the pipeline for req. It never fails: every error, including a
// panic inside a stage, ends as a rejected artifact with timestamps closed out.
func (o *Orchestrator) Run(ctx context.Context, req types.Request, userID string) (art types.RunArtifact) {
	started := o.now()
	art = types.RunArtifact{
		RunID:      o.newID(),
		UserID:     userID,
		Input:      req,
		Attempts:   []types.AttemptRecord{},
		Final:      types.FinalResult{Status: types.StatusRejected},
		Timestamps: types.Timestamps{StartedAt: started},
		Metadata: map[string]string{
			MetaProvider:       o.cfg.Provider,
			MetaModel:          o.cfg.Model,
			MetaMaxRefinements: strconv.Itoa(o.cfg.MaxRefinements),
		},
	}
	log := o.log.With("run_id", art.RunID)
	done := o.metrics.RunStarted()

	defer func() {
		if p := recover(); p != nil {
			log.Error("run panicked", "panic", p)
			reject(&art, "", agent.KindUnexpected, fmt.Sprintf("Unexpected error: %v", p))
		}
		finished := o.now()
		elapsed := finished.Sub(started)
		if elapsed < 0 {
			elapsed = 0
		}
		dur := elapsed.Seconds()
		art.Timestamps.FinishedAt = &finished
		art.Timestamps.DurationSeconds = &dur
		done(string(art.Final.Status), elapsed)
		log.Info("run finished",
			"status", art.Final.Status,
			"attempts", len(art.Attempts),
			"duration_seconds", dur)
	}()

	log.Info("run started", "grade", req.Grade, "topic", req.Topic, "user_id", userID)
	if err := o.run(ctx, &art, log); err != nil {
		if se, ok := agent.AsStageError(err); ok {
			log.Error("pipeline failed", "agent", se.Agent, "kind", se.Kind, "error", se.Message)
			reject(&art, stageOf(se.Agent), se.Kind, "Pipeline error: "+se.Error())
		} else {
			log.Error("unexpected error", "error", err)
			reject(&art, "", agent.KindUnexpected, "Unexpected error: "+err.Error())
		}
	}
	return art
}

func (o *Orchestrator) run(ctx context.Context, art *types.RunArtifact, log *slog.Logger) error {
	req := art.Input

	draft, err := o.stages.Generator.Generate(ctx, req)
	if err != nil {
		return err
	}

	var (
		approved   *types.Draft
		lastReview *types.ReviewResult
	)
	for attempt := 1; attempt <= o.cfg.MaxRefinements+1; attempt++ {
		review, err := o.stages.Reviewer.Review(ctx, agent.ReviewInput{Request: req, Draft: draft})
		if err != nil {
			return err
		}
		rec := types.AttemptRecord{
			Attempt:   attempt,
			Draft:     draft,
			Review:    review,
			Timestamp: o.now(),
		}
		log.Info("draft reviewed", "attempt", attempt, "pass", review.Pass, "average", review.Scores.Average())

		if review.Pass {
			art.Attempts = append(art.Attempts, rec)
			content := draft
			approved = &content
			break
		}
		if attempt > o.cfg.MaxRefinements {
			art.Attempts = append(art.Attempts, rec)
			lastReview = &review
			break
		}

		refined, err := o.stages.Refiner.Refine(ctx, agent.RefineInput{
			Request:     req,
			Draft:       draft,
			Feedback:    review.Feedback,
			Attempt:     attempt,
			MaxAttempts: o.cfg.MaxRefinements,
		})
		if err != nil {
			return err
		}
		rec.Refined = &refined
		art.Attempts = append(art.Attempts, rec)
		log.Info("draft refined", "attempt", attempt)
		draft = refined
	}

	if approved == nil {
		art.Final = types.FinalResult{
			Status: types.StatusRejected,
			RejectionReason: fmt.Sprintf("Failed review after %d attempts. Final issues: %s",
				len(art.Attempts), SummarizeFeedback(lastReview)),
		}
		return nil
	}

	tags, err := o.stages.Tagger.Tag(ctx, agent.TagInput{Request: req, Draft: *approved})
	if err != nil {
		return err
	}
	art.Final = types.FinalResult{
		Status:  types.StatusApproved,
		Content: approved,
		Tags:    &tags,
	}
	return nil
}

func reject(art *types.RunArtifact, stage string, kind agent.FailureKind, reason string) {
	art.Final = types.FinalResult{Status: types.StatusRejected, RejectionReason: reason}
	if stage != "" {
		art.Metadata[MetaFailedStage] = stage
	}
	art.Metadata[MetaFailureKind] = string(kind)
}

func stageOf(agentName string) string {
	switch agentName {
	case agent.GeneratorName:
		return "generate"
	case agent.ReviewerName:
		return "review"
	case agent.RefinerName:
		return "refine"
	case agent.TaggerName:
		return "tag"
	}
	return strings.ToLower(agentName)
}

// SummarizeFeedback lists up to three critical issues, else the first three of
// any severity, as "field: issue" joined by "; ".
func SummarizeFeedback(review *types.ReviewResult) string {
	if review == nil || len(review.Feedback) == 0 {
		return noFeedback
	}
	picked := make([]types.Feedback, 0, 3)
	for _, fb := range review.Feedback {
		if fb.Severity == types.SeverityCritical {
			picked = append(picked, fb)
			if len(picked) == 3 {
				break
			}
		}
	}
	if len(picked) == 0 {
		picked = review.Feedback[:min(3, len(review.Feedback))]
	}
	parts := make([]string, len(picked))
	for i, fb := range picked {
		parts[i] = fb.Field + ": " + fb.Issue
	}
	return strings.Join(parts, "; ")
}
