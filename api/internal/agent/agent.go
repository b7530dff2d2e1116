// Package agent implements the stage agents of the content pipeline and the
// shared prompt/call/parse/validate/retry contract they run on.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"assessment-pipeline/api/internal/llm"
	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/types"
	"assessment-pipeline/api/internal/util"
)

// DefaultTemperature is the sampling temperature used for every stage.
const DefaultTemperature = 0.7

// Stage describes one agent: how to prompt for I and how to check the decoded O.
type Stage[I, O any] interface {
	Name() string
	Prompts(in I) (system, user string)
	// Check normalises and validates a decoded answer.
	Check(out *O) error
}

// Observer receives attempt and override events. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveAttempt(agent, outcome string)
	ObserveStageFailure(agent, kind string)
	ObserveOverride(computedPass bool)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(string, string)      {}
func (nopObserver) ObserveStageFailure(string, string) {}
func (nopObserver) ObserveOverride(bool)               {}

// Runner carries what every stage needs to talk to the model.
type Runner struct {
	client      llm.Client
	temperature float64
	callTimeout time.Duration
	repairJSON  bool
	log         *slog.Logger
	obs         Observer
}

type Option func(*Runner)

func WithTemperature(t float64) Option { return func(r *Runner) { r.temperature = t } }

// WithCallTimeout bounds each model call. Zero means no per-call deadline.
func WithCallTimeout(d time.Duration) Option { return func(r *Runner) { r.callTimeout = d } }

func WithRepairJSON(on bool) Option { return func(r *Runner) { r.repairJSON = on } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = l } }

func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.obs = o
		}
	}
}

func NewRunner(client llm.Client, opts ...Option) *Runner {
	r := &Runner{
		client:      client,
		temperature: DefaultTemperature,
		log:         logging.Discard(),
		obs:         nopObserver{},
	}
	for _, o := range opts {
		o(r)
	}
	r.log = logging.Component(r.log, "agent")
	return r
}

func (r *Runner) Client() llm.Client { return r.client }

// Execute runs stage s on in, retrying recoverable failures immediately up to
// maxRetries extra attempts. Cancellation of ctx ends the stage at once.
func Execute[I, O any](ctx context.Context, r *Runner, s Stage[I, O], in I, maxRetries int) Result[O] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	name := s.Name()
	total := maxRetries + 1
	system, user := s.Prompts(in)

	var last Result[O]
	for attempt := 1; attempt <= total; attempt++ {
		if err := ctx.Err(); err != nil {
			return terminal(r, name, last, KindTransport, attempt-1,
				fmt.Sprintf("Cancelled after %d attempts: %v", attempt-1, err))
		}
		r.log.Info("stage attempt", "agent", name, "attempt", attempt, "max_attempts", total)

		res := attemptOnce(ctx, r, s, system, user)
		if res.Status == StatusSuccess {
			r.obs.ObserveAttempt(name, "success")
			r.log.Info("stage succeeded", "agent", name, "attempt", attempt)
			res.Agent = name
			res.Attempts = attempt
			return res
		}

		last = res
		r.obs.ObserveAttempt(name, string(res.Kind))
		r.log.Warn("stage attempt failed", "agent", name, "attempt", attempt,
			"kind", res.Kind, "error", util.Truncate(res.Message, 500))

		if ctx.Err() != nil {
			return terminal(r, name, last, KindTransport, attempt,
				fmt.Sprintf("Cancelled after %d attempts. Last error: %s", attempt, res.Message))
		}
	}
	return terminal(r, name, last, KindRetriesExhausted, total,
		fmt.Sprintf("Failed after %d attempts. Last error: %s", total, last.Message))
}

func terminal[O any](r *Runner, name string, last Result[O], kind FailureKind, attempts int, msg string) Result[O] {
	r.obs.ObserveStageFailure(name, string(kind))
	r.log.Error("stage failed", "agent", name, "attempts", attempts, "kind", kind)
	return Result[O]{
		Status:   StatusTerminal,
		Agent:    name,
		Kind:     kind,
		LastKind: last.Kind,
		Message:  msg,
		Attempts: attempts,
	}
}

func attemptOnce[I, O any](ctx context.Context, r *Runner, s Stage[I, O], system, user string) Result[O] {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.callTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.callTimeout)
	}
	raw, err := r.client.Complete(callCtx, llm.Request{
		System:      system,
		User:        user,
		Temperature: r.temperature,
	})
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Recoverable[O](KindTransport, fmt.Sprintf("LLM call timed out after %s", r.callTimeout))
		}
		return Recoverable[O](KindTransport, "LLM call failed: "+err.Error())
	}

	var out O
	if err := util.DecodeJSONObject(raw, &out, r.repairJSON); err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			return Recoverable[O](KindSchemaViolation, "Schema validation failed: "+verr.Error())
		}
		return Recoverable[O](KindMalformedOutput, "Invalid JSON response: "+err.Error())
	}
	if err := s.Check(&out); err != nil {
		return Recoverable[O](KindSchemaViolation, "Schema validation failed: "+err.Error())
	}
	return Success(out)
}
