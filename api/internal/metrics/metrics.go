// Package metrics exposes Prometheus collectors for pipeline runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	stageAttempts *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	overrides     *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runsActive    prometheus.Gauge
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNewMetrics registers the collectors with reg and panics on a registration error.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		stageAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Subsystem: "stage",
			Name:      "attempts_total",
			Help:      "LLM attempts per stage agent, by outcome.",
		}, []string{"agent", "outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Subsystem: "stage",
			Name:      "failures_total",
			Help:      "Stage executions that ended terminally.",
		}, []string{"agent", "kind"}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Subsystem: "review",
			Name:      "overrides_total",
			Help:      "Review decisions flipped by threshold reconciliation.",
		}, []string{"to"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Finished pipeline runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assessment",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a pipeline run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"status"}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assessment",
			Subsystem: "pipeline",
			Name:      "runs_active",
			Help:      "Runs currently executing.",
		}),
	}
	reg.MustRegister(m.stageAttempts, m.stageFailures, m.overrides, m.runs, m.runDuration, m.runsActive)
	return m
}

// ObserveAttempt records one stage attempt. outcome is "success" or a failure kind.
func (m *Metrics) ObserveAttempt(agent, outcome string) {
	if m == nil {
		return
	}
	m.stageAttempts.WithLabelValues(agent, outcome).Inc()
}

func (m *Metrics) ObserveStageFailure(agent, kind string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(agent, kind).Inc()
}

// ObserveOverride records a reconciliation flip to the computed decision.
func (m *Metrics) ObserveOverride(computedPass bool) {
	if m == nil {
		return
	}
	to := "fail"
	if computedPass {
		to = "pass"
	}
	m.overrides.WithLabelValues(to).Inc()
}

// RunStarted marks a run active and returns the func that closes it out.
func (m *Metrics) RunStarted() func(status string, d time.Duration) {
	if m == nil {
		return func(string, time.Duration) {}
	}
	m.runsActive.Inc()
	return func(status string, d time.Duration) {
		m.runsActive.Dec()
		m.runs.WithLabelValues(status).Inc()
		m.runDuration.WithLabelValues(status).Observe(d.Seconds())
	}
}
