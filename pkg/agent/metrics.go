package agent

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records agent run and tool execution telemetry. A nil *Metrics
// is valid and records nothing, so tests and degraded setups can skip
// registration.
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	runRounds      prometheus.Histogram
	modelLatency   prometheus.Histogram
	toolsTotal     *prometheus.CounterVec
	toolLatency    *prometheus.HistogramVec
	duplicateEvent prometheus.Counter
}

// NewMetrics registers the agent metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_runs_total",
			Help: "Agent runs by outcome.",
		}, []string{"outcome"}),
		runRounds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agent_run_rounds",
			Help:    "Model rounds needed per run.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		modelLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agent_model_latency_seconds",
			Help:    "Latency of model completions.",
			Buckets: prometheus.DefBuckets,
		}),
		toolsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_tool_executions_total",
			Help: "Tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agent_tool_latency_seconds",
			Help:    "Latency of tool executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		duplicateEvent: factory.NewCounter(prometheus.CounterOpts{
			Name: "agent_duplicate_events_total",
			Help: "Slack events skipped by deduplication.",
		}),
	}
}

// RecordRun records a finished run with its outcome and round count.
func (m *Metrics) RecordRun(outcome string, rounds int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runRounds.Observe(float64(rounds))
}

// RecordModelCall records one model completion.
func (m *Metrics) RecordModelCall(duration time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.Observe(duration.Seconds())
}

// RecordToolExecution records one tool execution.
func (m *Metrics) RecordToolExecution(tool string, duration time.Duration, isError bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.toolsTotal.WithLabelValues(tool, outcome).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordDuplicateEvent records one deduplicated Slack event.
func (m *Metrics) RecordDuplicateEvent() {
	if m == nil {
		return
	}
	m.duplicateEvent.Inc()
}
