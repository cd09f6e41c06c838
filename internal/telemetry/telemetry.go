package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the debate-domain prometheus collectors. Register once and
// share; the /metrics endpoint exposes the default registry.
type Metrics struct {
	SessionsStarted     prometheus.Counter
	AssistantTurns      prometheus.Counter
	HallucinationEvents prometheus.Counter
	OppositionDrift     prometheus.Counter
	GenerationFailures  prometheus.Counter
	GenerationLatency   prometheus.Histogram
}

// New registers the debate metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counterpoint_sessions_started_total",
			Help: "Debate sessions created.",
		}),
		AssistantTurns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counterpoint_assistant_turns_total",
			Help: "Assistant turns generated across all sessions.",
		}),
		HallucinationEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counterpoint_hallucination_events_total",
			Help: "Assistant turns flagged as ungrounded.",
		}),
		OppositionDrift: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counterpoint_opposition_drift_total",
			Help: "Assistant turns that echoed the user stance.",
		}),
		GenerationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counterpoint_generation_failures_total",
			Help: "Generation calls that degraded to a diagnostic reply.",
		}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "counterpoint_generation_latency_seconds",
			Help:    "Latency of generation capability calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// NewNop returns unregistered collectors for tests, so parallel test
// packages do not fight over the default registry.
func NewNop() *Metrics {
	return &Metrics{
		SessionsStarted:     prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_sessions"}),
		AssistantTurns:      prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_turns"}),
		HallucinationEvents: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_hallucinations"}),
		OppositionDrift:     prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_drift"}),
		GenerationFailures:  prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_failures"}),
		GenerationLatency:   prometheus.NewHistogram(prometheus.HistogramOpts{Name: "nop_latency"}),
	}
}
