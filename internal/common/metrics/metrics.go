// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GateClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_gate_classifications_total",
			Help: "Total number of queries classified by the domain gate",
		},
		[]string{"classification"},
	)

	ArbiterDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_arbiter_decisions_total",
			Help: "Total number of replies chosen by the response arbiter",
		},
		[]string{"provenance"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_search_duration_seconds",
			Help:    "Duration of knowledge-corpus searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index"},
	)

	SearchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_search_failures_total",
			Help: "Total number of searches that fell back to an empty candidate set",
		},
		[]string{"index", "error_code"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_cache_lookups_total",
			Help: "Session cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	AgentIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_agent_iterations",
			Help:    "Reasoning iterations used per turn",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	TurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of conversational turns by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_sessions_active",
			Help: "Number of live conversation sessions",
		},
	)
)
