// Package metrics holds the Prometheus collectors shared by the audit pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "visibility"

// Registry is the registry every collector in this package is registered on.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RetryAttempts counts calls dispatched by the retry loop, by entry point.
	RetryAttempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retry_attempts_total",
		Help:      "Attempts dispatched by the retrying caller.",
	}, []string{"kind"})

	// Retries counts backoff sleeps.
	Retries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retries_total",
		Help:      "Backoff sleeps taken before a retry.",
	})

	// CircuitState reports each provider breaker's state (0 closed, 1 open, 2 half-open).
	CircuitState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_state",
		Help:      "Circuit breaker state per provider.",
	}, []string{"service"})

	// PoolTasks counts pool tasks by outcome.
	PoolTasks = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_tasks_total",
		Help:      "Tasks run by the bounded worker pool.",
	}, []string{"outcome"})

	// PoolInFlight is the number of tasks currently running.
	PoolInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_in_flight",
		Help:      "Pool tasks currently executing.",
	})

	// StageDuration observes stage wall time, labelled by stage and whether
	// the checkpoint supplied the result.
	StageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage duration.",
		Buckets:   []float64{0.01, 0.1, 1, 10, 60, 300, 900, 1800, 3600},
	}, []string{"stage", "source"})

	// CompletionFixes counts structured completions that needed a corrective re-prompt.
	CompletionFixes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_fix_attempts_total",
		Help:      "Re-prompts issued after a structured completion failed validation.",
	}, []string{"model"})

	// SearchResults counts search collaborator outcomes per provider.
	SearchResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_results_total",
		Help:      "Search calls by provider and outcome.",
	}, []string{"provider", "outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
