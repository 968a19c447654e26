// Package metrics exposes prometheus instrumentation for the chat pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	interactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_interactions_total",
			Help: "Total number of interactions by outcome.",
		},
		[]string{"outcome"},
	)

	stepDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_step_duration_seconds",
			Help:    "Pipeline step latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	resultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatbot_result_rows",
			Help:    "Rows returned by executed queries.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(interactionsTotal, stepDurationSeconds, resultRows)
}

// ObserveInteraction counts one finished interaction. The outcome is
// "answered" or the failure kind.
func ObserveInteraction(outcome string) {
	interactionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStep records how long one pipeline step took.
func ObserveStep(step string, d time.Duration) {
	stepDurationSeconds.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveResultRows records the row count of an executed query.
func ObserveResultRows(n int) {
	resultRows.Observe(float64(n))
}
