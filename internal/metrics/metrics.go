package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_predictions_total",
			Help: "Total number of success predictions computed",
		},
		[]string{"source"},
	)

	PredictionProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobtracker_prediction_probability",
			Help:    "Distribution of predicted success probabilities",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ApplicationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobtracker_applications_created_total",
			Help: "Total number of job applications recorded",
		},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_status_changes_total",
			Help: "Application status transitions by origin",
		},
		[]string{"origin", "status"},
	)

	EmailSyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_email_sync_cycles_total",
			Help: "Mailbox sync cycles by result",
		},
		[]string{"result"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_llm_calls_total",
			Help: "LLM calls by operation and result",
		},
		[]string{"operation", "result"},
	)
)

// ObservePrediction records one computed probability.
func ObservePrediction(source string, probability int) {
	PredictionsTotal.WithLabelValues(source).Inc()
	PredictionProbability.Observe(float64(probability))
}
