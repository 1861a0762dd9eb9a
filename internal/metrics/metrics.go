package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_evaluations_enqueued_total",
		Help: "Evaluation jobs accepted by the dispatcher.",
	})

	EvaluationsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_evaluations_completed_total",
		Help: "Evaluation jobs reaching a terminal state.",
	}, []string{"status"})

	EvaluationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_evaluation_retries_total",
		Help: "Evaluation attempts that failed and were retried.",
	})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_evaluation_duration_seconds",
		Help:    "Wall time from enqueue to terminal state.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	SandboxRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_sandbox_runs_total",
		Help: "Coding submissions executed in the sandbox.",
	}, []string{"language"})

	RoundsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_rounds_completed_total",
		Help: "Rounds sealed, by kind and reason (exhausted or deadline).",
	}, []string{"kind", "reason"})
)
