// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	OriginalityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghostwriter_originality_score",
			Help:    "Originality scores assigned to checked content",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	SearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghostwriter_search_fallbacks_total",
			Help: "Originality checks that scored without search results because the search failed",
		},
	)

	RewriteOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghostwriter_rewrite_outcomes_total",
			Help: "Rewrites by the strategy that produced the final text",
		},
		[]string{"strategy"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghostwriter_rate_limit_rejections_total",
			Help: "Generation requests rejected by the per-session rate limit",
		},
	)
)

// JobStarted marks a job active and returns a func that records its end.
// errorCode is empty for a completed job.
func JobStarted(taskType string) func(errorCode string) {
	timer := prometheus.NewTimer(WorkerJobDuration.WithLabelValues(taskType))
	WorkerJobsActive.WithLabelValues(taskType).Inc()

	return func(errorCode string) {
		timer.ObserveDuration()
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			return
		}
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
	}
}
