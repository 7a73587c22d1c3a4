package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Distribution outcomes
const (
	OutcomeCommitted  = "committed"
	OutcomeNoop       = "noop"
	OutcomeValidation = "validation"
	OutcomeStorage    = "storage"
)

var (
	DistributionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "referral",
			Name:      "distributions_total",
			Help:      "Referral distributions by outcome",
		},
		[]string{"outcome"},
	)

	DistributionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "invest",
			Subsystem: "referral",
			Name:      "distribution_duration_seconds",
			Help:      "Time spent in one referral distribution",
			Buckets:   prometheus.DefBuckets,
		},
	)

	CommissionAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "referral",
			Name:      "commission_amount_total",
			Help:      "Sum of commission amounts, paid or lost",
		},
		[]string{"kind", "level"},
	)

	NotifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "invest",
			Subsystem: "referral",
			Name:      "notify_failures_total",
			Help:      "Post-commit notifications that failed",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invest",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)
)

// ObserveDistribution records one finished distribution.
func ObserveDistribution(outcome string, start time.Time) {
	DistributionTotal.WithLabelValues(outcome).Inc()
	DistributionDuration.Observe(time.Since(start).Seconds())
}
