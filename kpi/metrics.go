package kpi

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp/kpi-engine/generic"
)

// Metrics exposes Prometheus collectors that report tracker activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	submissions    *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
	rollups        *prometheus.CounterVec
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Tests should pass a fresh prometheus.NewRegistry() to avoid duplicate
// registration panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	submissions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kpi_engine",
			Subsystem: "tracker",
			Name:      "submissions_total",
			Help:      "Progress submissions by period type and outcome.",
		},
		[]string{"period_type", "outcome"},
	)
	submitDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kpi_engine",
			Subsystem: "tracker",
			Name:      "submit_duration_seconds",
			Help:      "Time spent handling one submission, including the rollup.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"period_type"},
	)
	rollups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kpi_engine",
			Subsystem: "aggregation",
			Name:      "rollups_total",
			Help:      "Monthly rollup recomputes by source period type and trigger.",
		},
		[]string{"source", "trigger"},
	)

	reg.MustRegister(submissions, submitDuration, rollups)
	return &Metrics{
		submissions:    submissions,
		submitDuration: submitDuration,
		rollups:        rollups,
	}
}

func (m *Metrics) observeSubmission(pt generic.PeriodType, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(pt), outcomeOf(err)).Inc()
	m.submitDuration.WithLabelValues(string(pt)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRollup(source generic.PeriodType, trigger string) {
	if m == nil {
		return
	}
	m.rollups.WithLabelValues(string(source), trigger).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, generic.ErrDeadlinePassed):
		return "deadline"
	case errors.Is(err, generic.ErrPermission):
		return "permission"
	case errors.Is(err, generic.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}
