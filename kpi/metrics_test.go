package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/generic/store"
)

func TestMetrics_CountSubmissionsByOutcome(t *testing.T) {
	ctx := context.Background()
	k := KPI{ID: "videos", UnitType: UnitCount, Periodicity: WeeklyAndMonthly, TargetWeekly: Target(2), TargetMonthly: Target(8), OwnerID: "ana"}
	periods := generic.NewPeriodCalculator(generic.FixedClock{Date: generic.NewTimePoint(2024, time.March, 13)}, nil)

	tracker := NewTracker(store.NewMemory(), NewMemoryCatalog(k), periods, nil)
	tracker.Metrics = MustNewMetrics(prometheus.NewRegistry())

	sub := Submission{KPIID: "videos", PeriodType: generic.PeriodWeekly, Delivered: true, Value: "2"}
	_, err := tracker.SubmitProgress(ctx, Caller{ID: "ana"}, sub)
	require.NoError(t, err)
	_, err = tracker.SubmitProgress(ctx, Caller{ID: "intruder"}, sub)
	require.Error(t, err)

	m := tracker.Metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("weekly", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("weekly", "permission")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollups.WithLabelValues("weekly", "write")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeSubmission(generic.PeriodWeekly, nil, time.Millisecond)
		m.observeRollup(generic.PeriodDaily, "reconcile")
	})
}
