package kpi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

func TestDashboard_SummarisesByOwner(t *testing.T) {
	// GIVEN: Ana owns videos (on target this week) and nps (nothing filed),
	//        Marcia owns sales (nothing filed), one KPI has no owner
	// WHEN: Building the dashboard
	// THEN: One of four KPIs is completed; owners are ranked by average

	ctx := context.Background()
	orphan := kpi.KPI{ID: "orphan", Name: "Orphan", UnitType: kpi.UnitCount, Periodicity: kpi.Weekly, TargetWeekly: kpi.Target(1)}
	f := newFixture(wednesday, videosKPI(), npsKPI(), salesKPI(), orphan)
	f.tracker.Staff = kpi.NewMemoryStaff(kpi.Staff{ID: "ana", Name: "Ana"}, kpi.Staff{ID: "marcia", Name: "Marcia"})

	_, err := f.tracker.SubmitProgress(ctx, ana, kpi.Submission{
		KPIID: "videos", PeriodType: generic.PeriodWeekly, Delivered: true, Value: "2",
	})
	require.NoError(t, err)

	d, err := f.tracker.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, d.TotalKPIs)
	assert.Equal(t, 1, d.Completed)
	assert.Equal(t, 3, d.Pending)
	assert.Equal(t, 25, d.CompletionRate)
	assert.Len(t, d.KPIs, 4)

	require.Len(t, d.Owners, 2)
	assert.Equal(t, kpi.OwnerSummary{OwnerID: "ana", Name: "Ana", Total: 2, Completed: 1, AveragePercent: 100}, d.Owners[0])
	assert.Equal(t, kpi.OwnerSummary{OwnerID: "marcia", Name: "Marcia", Total: 1}, d.Owners[1])
}

func TestDashboard_AverageIgnoresNeutralKPIsAndRounds(t *testing.T) {
	ctx := context.Background()
	calls := kpi.KPI{ID: "calls", Name: "Calls", UnitType: kpi.UnitCount, Periodicity: kpi.Weekly, TargetWeekly: kpi.Target(3), OwnerID: "ana"}
	f := newFixture(wednesday, videosKPI(), calls, npsKPI())

	// videos 1/2 = 50%, calls 2/3 = 67%, nps neutral
	for id, v := range map[generic.KPIID]string{"videos": "1", "calls": "2"} {
		_, err := f.tracker.SubmitProgress(ctx, ana, kpi.Submission{
			KPIID: id, PeriodType: generic.PeriodWeekly, Delivered: true, Value: v,
		})
		require.NoError(t, err)
	}

	d, err := f.tracker.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, d.Owners, 1)

	assert.Equal(t, "ana", d.Owners[0].Name, "falls back to the owner id without a staff directory")
	assert.Equal(t, 3, d.Owners[0].Total)
	assert.Equal(t, 0, d.Owners[0].Completed)
	assert.Equal(t, 59, d.Owners[0].AveragePercent) // (50+67)/2 = 58.5
}

func TestDashboard_ZeroTargetGreenIsNotCompleted(t *testing.T) {
	ctx := context.Background()
	free := kpi.KPI{ID: "free", Name: "Free", UnitType: kpi.UnitCount, Periodicity: kpi.Weekly, TargetWeekly: kpi.Target(0), OwnerID: "ana"}
	f := newFixture(wednesday, free)

	_, err := f.tracker.SubmitProgress(ctx, ana, kpi.Submission{
		KPIID: "free", PeriodType: generic.PeriodWeekly, Delivered: true, Value: "5",
	})
	require.NoError(t, err)

	d, err := f.tracker.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, kpi.LevelGreen, d.KPIs[0].Performance.Level)
	assert.Equal(t, 0, d.Completed)
}

func TestDashboard_EmptyCatalog(t *testing.T) {
	d, err := newFixture(wednesday).tracker.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, d.TotalKPIs)
	assert.Equal(t, 0, d.CompletionRate)
	assert.Empty(t, d.Owners)
}
