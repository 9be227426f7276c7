package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func weekKey(pk string) generic.ProgressKey {
	return generic.ProgressKey{KPIID: "videos", PeriodType: generic.PeriodWeekly, PeriodKey: pk}
}

// =============================================================================
// PROGRESS
// =============================================================================

func TestStore_UpsertKeepsOneRowPerKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, weekKey("2024-W10"), generic.Progress{Delivered: true, Value: "1"}))
	require.NoError(t, store.Upsert(ctx, weekKey("2024-W10"), generic.Progress{Delivered: false, Value: "", Comment: "holiday"}))

	p, ok, err := store.Get(ctx, weekKey("2024-W10"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, generic.Progress{Comment: "holiday"}, p)

	recs, err := store.ListByKPIAndType(ctx, "videos", generic.PeriodWeekly)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.False(t, recs[0].UpdatedAt.IsZero())
}

func TestStore_GetMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, ok, err := store.Get(ctx, weekKey("2024-W01"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Upsert(ctx, weekKey("2024-W01"), generic.Progress{Delivered: true}))
	require.NoError(t, store.Delete(ctx, weekKey("2024-W01")))
	require.NoError(t, store.Delete(ctx, weekKey("2024-W01")), "deleting twice is not an error")

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_ListByKPIAndTypeOrdersByKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for _, pk := range []string{"2024-W11", "2023-W52", "2024-W02"} {
		require.NoError(t, store.Upsert(ctx, weekKey(pk), generic.Progress{Delivered: true}))
	}

	recs, err := store.ListByKPIAndType(ctx, "videos", generic.PeriodWeekly)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "2023-W52", recs[0].Key.PeriodKey)
	assert.Equal(t, "2024-W11", recs[2].Key.PeriodKey)
}

// =============================================================================
// SUBMISSION LOG
// =============================================================================

func TestStore_EntriesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendEntry(ctx, generic.SubmissionEntry{
			ID:          generic.EntryID(fmt.Sprintf("e%d", i)),
			KPIID:       "videos",
			PeriodType:  generic.PeriodWeekly,
			PeriodKey:   "2024-W11",
			Delivered:   true,
			Value:       fmt.Sprint(i),
			StartDate:   generic.NewTimePoint(2024, time.March, 9),
			EndDate:     generic.NewTimePoint(2024, time.March, 15),
			DueDate:     generic.NewTimePoint(2024, time.March, 16),
			SubmittedAt: base.Add(time.Duration(i) * time.Second),
			SubmittedBy: "ana",
		}))
	}
	require.NoError(t, store.AppendEntry(ctx, generic.SubmissionEntry{
		ID: "daily", KPIID: "sales", PeriodType: generic.PeriodDaily, PeriodKey: "2024-03-13", SubmittedAt: base,
	}))

	entries, err := store.Entries(ctx, generic.EntryFilter{KPIID: "videos", Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, generic.EntryID("e2"), entries[0].ID)
	assert.Equal(t, "2024-03-16", entries[0].DueDate.String())
	assert.True(t, entries[0].SubmittedAt.Equal(base.Add(2*time.Second)))

	daily, err := store.Entries(ctx, generic.EntryFilter{PeriodType: generic.PeriodDaily})
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.True(t, daily[0].DueDate.IsZero())
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTxRollsBack(t *testing.T) {
	// GIVEN: A transaction that upserts and logs, then fails
	// THEN: Nothing is persisted

	ctx := context.Background()
	store := newTestStore(t)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx generic.Store) error {
		require.NoError(t, tx.Upsert(ctx, weekKey("2024-W10"), generic.Progress{Delivered: true, Value: "2"}))
		require.NoError(t, tx.AppendEntry(ctx, generic.SubmissionEntry{ID: "e1", KPIID: "videos", SubmittedAt: time.Now()}))

		// Reads inside the transaction see its own writes
		p, ok, err := tx.Get(ctx, weekKey("2024-W10"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "2", p.Value)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, err := store.Get(ctx, weekKey("2024-W10"))
	require.NoError(t, err)
	assert.False(t, ok)
	entries, err := store.Entries(ctx, generic.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_TrackerSubmissionEndToEnd(t *testing.T) {
	// GIVEN: The SQLite store used as catalog and progress store
	// WHEN: Submitting weekly progress through the tracker
	// THEN: Result, log entry and monthly rollup are all persisted

	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveKPI(ctx, kpi.KPI{
		ID: "videos", Name: "Vídeos", UnitType: kpi.UnitCount, Periodicity: kpi.WeeklyAndMonthly,
		TargetWeekly: kpi.Target(2), TargetMonthly: kpi.Target(8), OwnerID: "ana",
	}))

	periods := generic.NewPeriodCalculator(generic.FixedClock{Date: generic.NewTimePoint(2024, time.March, 13)}, store)
	tracker := kpi.NewTracker(store, store, periods, nil)

	for _, key := range []string{"2024-W10", "2024-W11"} {
		_, err := tracker.SubmitProgress(ctx, kpi.Caller{ID: "admin", Privileged: true}, kpi.Submission{
			KPIID: "videos", PeriodType: generic.PeriodWeekly, PeriodKey: key, Delivered: true, Value: "3",
		})
		require.NoError(t, err)
	}

	march, ok, err := store.Get(ctx, generic.ProgressKey{KPIID: "videos", PeriodType: generic.PeriodMonthly, PeriodKey: "2024-03"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "6", march.Value)

	entries, err := store.Entries(ctx, generic.EntryFilter{KPIID: "videos"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestStore_KPICatalog(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	nps := kpi.KPI{ID: "nps", Name: "NPS", UnitType: kpi.UnitPercentage, Periodicity: kpi.Monthly, TargetMonthly: kpi.Target(85.5)}
	calls := kpi.KPI{ID: "calls", Name: "Calls", UnitType: kpi.UnitCount, Periodicity: kpi.Weekly, TargetWeekly: kpi.Target(40), OwnerID: "gabriel"}
	require.NoError(t, store.SaveKPI(ctx, nps))
	require.NoError(t, store.SaveKPI(ctx, calls))

	got, err := store.GetKPI(ctx, "nps")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.TargetWeekly)
	assert.Equal(t, "85.5", got.MonthlyTarget().String())

	missing, err := store.GetKPI(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	calls.Name = "Cold calls"
	require.NoError(t, store.SaveKPI(ctx, calls))

	all, err := store.ListKPIs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cold calls", all[0].Name)
	assert.Equal(t, "NPS", all[1].Name)
}

func TestStore_DeleteKPIKeepsSubmissionLog(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveKPI(ctx, kpi.KPI{ID: "videos", Name: "Vídeos", UnitType: kpi.UnitCount, Periodicity: kpi.Weekly, TargetWeekly: kpi.Target(2)}))
	require.NoError(t, store.Upsert(ctx, weekKey("2024-W10"), generic.Progress{Delivered: true}))
	require.NoError(t, store.AppendEntry(ctx, generic.SubmissionEntry{ID: "e1", KPIID: "videos", SubmittedAt: time.Now()}))

	require.NoError(t, store.DeleteKPI(ctx, "videos"))

	k, err := store.GetKPI(ctx, "videos")
	require.NoError(t, err)
	assert.Nil(t, k)
	all, _ := store.All(ctx)
	assert.Empty(t, all)
	entries, _ := store.Entries(ctx, generic.EntryFilter{KPIID: "videos"})
	assert.Len(t, entries, 1)
}

// =============================================================================
// STAFF AND HOLIDAYS
// =============================================================================

func TestStore_Staff(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveStaff(ctx, kpi.Staff{ID: "ana", Name: "Ana", Email: "ana@clinica.com"}))
	require.NoError(t, store.SaveStaff(ctx, kpi.Staff{ID: "ana", Name: "Ana Paula", Unit: "Adm"}))

	s, err := store.GetStaff(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Ana Paula", s.Name)
	assert.Equal(t, "Adm", s.Unit)

	missing, err := store.GetStaff(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_Holidays(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: generic.NewTimePoint(2024, time.April, 21), Name: "Tiradentes"}))
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h2", Date: generic.NewTimePoint(2000, time.December, 25), Name: "Natal", Recurring: true}))

	assert.True(t, store.IsHoliday(generic.NewTimePoint(2024, time.April, 21)))
	assert.False(t, store.IsHoliday(generic.NewTimePoint(2025, time.April, 21)), "one-off holiday")
	assert.True(t, store.IsHoliday(generic.NewTimePoint(2031, time.December, 25)), "recurring holiday")

	list, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Natal", list[0].Name)

	deleted, err := store.DeleteHoliday(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = store.DeleteHoliday(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_FailedHolidayLookupIsNotCached(t *testing.T) {
	// GIVEN: A cached calendar over a store whose lookups fail
	// WHEN: Asking about a date
	// THEN: The answer is "working day" but nothing is remembered

	store := newTestStore(t)
	cached, err := generic.NewCachedHolidayCalendar(store, 8)
	require.NoError(t, err)

	date := generic.NewTimePoint(2024, time.April, 21)
	require.NoError(t, store.Close())

	_, err = store.LookupHoliday(date)
	require.Error(t, err)
	assert.False(t, store.IsHoliday(date))
	assert.False(t, cached.IsHoliday(date))
	assert.Equal(t, 0, cached.Len())
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveStaff(ctx, kpi.Staff{ID: "ana", Name: "Ana"}))
	require.NoError(t, store.Upsert(ctx, weekKey("2024-W10"), generic.Progress{Delivered: true}))

	require.NoError(t, store.Reset(ctx))

	staff, err := store.ListStaff(ctx)
	require.NoError(t, err)
	assert.Empty(t, staff)
	all, _ := store.All(ctx)
	assert.Empty(t, all)
}
