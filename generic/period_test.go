package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/kpi-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(year, month, d)
}

func calculatorOn(today generic.TimePoint, holidays ...generic.Holiday) *generic.PeriodCalculator {
	return generic.NewPeriodCalculator(generic.FixedClock{Date: today}, generic.NewHolidaySet(holidays...))
}

// everyDay is a calendar on which every date is a holiday.
type everyDay struct{}

func (everyDay) IsHoliday(generic.TimePoint) bool { return true }

// =============================================================================
// WEEKLY PERIOD TESTS
// =============================================================================

func TestWeekly_SaturdayFilesTheWeekThatJustEnded(t *testing.T) {
	// GIVEN: Today is Saturday 2024-03-09
	// WHEN: Asking for the current weekly period
	// THEN: The Saturday 03-02 to Friday 03-08 week, due today

	p := calculatorOn(day(2024, time.March, 9)).Weekly()

	assert.Equal(t, "2024-03-02", p.Start.String())
	assert.Equal(t, "2024-03-08", p.End.String())
	assert.Equal(t, "2024-03-09", p.Due.String())
	assert.Equal(t, "2024-W10", p.Key)
}

func TestWeekly_WeekdaysFileTheWeekEndingOnTheUpcomingFriday(t *testing.T) {
	for _, today := range []generic.TimePoint{
		day(2024, time.March, 3), // Sunday
		day(2024, time.March, 4), // Monday
		day(2024, time.March, 6), // Wednesday
		day(2024, time.March, 8), // Friday
	} {
		t.Run(today.Weekday().String(), func(t *testing.T) {
			p := calculatorOn(today).Weekly()
			assert.Equal(t, "2024-03-02", p.Start.String())
			assert.Equal(t, "2024-03-08", p.End.String())
			assert.Equal(t, "2024-W10", p.Key)
		})
	}
}

func TestWeekly_PeriodAlwaysSpansSevenDaysEndingFriday(t *testing.T) {
	start := day(2023, time.December, 20)
	for i := 0; i < 60; i++ {
		today := start.AddDays(i)
		p := calculatorOn(today).Weekly()

		assert.Equal(t, time.Saturday, p.Start.Weekday(), today.String())
		assert.Equal(t, time.Friday, p.End.Weekday(), today.String())
		assert.Equal(t, p.End.String(), p.Start.AddDays(6).String(), today.String())
		assert.True(t, p.Contains(today) || today.Weekday() == time.Saturday, today.String())
	}
}

func TestWeekly_DueDateShiftsOverHoliday(t *testing.T) {
	// GIVEN: Saturday 2024-03-09 is a holiday
	// THEN: The weekly due date moves to Sunday

	p := calculatorOn(day(2024, time.March, 4), generic.Holiday{Date: day(2024, time.March, 9)}).Weekly()

	assert.Equal(t, "2024-03-10", p.Due.String())
}

// =============================================================================
// MONTHLY PERIOD TESTS
// =============================================================================

func TestMonthly_CurrentPeriodIsThePreviousCalendarMonth(t *testing.T) {
	// GIVEN: Today is 2024-03-15
	// THEN: February 2024 is being filed, due on March 1st

	p := calculatorOn(day(2024, time.March, 15)).Monthly()

	assert.Equal(t, "2024-02", p.Key)
	assert.Equal(t, "2024-02-01", p.Start.String())
	assert.Equal(t, "2024-02-29", p.End.String())
	assert.Equal(t, "2024-03-01", p.Due.String())
}

func TestMonthly_JanuaryFilesDecemberOfPreviousYear(t *testing.T) {
	p := calculatorOn(day(2025, time.January, 10)).Monthly()

	assert.Equal(t, "2024-12", p.Key)
	assert.Equal(t, "2025-01-01", p.Due.String())
}

func TestMonthly_DueDateSkipsSunday(t *testing.T) {
	// GIVEN: 2024-09-01 is a Sunday
	// THEN: August's due date is Monday 09-02

	p, ok := calculatorOn(day(2024, time.September, 15)).ForKey(generic.PeriodMonthly, "2024-08")
	require.True(t, ok)

	assert.Equal(t, "2024-09-02", p.Due.String())
}

func TestMonthly_DueDateSkipsSundayThenHoliday(t *testing.T) {
	p, ok := calculatorOn(day(2024, time.September, 15), generic.Holiday{Date: day(2024, time.September, 2)}).
		ForKey(generic.PeriodMonthly, "2024-08")
	require.True(t, ok)

	assert.Equal(t, "2024-09-03", p.Due.String())
}

func TestMonthly_RecurringHolidayShiftsEveryYear(t *testing.T) {
	newYear := generic.Holiday{Date: day(2000, time.January, 1), Name: "Confraternização", Recurring: true}
	calc := calculatorOn(day(2024, time.January, 10), newYear)

	p, ok := calc.ForKey(generic.PeriodMonthly, "2023-12")
	require.True(t, ok)

	assert.Equal(t, "2024-01-02", p.Due.String())
}

func TestDueDate_HolidayShiftIsBounded(t *testing.T) {
	// GIVEN: A calendar where every day is a holiday
	// WHEN: Computing the due date
	// THEN: It moves exactly MaxHolidayShifts days and stops

	calc := generic.NewPeriodCalculator(generic.FixedClock{Date: day(2024, time.March, 15)}, everyDay{})

	p := calc.Monthly()
	assert.Equal(t, day(2024, time.March, 1).AddDays(generic.MaxHolidayShifts).String(), p.Due.String())

	w := calc.Weekly()
	assert.Equal(t, day(2024, time.March, 16).AddDays(generic.MaxHolidayShifts).String(), w.Due.String())
}

// =============================================================================
// CURRENT / FOR KEY TESTS
// =============================================================================

func TestCurrent_TargetOverridesUseTheirBasePeriod(t *testing.T) {
	calc := calculatorOn(day(2024, time.March, 15))

	wt := calc.Current(generic.PeriodWeeklyTarget)
	assert.Equal(t, generic.PeriodWeeklyTarget, wt.Type)
	assert.Equal(t, calc.Weekly().Key, wt.Key)

	mt := calc.Current(generic.PeriodMonthlyTarget)
	assert.Equal(t, generic.PeriodMonthlyTarget, mt.Type)
	assert.Equal(t, "2024-02", mt.Key)
}

func TestCurrent_DailyIsTodayWithoutDeadline(t *testing.T) {
	p := calculatorOn(day(2024, time.March, 15)).Current(generic.PeriodDaily)

	assert.Equal(t, "2024-03-15", p.Key)
	assert.True(t, p.Due.IsZero())
	assert.True(t, p.EntryState(day(2030, time.January, 1), false).Open)
}

func TestForKey_WeeklyFromISOWeek(t *testing.T) {
	// GIVEN: 2024-W01 (Monday 2024-01-01)
	// THEN: The accounting week is Sat 2023-12-30 to Fri 2024-01-05

	p, ok := calculatorOn(day(2024, time.March, 15)).ForKey(generic.PeriodWeekly, "2024-W01")
	require.True(t, ok)

	assert.Equal(t, "2024-W01", p.Key)
	assert.Equal(t, "2023-12-30", p.Start.String())
	assert.Equal(t, "2024-01-05", p.End.String())
	assert.Equal(t, "2024-01-06", p.Due.String())
}

func TestForKey_RejectsMalformedKeys(t *testing.T) {
	calc := calculatorOn(day(2024, time.March, 15))

	cases := []struct {
		pt  generic.PeriodType
		key string
	}{
		{generic.PeriodWeekly, "2024-10"},
		{generic.PeriodWeekly, "2024-W54"},
		{generic.PeriodWeekly, "2021-W53"},
		{generic.PeriodMonthly, "2024-13"},
		{generic.PeriodMonthly, "2024-W10"},
		{generic.PeriodDaily, "2024-02-30"},
		{generic.PeriodDaily, ""},
	}
	for _, tc := range cases {
		_, ok := calc.ForKey(tc.pt, tc.key)
		assert.False(t, ok, "%s %q", tc.pt, tc.key)
	}
}

// =============================================================================
// ENTRY STATE TESTS
// =============================================================================

func TestEntryState_DeadlineIsInclusive(t *testing.T) {
	p := calculatorOn(day(2024, time.March, 4)).Weekly() // due 2024-03-09

	assert.True(t, p.EntryState(day(2024, time.March, 9), false).Open)

	late := p.EntryState(day(2024, time.March, 10), false)
	assert.False(t, late.Open)
	assert.Contains(t, late.Reason, "2024-03-09")
}

func TestEntryState_PrivilegedCallerIsNeverLate(t *testing.T) {
	p := calculatorOn(day(2024, time.March, 4)).Weekly()

	assert.True(t, p.EntryState(day(2025, time.January, 1), true).Open)
}
