package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/kpi-engine/generic"
)

func TestWeekKeyToYearMonth_UsesTheMondayOfTheISOWeek(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"2024-W01", "2024-01"}, // Monday 2024-01-01
		{"2024-W10", "2024-03"}, // Monday 2024-03-04
		{"2024-W09", "2024-02"}, // Monday 2024-02-26, Friday in March
		{"2026-W01", "2025-12"}, // Monday 2025-12-29
		{"2020-W53", "2020-12"}, // long ISO year
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			ym, ok := generic.WeekKeyToYearMonth(tc.key)
			require.True(t, ok)
			assert.Equal(t, tc.want, ym.Key())
		})
	}
}

func TestParseWeekKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "2024-W1", "2024W01", "2024-w01", "2024-W00", "2024-W54", "2021-W53", "abcd-W10", "2024-Wxx"} {
		_, _, ok := generic.ParseWeekKey(key)
		assert.False(t, ok, key)
	}
}

func TestWeekKey_RoundTripsThroughISOWeekMonday(t *testing.T) {
	tp := generic.NewTimePoint(2024, time.March, 8)
	key := generic.WeekKey(tp)
	require.Equal(t, "2024-W10", key)

	year, week, ok := generic.ParseWeekKey(key)
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", generic.ISOWeekMonday(year, week).String())
}

func TestKeyToYearMonth(t *testing.T) {
	ym, ok := generic.KeyToYearMonth(generic.PeriodDaily, "2024-03-31")
	require.True(t, ok)
	assert.Equal(t, "2024-03", ym.Key())

	ym, ok = generic.KeyToYearMonth(generic.PeriodMonthly, "2024-11")
	require.True(t, ok)
	assert.Equal(t, "2024-11", ym.Key())

	_, ok = generic.KeyToYearMonth(generic.PeriodWeeklyTarget, "2024-W10")
	assert.False(t, ok, "target overrides never roll up")
}

func TestYearMonth_Navigation(t *testing.T) {
	jan := generic.YearMonth{Year: 2024, Month: time.January}

	assert.Equal(t, "2023-12", jan.Previous().Key())
	assert.Equal(t, "2024-02", jan.Next().Key())
	assert.Equal(t, "2024-02-29", jan.Next().Last().String())
}

func TestValidKey(t *testing.T) {
	assert.True(t, generic.ValidKey(generic.PeriodMonthlyTarget, "2024-03"))
	assert.True(t, generic.ValidKey(generic.PeriodWeeklyTarget, "2024-W10"))
	assert.False(t, generic.ValidKey(generic.PeriodWeekly, "2024-03"))
	assert.False(t, generic.ValidKey(generic.PeriodType("yearly"), "2024"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Week 10 / 2024", generic.WeekLabel("2024-W10"))
	assert.Equal(t, "03/2024", generic.MonthLabel("2024-03"))
	assert.Equal(t, "garbage", generic.MonthLabel("garbage"))
}

func TestParsePeriodType(t *testing.T) {
	pt, ok := generic.ParsePeriodType(" target-monthly ")
	require.True(t, ok)
	assert.Equal(t, generic.PeriodMonthlyTarget, pt)
	assert.Equal(t, generic.PeriodMonthly, pt.Base())
	assert.True(t, pt.IsTargetOverride())
	assert.False(t, pt.HasDeadline())

	_, ok = generic.ParsePeriodType("quarterly")
	assert.False(t, ok)
}

func TestProgress_DeliveredAmount(t *testing.T) {
	assert.Equal(t, "0", generic.Progress{Delivered: false, Value: "5"}.DeliveredAmount().String())
	assert.Equal(t, "5", generic.Progress{Delivered: true, Value: "5"}.DeliveredAmount().String())
	assert.Equal(t, "0", generic.Progress{Delivered: true, Value: "abc"}.DeliveredAmount().String())
	assert.Equal(t, "0", generic.Progress{Delivered: true, Value: "NaN"}.DeliveredAmount().String())
	assert.Equal(t, "0", generic.Progress{Delivered: true, Value: "1e30000000"}.DeliveredAmount().String(), "out of bounds counts as zero")
	assert.Equal(t, "0", generic.ParseValue("1e-65").String())
	assert.Equal(t, "1e64", generic.ParseValue("1e64").String())
}

func TestProgressKey_String(t *testing.T) {
	key := generic.ProgressKey{KPIID: "videos", PeriodType: generic.PeriodWeekly, PeriodKey: "2024-W10"}
	assert.Equal(t, "videos-weekly-2024-W10", key.String())
}
