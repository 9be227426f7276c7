package generic

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// PERIOD KEYS - Text identity of one period instance
// =============================================================================
//
// Persisted formats (fixed width, zero padded, so string order = time order):
//   daily    YYYY-MM-DD
//   weekly   YYYY-Www   (ISO week, 01-53)
//   monthly  YYYY-MM

const MonthLayout = "2006-01"

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) Key() string         { return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month)) }
func (ym YearMonth) String() string      { return ym.Key() }
func (ym YearMonth) First() TimePoint    { return NewTimePoint(ym.Year, ym.Month, 1) }
func (ym YearMonth) Last() TimePoint     { return ym.First().AddMonths(1).AddDays(-1) }
func (ym YearMonth) Previous() YearMonth { return YearMonthOf(ym.First().AddDays(-1)) }
func (ym YearMonth) Next() YearMonth     { return YearMonthOf(ym.First().AddMonths(1)) }

func YearMonthOf(tp TimePoint) YearMonth { return YearMonth{Year: tp.Year(), Month: tp.Month()} }

// DayKey formats a date as a daily period key.
func DayKey(tp TimePoint) string { return tp.Time.Format(DateLayout) }

// WeekKey formats the ISO week containing tp.
func WeekKey(tp TimePoint) string {
	year, week := tp.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats the calendar month containing tp.
func MonthKey(tp TimePoint) string { return YearMonthOf(tp).Key() }

// ParseDayKey parses YYYY-MM-DD.
func ParseDayKey(key string) (TimePoint, bool) {
	if len(key) != len(DateLayout) {
		return TimePoint{}, false
	}
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return TimePoint{}, false
	}
	return DateOf(t), true
}

// ParseMonthKey parses YYYY-MM.
func ParseMonthKey(key string) (YearMonth, bool) {
	if len(key) != len(MonthLayout) {
		return YearMonth{}, false
	}
	t, err := time.Parse(MonthLayout, key)
	if err != nil {
		return YearMonth{}, false
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, true
}

// ParseWeekKey parses YYYY-Www and checks that the week exists in that ISO year.
func ParseWeekKey(key string) (year, week int, ok bool) {
	if len(key) != 8 || key[4] != '-' || key[5] != 'W' {
		return 0, 0, false
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil || key[0] == '+' || key[0] == '-' {
		return 0, 0, false
	}
	if key[6] < '0' || key[6] > '9' || key[7] < '0' || key[7] > '9' {
		return 0, 0, false
	}
	week = int(key[6]-'0')*10 + int(key[7]-'0')
	if week < 1 || week > 53 {
		return 0, 0, false
	}
	// Week 53 only exists in long ISO years.
	if y, w := ISOWeekMonday(year, week).ISOWeek(); y != year || w != week {
		return 0, 0, false
	}
	return year, week, true
}

// ISOWeekMonday returns the Monday that starts ISO week (year, week).
// January 4th always falls in week 1.
func ISOWeekMonday(year, week int) TimePoint {
	jan4 := NewTimePoint(year, time.January, 4)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	return jan4.AddDays(-offset + (week-1)*7)
}

// WeekKeyToYearMonth maps an ISO week to the month it is administratively
// counted in: the month of the week's Monday.
func WeekKeyToYearMonth(key string) (YearMonth, bool) {
	year, week, ok := ParseWeekKey(key)
	if !ok {
		return YearMonth{}, false
	}
	return YearMonthOf(ISOWeekMonday(year, week)), true
}

// DateKeyToYearMonth maps a daily key to its own month.
func DateKeyToYearMonth(key string) (YearMonth, bool) {
	tp, ok := ParseDayKey(key)
	if !ok {
		return YearMonth{}, false
	}
	return YearMonthOf(tp), true
}

// KeyToYearMonth maps a daily or weekly key to the month it rolls up into.
func KeyToYearMonth(pt PeriodType, key string) (YearMonth, bool) {
	switch pt {
	case PeriodDaily:
		return DateKeyToYearMonth(key)
	case PeriodWeekly:
		return WeekKeyToYearMonth(key)
	case PeriodMonthly:
		return ParseMonthKey(key)
	}
	return YearMonth{}, false
}

// ValidKey reports whether key is well formed for the period type.
func ValidKey(pt PeriodType, key string) bool {
	switch pt.Base() {
	case PeriodDaily:
		_, ok := ParseDayKey(key)
		return ok
	case PeriodWeekly:
		_, _, ok := ParseWeekKey(key)
		return ok
	case PeriodMonthly:
		_, ok := ParseMonthKey(key)
		return ok
	}
	return false
}

// WeekLabel renders "Week WW / YYYY" for display.
func WeekLabel(key string) string {
	year, week, ok := ParseWeekKey(key)
	if !ok {
		return key
	}
	return fmt.Sprintf("Week %02d / %04d", week, year)
}

// MonthLabel renders "MM/YYYY" for display.
func MonthLabel(key string) string {
	ym, ok := ParseMonthKey(key)
	if !ok {
		return key
	}
	return fmt.Sprintf("%02d/%04d", int(ym.Month), ym.Year)
}
