package generic

import "time"

// =============================================================================
// PERIOD - The accounting window a submission is filed for
// =============================================================================

// Period is an inclusive civil date range [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// AccountingPeriod is a weekly or monthly window plus its submission deadline.
// Computed per request, never persisted.
type AccountingPeriod struct {
	Type PeriodType
	Key  string
	Period
	Due TimePoint
}

// =============================================================================
// ENTRY STATE - Whether a period still accepts submissions
// =============================================================================

type EntryState struct {
	Open   bool
	Reason string // set when closed
}

var EntryOpen = EntryState{Open: true}

func EntryClosed(reason string) EntryState { return EntryState{Reason: reason} }

// EntryState decides whether the caller may still file for this period.
// Privileged callers can always file (corrections); everyone else only
// until the due date, inclusive. Daily periods have no deadline.
func (p AccountingPeriod) EntryState(today TimePoint, privileged bool) EntryState {
	if privileged || p.Due.IsZero() || !today.After(p.Due) {
		return EntryOpen
	}
	return EntryClosed("deadline has passed on " + p.Due.String())
}

// =============================================================================
// PERIOD CALCULATOR - Current weekly/monthly windows and due dates
// =============================================================================

// MaxHolidayShifts bounds how far a due date is pushed over consecutive
// holidays. After this many shifts the date is kept as is.
const MaxHolidayShifts = 7

// PeriodCalculator derives accounting periods relative to Clock.
type PeriodCalculator struct {
	Clock    Clock
	Holidays HolidayCalendar
}

func NewPeriodCalculator(clock Clock, holidays HolidayCalendar) *PeriodCalculator {
	if holidays == nil {
		holidays = NoHolidays{}
	}
	return &PeriodCalculator{Clock: clock, Holidays: holidays}
}

// Today returns the current civil date.
func (pc *PeriodCalculator) Today() TimePoint {
	return pc.Clock.Today()
}

// Weekly returns the accounting week (Saturday -> Friday) for today.
//
// On Saturday the week that ended yesterday is still the one being filed.
// Any other day files for the week ending on the upcoming Friday.
func (pc *PeriodCalculator) Weekly() AccountingPeriod {
	return pc.weeklyEndingOn(weekEndFor(pc.Today()))
}

// Monthly returns the accounting month for today: the calendar month
// immediately before the current one.
func (pc *PeriodCalculator) Monthly() AccountingPeriod {
	return pc.monthlyFor(YearMonthOf(pc.Today()).Previous())
}

// Current returns the current period of a weekly/monthly type (target
// overrides resolve to their base period). Daily resolves to today with
// no deadline.
func (pc *PeriodCalculator) Current(pt PeriodType) AccountingPeriod {
	switch pt.Base() {
	case PeriodWeekly:
		p := pc.Weekly()
		p.Type = pt
		return p
	case PeriodMonthly:
		p := pc.Monthly()
		p.Type = pt
		return p
	default:
		today := pc.Today()
		return AccountingPeriod{
			Type:   pt,
			Key:    DayKey(today),
			Period: Period{Start: today, End: today},
		}
	}
}

// ForKey rebuilds the accounting period identified by an explicit key.
func (pc *PeriodCalculator) ForKey(pt PeriodType, key string) (AccountingPeriod, bool) {
	var (
		p  AccountingPeriod
		ok bool
	)
	switch pt.Base() {
	case PeriodDaily:
		var day TimePoint
		if day, ok = ParseDayKey(key); ok {
			p = AccountingPeriod{Key: key, Period: Period{Start: day, End: day}}
		}
	case PeriodWeekly:
		var year, week int
		if year, week, ok = ParseWeekKey(key); ok {
			friday := ISOWeekMonday(year, week).AddDays(4)
			p = pc.weeklyEndingOn(friday)
		}
	case PeriodMonthly:
		var ym YearMonth
		if ym, ok = ParseMonthKey(key); ok {
			p = pc.monthlyFor(ym)
		}
	}
	if !ok {
		return AccountingPeriod{}, false
	}
	p.Type = pt
	return p, true
}

func (pc *PeriodCalculator) weeklyEndingOn(friday TimePoint) AccountingPeriod {
	return AccountingPeriod{
		Type:   PeriodWeekly,
		Key:    WeekKey(friday),
		Period: Period{Start: friday.AddDays(-6), End: friday},
		Due:    pc.shiftOverHolidays(friday.AddDays(1)),
	}
}

func (pc *PeriodCalculator) monthlyFor(ym YearMonth) AccountingPeriod {
	due := ym.Next().First()
	if due.Weekday() == time.Sunday {
		due = due.AddDays(1)
	}
	return AccountingPeriod{
		Type:   PeriodMonthly,
		Key:    ym.Key(),
		Period: Period{Start: ym.First(), End: ym.Last()},
		Due:    pc.shiftOverHolidays(due),
	}
}

// shiftOverHolidays advances d while it is a holiday, at most
// MaxHolidayShifts times.
func (pc *PeriodCalculator) shiftOverHolidays(d TimePoint) TimePoint {
	for i := 0; i < MaxHolidayShifts && pc.Holidays.IsHoliday(d); i++ {
		d = d.AddDays(1)
	}
	return d
}

// weekEndFor returns the Friday closing the accounting week filed on today.
func weekEndFor(today TimePoint) TimePoint {
	if today.Weekday() == time.Saturday {
		return today.AddDays(-1)
	}
	daysUntilFriday := (int(time.Friday) - int(today.Weekday()) + 7) % 7
	return today.AddDays(daysUntilFriday)
}
