package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - Civil calendar date (periods are always whole days)
// =============================================================================

// TimePoint is a civil date normalized to UTC midnight.
// The wall-clock zone only matters when resolving "today" (see Clock).
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part and zone of t, keeping its civil date.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return DateOf(tp.Time.AddDate(0, 0, n)) }
func (tp TimePoint) AddMonths(n int) TimePoint { return DateOf(tp.Time.AddDate(0, n, 0)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) ISOWeek() (year, week int) { return tp.Time.ISOWeek() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// DateLayout is the wire format of civil dates (also the daily period key).
const DateLayout = "2006-01-02"

// =============================================================================
// CLOCK - Resolves "today" in the organization's calendar
// =============================================================================

// Clock answers which civil date it is right now.
type Clock interface {
	Today() TimePoint
}

// ZoneClock reads the machine clock and converts it into a fixed named zone,
// so "today" does not depend on the host's TZ setting.
type ZoneClock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewZoneClock loads the IANA zone (e.g. "America/Sao_Paulo").
func NewZoneClock(zone string) (*ZoneClock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &ZoneClock{Location: loc, Now: time.Now}, nil
}

func (c *ZoneClock) Today() TimePoint {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now().In(loc))
}

// FixedClock always returns the same date. Used by tests and the CLI.
type FixedClock struct {
	Date TimePoint
}

func (c FixedClock) Today() TimePoint { return c.Date }

// =============================================================================
// HOLIDAY CALENDAR - Organization holidays
// =============================================================================

// Holiday is a day on which deadlines do not fall.
type Holiday struct {
	ID        string
	Date      TimePoint // The holiday date
	Name      string    // e.g., "Tiradentes", "Natal"
	Recurring bool      // true = same month/day every year
}

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// IsHoliday checks whether the civil date (UTC midnight) is a holiday.
	IsHoliday(date TimePoint) bool
}

// HolidayLookup is implemented by calendars whose lookups can fail.
// Caches use it to avoid remembering an answer from a failed lookup.
type HolidayLookup interface {
	LookupHoliday(date TimePoint) (bool, error)
}

// NoHolidays is a calendar without holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool { return false }

// HolidaySet is an in-memory calendar keyed by date string.
// Recurring entries are stored under "MM-DD".
type HolidaySet map[string]bool

func NewHolidaySet(holidays ...Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		if h.Recurring {
			set[h.Date.Time.Format("01-02")] = true
			continue
		}
		set[h.Date.String()] = true
	}
	return set
}

func (s HolidaySet) IsHoliday(date TimePoint) bool {
	return s[date.String()] || s[date.Time.Format("01-02")]
}
