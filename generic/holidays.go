package generic

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultHolidayCacheSize = 512

// CachedHolidayCalendar memoizes lookups against a slower calendar
// (the SQLite store answers each IsHoliday with a query).
//
// Purge must be called whenever the underlying holidays change.
type CachedHolidayCalendar struct {
	inner HolidayCalendar
	cache *lru.Cache[string, bool]
}

// NewCachedHolidayCalendar wraps inner with an LRU of the given size.
// A non-positive size falls back to the default.
func NewCachedHolidayCalendar(inner HolidayCalendar, size int) (*CachedHolidayCalendar, error) {
	if size <= 0 {
		size = defaultHolidayCacheSize
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		inner = NoHolidays{}
	}
	return &CachedHolidayCalendar{inner: inner, cache: cache}, nil
}

// IsHoliday answers from the cache or the inner calendar. When the inner
// calendar is a HolidayLookup and the lookup fails, the date counts as a
// working day for this call only and nothing is cached.
func (c *CachedHolidayCalendar) IsHoliday(date TimePoint) bool {
	key := date.String()
	if v, ok := c.cache.Get(key); ok {
		return v
	}

	var v bool
	if lookup, ok := c.inner.(HolidayLookup); ok {
		var err error
		if v, err = lookup.LookupHoliday(date); err != nil {
			return false
		}
	} else {
		v = c.inner.IsHoliday(date)
	}
	c.cache.Add(key, v)
	return v
}

// Purge drops every cached answer.
func (c *CachedHolidayCalendar) Purge() {
	c.cache.Purge()
}

// Len reports how many dates are cached.
func (c *CachedHolidayCalendar) Len() int {
	return c.cache.Len()
}
