/*
calendar.go - Working-day resolution against weekends and declared holidays

PURPOSE:
  Answers one question: is a given date a working day? A date is a working
  day when it is neither a Saturday/Sunday nor present in the holiday set
  for its year.

DESIGN:
  Holiday data is supplied externally through HolidayProvider and loaded
  once per relevant year range, before any ledger transaction begins. After
  loading, IsWorkingDay is a pure in-memory lookup with no side effects -
  nothing inside the ledger's transaction boundary performs I/O.

SEE ALSO:
  - daycount.go: Counts chargeable days using this calendar
  - store/sqlite: Persisted holiday sets behind HolidayProvider
*/
package leave

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a declared non-working date, regardless of weekday.
type Holiday struct {
	Date Date
	Name string
}

// HolidayProvider supplies the declared holidays for a calendar year.
type HolidayProvider interface {
	Holidays(ctx context.Context, year int) ([]Holiday, error)
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar resolves working days. Safe for concurrent use; loading and
// lookups are guarded independently of the ledger.
type Calendar struct {
	mu       sync.RWMutex
	holidays map[Date]string
}

func NewCalendar() *Calendar {
	return &Calendar{holidays: make(map[Date]string)}
}

// Load pulls holiday sets for [fromYear, toYear] from the provider.
// Call before submitting requests that touch those years.
func (c *Calendar) Load(ctx context.Context, provider HolidayProvider, fromYear, toYear int) error {
	for year := fromYear; year <= toYear; year++ {
		hs, err := provider.Holidays(ctx, year)
		if err != nil {
			return fmt.Errorf("loading holidays for %d: %w", year, err)
		}
		c.mu.Lock()
		for _, h := range hs {
			c.holidays[h.Date] = h.Name
		}
		c.mu.Unlock()
	}
	return nil
}

// Add declares a single holiday.
func (c *Calendar) Add(h Holiday) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holidays[h.Date] = h.Name
}

// IsHoliday reports whether the date is in the holiday set.
func (c *Calendar) IsHoliday(d Date) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.holidays[d]
	return name, ok
}

// IsWorkingDay reports whether the date is a weekday outside the holiday
// set. Side effect-free.
func (c *Calendar) IsWorkingDay(d Date) bool {
	if d.IsWeekend() {
		return false
	}
	_, holiday := c.IsHoliday(d)
	return !holiday
}

// =============================================================================
// DEFAULT INSTITUTIONAL HOLIDAYS
// =============================================================================

// DefaultHolidays returns a typical institutional holiday set for a year.
// Real deployments load the declared set from the holiday store instead.
func DefaultHolidays(year int) []Holiday {
	return []Holiday{
		{Date: NewDate(year, time.January, 1), Name: "New Year's Day"},
		{Date: NewDate(year, time.April, 13), Name: "Songkran Festival"},
		{Date: NewDate(year, time.April, 14), Name: "Songkran Festival"},
		{Date: NewDate(year, time.April, 15), Name: "Songkran Festival"},
		{Date: NewDate(year, time.May, 1), Name: "Labour Day"},
		{Date: NewDate(year, time.December, 31), Name: "New Year's Eve"},
	}
}
