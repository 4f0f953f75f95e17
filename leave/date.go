package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granular calendar date (leave is a whole/half day resource)
// =============================================================================

// Date is a calendar date normalized to UTC midnight. All leave arithmetic
// is day-granular; half days are expressed in chargeable amounts, not in
// the date itself.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date  { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date { return Date{t: d.t.AddDate(n, 0, 0)} }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// =============================================================================
// FISCAL YEAR - October 1 through September 30, labeled by the ending year
// =============================================================================

type FiscalYear int

// FiscalYearOf returns the fiscal year containing a date: the calendar
// year, plus one when the date falls in October through December.
func FiscalYearOf(d Date) FiscalYear {
	if d.Month() >= time.October {
		return FiscalYear(d.Year() + 1)
	}
	return FiscalYear(d.Year())
}

// Start returns October 1 of the preceding calendar year.
func (fy FiscalYear) Start() Date {
	return NewDate(int(fy)-1, time.October, 1)
}

// End returns September 30 of the labeling year.
func (fy FiscalYear) End() Date {
	return NewDate(int(fy), time.September, 30)
}

func (fy FiscalYear) String() string { return fmt.Sprintf("FY%d", int(fy)) }
