/*
daycount.go - Chargeable day counting

PURPOSE:
  Converts a (start, end, slot) tuple into the decimal day quantity debited
  against a balance. Deterministic and idempotent: identical inputs always
  produce identical counts.

COUNTING RULES:
  - end before start                    -> ErrInvalidRange
  - half-day slot (morning/afternoon)   -> 0.5 if the start date counts as
    a working day under the policy's mode, else 0. A zero result is not a
    valid leave; the evaluator rejects it.
  - full day, all-days mode             -> inclusive calendar span
  - full day, working-days-only mode    -> count of working days in range

SEE ALSO:
  - calendar.go: Working-day resolution
  - rules.go: Rejects zero-day requests
*/
package leave

import (
	"github.com/shopspring/decimal"
)

var halfDay = decimal.RequireFromString("0.5")

// ChargeableDays computes the day quantity one request charges.
// Holiday data must already be loaded into the calendar for the range.
func ChargeableDays(cal *Calendar, start, end Date, slot TimeSlot, mode CountingMode) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, ErrInvalidRange
	}

	if slot.IsHalfDay() {
		// Half days charge against the start date only. On a non-working
		// day the charge is zero; the evaluator flags that as invalid.
		if countsAsWorking(cal, start, mode) {
			return halfDay, nil
		}
		return decimal.Zero, nil
	}

	if mode == CountAllDays {
		return decimal.NewFromInt(int64(DaysBetween(start, end) + 1)), nil
	}

	days := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if cal.IsWorkingDay(d) {
			days++
		}
	}
	return decimal.NewFromInt(int64(days)), nil
}

// countsAsWorking applies the counting mode: under all-days counting every
// date is chargeable.
func countsAsWorking(cal *Calendar, d Date, mode CountingMode) bool {
	if mode == CountAllDays {
		return true
	}
	return cal.IsWorkingDay(d)
}
