package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// March 2026: the 1st is a Sunday, so the 2nd through the 6th is a clean
// Monday-to-Friday week.
var (
	monday    = leave.NewDate(2026, time.March, 2)
	wednesday = leave.NewDate(2026, time.March, 4)
	friday    = leave.NewDate(2026, time.March, 6)
	saturday  = leave.NewDate(2026, time.March, 7)
	sunday    = leave.NewDate(2026, time.March, 8)
)

func emptyCalendar() *leave.Calendar { return leave.NewCalendar() }

func chargeable(t *testing.T, cal *leave.Calendar, start, end leave.Date, slot leave.TimeSlot, mode leave.CountingMode) decimal.Decimal {
	t.Helper()
	days, err := leave.ChargeableDays(cal, start, end, slot, mode)
	require.NoError(t, err)
	return days
}

// =============================================================================
// WORKING-DAY COUNTING
// =============================================================================

func TestChargeableDays_FullWorkWeek(t *testing.T) {
	// GIVEN: Monday through Friday with no holidays
	// WHEN: Counting working days
	// THEN: 5 days are chargeable

	got := chargeable(t, emptyCalendar(), monday, friday, leave.SlotFull, leave.CountWorkingDaysOnly)
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestChargeableDays_WeekendNotCharged(t *testing.T) {
	// GIVEN: A range spanning a full week including the weekend
	// WHEN: Counting working days
	// THEN: Saturday and Sunday are skipped

	got := chargeable(t, emptyCalendar(), monday, sunday, leave.SlotFull, leave.CountWorkingDaysOnly)
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestChargeableDays_HolidayNotCharged(t *testing.T) {
	// GIVEN: A mid-week public holiday
	// WHEN: Counting Monday through Friday
	// THEN: The holiday is skipped, leaving 4 chargeable days

	cal := emptyCalendar()
	cal.Add(leave.Holiday{Date: wednesday, Name: "Founders Day"})

	got := chargeable(t, cal, monday, friday, leave.SlotFull, leave.CountWorkingDaysOnly)
	assert.True(t, got.Equal(decimal.NewFromInt(4)))
}

func TestChargeableDays_SingleWorkingDay(t *testing.T) {
	got := chargeable(t, emptyCalendar(), monday, monday, leave.SlotFull, leave.CountWorkingDaysOnly)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))
}

func TestChargeableDays_WeekendOnly_Zero(t *testing.T) {
	// GIVEN: A Saturday-to-Sunday range
	// THEN: Nothing is chargeable

	got := chargeable(t, emptyCalendar(), saturday, sunday, leave.SlotFull, leave.CountWorkingDaysOnly)
	assert.True(t, got.IsZero())
}

func TestChargeableDays_EndBeforeStart_Invalid(t *testing.T) {
	_, err := leave.ChargeableDays(emptyCalendar(), friday, monday, leave.SlotFull, leave.CountWorkingDaysOnly)
	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}

// =============================================================================
// HALF DAYS
// =============================================================================

func TestChargeableDays_HalfDay(t *testing.T) {
	// GIVEN: A morning slot on a working Monday
	// THEN: Exactly half a day is charged

	got := chargeable(t, emptyCalendar(), monday, monday, leave.SlotMorning, leave.CountWorkingDaysOnly)
	assert.True(t, got.Equal(decimal.RequireFromString("0.5")))
}

func TestChargeableDays_HalfDayOnWeekend_Zero(t *testing.T) {
	got := chargeable(t, emptyCalendar(), saturday, saturday, leave.SlotAfternoon, leave.CountWorkingDaysOnly)
	assert.True(t, got.IsZero())
}

func TestChargeableDays_HalfDayOnHoliday_Zero(t *testing.T) {
	cal := emptyCalendar()
	cal.Add(leave.Holiday{Date: monday, Name: "Founders Day"})

	got := chargeable(t, cal, monday, monday, leave.SlotMorning, leave.CountWorkingDaysOnly)
	assert.True(t, got.IsZero())
}

// =============================================================================
// CALENDAR-DAY COUNTING - maternity, ordination, military
// =============================================================================

func TestChargeableDays_AllDaysMode_CountsWeekends(t *testing.T) {
	// GIVEN: Monday through Sunday under calendar-day counting
	// THEN: All 7 days are charged, holidays included

	cal := emptyCalendar()
	cal.Add(leave.Holiday{Date: wednesday, Name: "Founders Day"})

	got := chargeable(t, cal, monday, sunday, leave.SlotFull, leave.CountAllDays)
	assert.True(t, got.Equal(decimal.NewFromInt(7)))
}

func TestChargeableDays_AllDaysMode_HalfDayOnWeekend(t *testing.T) {
	// Calendar-day types still charge the half day even on a Saturday.
	got := chargeable(t, emptyCalendar(), saturday, saturday, leave.SlotMorning, leave.CountAllDays)
	assert.True(t, got.Equal(decimal.RequireFromString("0.5")))
}
