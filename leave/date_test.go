package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// FISCAL YEAR - October 1 to September 30, labeled by the ending year
// =============================================================================

func TestFiscalYearOf_Boundaries(t *testing.T) {
	tests := []struct {
		date leave.Date
		want leave.FiscalYear
	}{
		{leave.NewDate(2025, time.September, 30), 2025},
		{leave.NewDate(2025, time.October, 1), 2026},
		{leave.NewDate(2026, time.January, 15), 2026},
		{leave.NewDate(2026, time.September, 30), 2026},
		{leave.NewDate(2026, time.October, 1), 2027},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leave.FiscalYearOf(tt.date), "date %s", tt.date)
	}
}

func TestFiscalYear_StartEnd(t *testing.T) {
	fy := leave.FiscalYear(2026)
	assert.True(t, fy.Start().Equal(leave.NewDate(2025, time.October, 1)))
	assert.True(t, fy.End().Equal(leave.NewDate(2026, time.September, 30)))
	assert.Equal(t, "FY2026", fy.String())
}

// =============================================================================
// DATES
// =============================================================================

func TestDate_ParseRoundTrip(t *testing.T) {
	d, err := leave.ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", d.String())
	assert.Equal(t, time.Monday, d.Weekday())
}

func TestDate_ParseRejectsGarbage(t *testing.T) {
	_, err := leave.ParseDate("02/03/2026")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := leave.NewDate(2026, time.March, 2)
	assert.Equal(t, 0, leave.DaysBetween(a, a))
	assert.Equal(t, 4, leave.DaysBetween(a, leave.NewDate(2026, time.March, 6)))
	assert.Equal(t, -4, leave.DaysBetween(leave.NewDate(2026, time.March, 6), a))
}

// =============================================================================
// TENURE
// =============================================================================

func TestEmployee_TenureYears(t *testing.T) {
	today := leave.NewDate(2025, time.September, 30)

	tests := []struct {
		name  string
		start leave.Date
		want  int
	}{
		{"fifteen years", leave.NewDate(2010, time.June, 1), 15},
		{"three and a half years", leave.NewDate(2022, time.January, 15), 3},
		{"just under one year", leave.NewDate(2024, time.October, 15), 0},
		{"starts in the future", leave.NewDate(2026, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp := leave.Employee{ID: "emp-1", TenureStart: tt.start}
			assert.Equal(t, tt.want, emp.TenureYears(today))
		})
	}
}
