package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/ledger"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// resetTime is October 1, 2025: the first day of FY2026.
var resetTime = time.Date(2025, time.October, 1, 6, 0, 0, 0, time.UTC)

func newFiscalCalculator(t *testing.T) (*leave.FiscalCalculator, *ledger.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	policies := leave.DefaultPolicies()
	l := ledger.New(store, leave.LedgerDefaults{Policies: policies})
	fc := &leave.FiscalCalculator{
		Ledger:    l,
		Employees: store,
		Policies:  policies,
		Now:       func() time.Time { return resetTime },
	}
	return fc, l, store
}

func addEmployee(t *testing.T, store *memory.Store, id string, tenureStart leave.Date) {
	t.Helper()
	err := store.PutEmployee(context.Background(), leave.Employee{
		ID:          leave.EmployeeID(id),
		Name:        id,
		TenureStart: tenureStart,
	})
	require.NoError(t, err)
}

// seedRow creates a prior-year row with the given consumption so its
// remaining lands where the test needs it.
func seedRow(t *testing.T, l *ledger.Ledger, employee string, code leave.LeaveTypeCode, fy int, allocated, carried, used int64) {
	t.Helper()
	_, err := l.CreateRowIfAbsent(context.Background(), ledger.Row{
		Key:         ledger.Key{EmployeeID: employee, LeaveType: string(code), FiscalYear: fy},
		Allocated:   decimal.NewFromInt(allocated),
		CarriedOver: decimal.NewFromInt(carried),
		Used:        decimal.NewFromInt(used),
	})
	require.NoError(t, err)
}

func rowFor(t *testing.T, l *ledger.Ledger, employee string, code leave.LeaveTypeCode, fy int) ledger.Row {
	t.Helper()
	row, err := l.Row(context.Background(), ledger.Key{EmployeeID: employee, LeaveType: string(code), FiscalYear: fy})
	require.NoError(t, err)
	return row
}

// =============================================================================
// VACATION CARRY-OVER
// =============================================================================

func TestFiscalReset_SeniorCarryOver(t *testing.T) {
	// GIVEN: A 15-year employee with 18 vacation days remaining in FY2025
	// WHEN: Running the FY2026 reset
	// THEN: All 18 days carry (senior cap 30, so max carry 20) on top of
	//       the fresh 10-day allocation

	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "senior", leave.NewDate(2010, time.June, 1))
	seedRow(t, l, "senior", leave.TypeVacation, 2025, 10, 10, 2)

	summary, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RowsCreated)
	assert.Equal(t, 1, summary.EmployeesUpdated)

	row := rowFor(t, l, "senior", leave.TypeVacation, 2026)
	assert.True(t, row.Allocated.Equal(decimal.NewFromInt(10)))
	assert.True(t, row.CarriedOver.Equal(decimal.NewFromInt(18)))
	assert.True(t, row.Remaining().Equal(decimal.NewFromInt(28)))
}

func TestFiscalReset_SeniorCarryCappedAtTwenty(t *testing.T) {
	// GIVEN: A senior employee with 25 days remaining
	// THEN: Carry is capped at 20, not 25

	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "senior", leave.NewDate(2005, time.March, 15))
	seedRow(t, l, "senior", leave.TypeVacation, 2025, 10, 15, 0)

	_, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)

	row := rowFor(t, l, "senior", leave.TypeVacation, 2026)
	assert.True(t, row.CarriedOver.Equal(decimal.NewFromInt(20)))
}

func TestFiscalReset_JuniorCarryCappedAtTen(t *testing.T) {
	// GIVEN: A 3-year employee with 15 days remaining (junior cap 20)
	// THEN: Only 10 days carry

	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "junior", leave.NewDate(2022, time.January, 15))
	seedRow(t, l, "junior", leave.TypeVacation, 2025, 10, 8, 3)

	_, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)

	row := rowFor(t, l, "junior", leave.TypeVacation, 2026)
	assert.True(t, row.CarriedOver.Equal(decimal.NewFromInt(10)))
	assert.True(t, row.Remaining().Equal(decimal.NewFromInt(20)))
}

func TestFiscalReset_ExhaustedBalance_NoCarry(t *testing.T) {
	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "emp-1", leave.NewDate(2022, time.January, 15))
	seedRow(t, l, "emp-1", leave.TypeVacation, 2025, 10, 0, 10)

	_, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)

	row := rowFor(t, l, "emp-1", leave.TypeVacation, 2026)
	assert.True(t, row.CarriedOver.IsZero())
	assert.True(t, row.Remaining().Equal(decimal.NewFromInt(10)))
}

// =============================================================================
// NON-VACATION TYPES - reset flat, no carry
// =============================================================================

func TestFiscalReset_SickResetsWithoutCarry(t *testing.T) {
	// GIVEN: A prior sick row with 25 unused days
	// THEN: The new row is the flat 30-day allocation, nothing carried

	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "emp-1", leave.NewDate(2022, time.January, 15))
	seedRow(t, l, "emp-1", leave.TypeSick, 2025, 30, 0, 5)

	_, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)

	row := rowFor(t, l, "emp-1", leave.TypeSick, 2026)
	assert.True(t, row.Allocated.Equal(decimal.NewFromInt(30)))
	assert.True(t, row.CarriedOver.IsZero())
}

// =============================================================================
// IDEMPOTENCY & SUMMARY
// =============================================================================

func TestFiscalReset_Idempotent(t *testing.T) {
	// GIVEN: A reset that already ran
	// WHEN: Running it again for the same year
	// THEN: No rows are created and carry-over is not doubled

	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "emp-1", leave.NewDate(2010, time.June, 1))
	seedRow(t, l, "emp-1", leave.TypeVacation, 2025, 10, 10, 2)

	first, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RowsCreated)

	second, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, second.RowsCreated)
	assert.Equal(t, 0, second.EmployeesUpdated)

	row := rowFor(t, l, "emp-1", leave.TypeVacation, 2026)
	assert.True(t, row.CarriedOver.Equal(decimal.NewFromInt(18)), "carry must not double on rerun")
}

func TestFiscalReset_NoPriorRows_Noop(t *testing.T) {
	fc, _, _ := newFiscalCalculator(t)

	summary, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RowsCreated)
	assert.Equal(t, 0, summary.EmployeesUpdated)
}

func TestFiscalReset_CountsEmployeesOnce(t *testing.T) {
	// An employee with vacation and sick rows counts once in the summary.
	fc, l, store := newFiscalCalculator(t)
	addEmployee(t, store, "emp-1", leave.NewDate(2022, time.January, 15))
	seedRow(t, l, "emp-1", leave.TypeVacation, 2025, 10, 0, 0)
	seedRow(t, l, "emp-1", leave.TypeSick, 2025, 30, 0, 0)

	summary, err := fc.Run(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RowsCreated)
	assert.Equal(t, 1, summary.EmployeesUpdated)
}
