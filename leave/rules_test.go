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
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fixedBalances answers every balance query with the same remaining.
type fixedBalances struct {
	remaining decimal.Decimal
}

func (b fixedBalances) Remaining(context.Context, leave.EmployeeID, leave.LeaveTypeCode, leave.FiscalYear) (decimal.Decimal, error) {
	return b.remaining, nil
}

// evalContext builds a context for one leave type. The start date is a
// Monday well past the fixed "today" so notice checks pass by default.
func evalContext(t *testing.T, code leave.LeaveTypeCode, chargeable string, remaining int64) *leave.EvalContext {
	t.Helper()
	policy, ok := leave.DefaultPolicies().Policy(code)
	require.True(t, ok)

	return &leave.EvalContext{
		Employee:       leave.Employee{ID: "emp-1", Name: "Somsak", TenureStart: leave.NewDate(2020, time.January, 6)},
		Policy:         policy,
		Start:          leave.NewDate(2026, time.March, 2),
		End:            leave.NewDate(2026, time.March, 6),
		Slot:           leave.SlotFull,
		ChargeableDays: decimal.RequireFromString(chargeable),
		Today:          leave.NewDate(2026, time.January, 5),
		Balances:       fixedBalances{remaining: decimal.NewFromInt(remaining)},
	}
}

func evaluate(ec *leave.EvalContext) leave.Decision {
	return leave.NewEvaluator().Evaluate(context.Background(), ec)
}

// =============================================================================
// SHARED PRE-CHECKS
// =============================================================================

func TestEvaluate_UnknownLeaveType(t *testing.T) {
	ec := evalContext(t, leave.TypeVacation, "5", 10)
	ec.Policy.Code = "sabbatical"

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrUnknownLeaveType)
}

func TestEvaluate_ZeroChargeableDays(t *testing.T) {
	// A half-day slot on a non-working day charges nothing and is not
	// valid leave for any type.
	ec := evalContext(t, leave.TypeVacation, "0", 10)

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrNoChargeableDays)
}

func TestEvaluate_AdvanceNotice(t *testing.T) {
	// GIVEN: A policy demanding 3 days notice
	// WHEN: The request starts tomorrow
	// THEN: NoticeError with the actual notice given

	notice := 3
	ec := evalContext(t, leave.TypePersonal, "1", 10)
	ec.Policy.AdvanceNoticeDays = &notice
	ec.Start = ec.Today.AddDays(1)
	ec.End = ec.Start

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrAdvanceNoticeTooShort)

	var nerr *leave.NoticeError
	require.ErrorAs(t, d.Err, &nerr)
	assert.Equal(t, 3, nerr.RequiredDays)
	assert.Equal(t, 1, nerr.ActualDays)
}

func TestEvaluate_MaxConsecutiveDays(t *testing.T) {
	limit := 3
	ec := evalContext(t, leave.TypePersonal, "5", 10)
	ec.Policy.MaxConsecutiveDays = &limit

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrExceedsAbsoluteCeiling)
}

// =============================================================================
// SICK - medical certificate from the evidence threshold
// =============================================================================

func TestEvaluate_Sick_UnderThreshold_NoCertificateNeeded(t *testing.T) {
	ec := evalContext(t, leave.TypeSick, "29", 30)

	d := evaluate(ec)
	assert.True(t, d.Valid)
	assert.True(t, d.IsPaid)
}

func TestEvaluate_Sick_AtThreshold_CertificateRequired(t *testing.T) {
	// The threshold is inclusive: exactly 30 days already needs evidence.
	ec := evalContext(t, leave.TypeSick, "30", 30)

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrCertificateRequired)
}

func TestEvaluate_Sick_AtThreshold_WithCertificate(t *testing.T) {
	ec := evalContext(t, leave.TypeSick, "30", 30)
	ec.HasCertificate = true

	d := evaluate(ec)
	assert.True(t, d.Valid)
}

func TestEvaluate_Sick_InsufficientBalance(t *testing.T) {
	ec := evalContext(t, leave.TypeSick, "5", 2)

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, ledger.ErrInsufficientBalance)
}

// =============================================================================
// VACATION & PERSONAL - pure balance checks
// =============================================================================

func TestEvaluate_Vacation_WithinBalance(t *testing.T) {
	ec := evalContext(t, leave.TypeVacation, "5", 10)

	d := evaluate(ec)
	assert.True(t, d.Valid)
	assert.True(t, d.IsPaid)
}

func TestEvaluate_Vacation_ExceedsBalance(t *testing.T) {
	ec := evalContext(t, leave.TypeVacation, "11", 10)

	d := evaluate(ec)
	assert.False(t, d.Valid)

	var ierr *ledger.InsufficientBalanceError
	require.ErrorAs(t, d.Err, &ierr)
	assert.True(t, ierr.Remaining.Equal(decimal.NewFromInt(10)))
}

func TestEvaluate_Vacation_CarryOverExtendsCap(t *testing.T) {
	// A 14-day request fits when carry-over lifted the remaining to 18.
	ec := evalContext(t, leave.TypeVacation, "14", 18)

	d := evaluate(ec)
	assert.True(t, d.Valid)
}

// =============================================================================
// MATERNITY - 90-day absolute ceiling, paid, no balance
// =============================================================================

func TestEvaluate_Maternity_AtCeiling(t *testing.T) {
	ec := evalContext(t, leave.TypeMaternity, "90", 0)

	d := evaluate(ec)
	assert.True(t, d.Valid)
	assert.True(t, d.IsPaid)
}

func TestEvaluate_Maternity_OverCeiling(t *testing.T) {
	ec := evalContext(t, leave.TypeMaternity, "91", 0)

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrExceedsAbsoluteCeiling)
}

// =============================================================================
// PATERNITY - birth date required, 90-day window
// =============================================================================

func TestEvaluate_Paternity_MissingBirthDate(t *testing.T) {
	ec := evalContext(t, leave.TypePaternity, "5", 15)

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrMissingField)

	var merr *leave.MissingFieldError
	require.ErrorAs(t, d.Err, &merr)
	assert.Equal(t, "childBirthDate", merr.Field)
}

func TestEvaluate_Paternity_WithinWindow(t *testing.T) {
	birth := leave.NewDate(2026, time.January, 10)
	ec := evalContext(t, leave.TypePaternity, "5", 15)
	ec.ChildBirthDate = &birth

	d := evaluate(ec)
	assert.True(t, d.Valid)
}

func TestEvaluate_Paternity_OutsideWindow(t *testing.T) {
	// The start is 91 days after the birth: one past the window.
	birth := leave.NewDate(2025, time.December, 1)
	ec := evalContext(t, leave.TypePaternity, "5", 15)
	ec.Start = birth.AddDays(91)
	ec.End = ec.Start.AddDays(4)
	ec.ChildBirthDate = &birth

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrExceedsAbsoluteCeiling)
}

// =============================================================================
// CHILDCARE - never paid
// =============================================================================

func TestEvaluate_Childcare_ValidButUnpaid(t *testing.T) {
	ec := evalContext(t, leave.TypeChildcare, "10", 30)

	d := evaluate(ec)
	assert.True(t, d.Valid)
	assert.False(t, d.IsPaid)
}

// =============================================================================
// ORDINATION - ceremony date, 60 days notice, 120-day ceiling
// =============================================================================

func TestEvaluate_Ordination_MissingCeremonyDate(t *testing.T) {
	ec := evalContext(t, leave.TypeOrdination, "30", 0)

	d := evaluate(ec)
	assert.False(t, d.Valid)

	var merr *leave.MissingFieldError
	require.ErrorAs(t, d.Err, &merr)
	assert.Equal(t, "ceremonyDate", merr.Field)
}

func TestEvaluate_Ordination_ShortNotice(t *testing.T) {
	// The ceremony is 59 days from today: one short of the required 60.
	ec := evalContext(t, leave.TypeOrdination, "30", 0)
	ceremony := ec.Today.AddDays(59)
	ec.CeremonyDate = &ceremony

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrAdvanceNoticeTooShort)
}

func TestEvaluate_Ordination_Valid(t *testing.T) {
	ec := evalContext(t, leave.TypeOrdination, "30", 0)
	ceremony := ec.Today.AddDays(60)
	ec.CeremonyDate = &ceremony

	d := evaluate(ec)
	assert.True(t, d.Valid)
	assert.True(t, d.IsPaid)
}

func TestEvaluate_Ordination_OverCeiling(t *testing.T) {
	ec := evalContext(t, leave.TypeOrdination, "121", 0)
	ceremony := ec.Today.AddDays(90)
	ec.CeremonyDate = &ceremony

	d := evaluate(ec)
	assert.False(t, d.Valid)
	assert.ErrorIs(t, d.Err, leave.ErrExceedsAbsoluteCeiling)
}

// =============================================================================
// MILITARY - always valid, auto-approved
// =============================================================================

func TestEvaluate_Military_AutoApproved(t *testing.T) {
	ec := evalContext(t, leave.TypeMilitary, "60", 0)

	d := evaluate(ec)
	assert.True(t, d.Valid)
	assert.True(t, d.AutoApprove)
	assert.True(t, d.IsPaid)
}
