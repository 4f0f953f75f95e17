/*
fiscal.go - Annual reset and tenure-based vacation carry-over

PURPOSE:
  Runs once per fiscal-year boundary (October 1), independent of individual
  requests. Vacation balances carry unused days into the next year up to a
  tenure-based cap; every other leave type resets to its policy default
  with no carry-over.

CARRY-OVER RULE:
  tenureYears = floor((today - tenureStart) / 365.25 days)
  cap         = tenureYears >= 10 ? 30 : 20
  maxCarry    = cap - 10
  newCarry    = min(previousRemainingVacation, maxCarry)
  next year's vacation row: allocated 10, carried newCarry, held 0, used 0

IDEMPOTENCY:
  Rows are created with CreateRowIfAbsent, keyed by the explicit
  (employee, type, fiscalYear) triple. Re-running a reset for a year that
  already has rows applies nothing - carry-over is never doubled.

SEE ALSO:
  - ledger package: Row creation and the remaining calculation
  - types.go: Employee.TenureYears and the 365.25 divisor note
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/ledger"
)

// Vacation allocation granted each fiscal year, before carry-over.
var vacationAnnualAllocation = decimal.NewFromInt(10)

// =============================================================================
// FISCAL CALCULATOR
// =============================================================================

type FiscalCalculator struct {
	Ledger    *ledger.Ledger
	Employees EmployeeDirectory
	Policies  PolicySource

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// ResetSummary reports the outcome of one fiscal reset run.
type ResetSummary struct {
	FiscalYear       FiscalYear
	EmployeesUpdated int
	RowsCreated      int
}

// Run computes the reset for the given fiscal year from the prior year's
// rows. Employees without a prior vacation row are untouched; their rows
// materialize lazily with zero carry-over on first reference.
func (fc *FiscalCalculator) Run(ctx context.Context, fy FiscalYear) (ResetSummary, error) {
	summary := ResetSummary{FiscalYear: fy}
	today := fc.today()

	prior, err := fc.Ledger.RowsForYear(ctx, int(fy)-1)
	if err != nil {
		return summary, fmt.Errorf("loading prior-year rows: %w", err)
	}

	touched := make(map[string]bool)
	for _, row := range prior {
		next := ledger.Row{
			Key: ledger.Key{
				EmployeeID: row.Key.EmployeeID,
				LeaveType:  row.Key.LeaveType,
				FiscalYear: int(fy),
			},
		}

		if LeaveTypeCode(row.Key.LeaveType) == TypeVacation {
			carry, err := fc.vacationCarry(ctx, row, today)
			if err != nil {
				return summary, err
			}
			next.Allocated = vacationAnnualAllocation
			next.CarriedOver = carry
		} else {
			policy, ok := fc.Policies.Policy(LeaveTypeCode(row.Key.LeaveType))
			if !ok || !policy.Tracked() {
				continue
			}
			next.Allocated = policy.AnnualAllocation
		}

		created, err := fc.Ledger.CreateRowIfAbsent(ctx, next)
		if err != nil {
			return summary, fmt.Errorf("creating row %s: %w", next.Key, err)
		}
		if created {
			summary.RowsCreated++
			if !touched[row.Key.EmployeeID] {
				touched[row.Key.EmployeeID] = true
				summary.EmployeesUpdated++
			}
		}
	}

	return summary, nil
}

// vacationCarry computes min(previous remaining, tenure cap - 10).
func (fc *FiscalCalculator) vacationCarry(ctx context.Context, prior ledger.Row, today Date) (decimal.Decimal, error) {
	emp, err := fc.Employees.Employee(ctx, EmployeeID(prior.Key.EmployeeID))
	if err != nil {
		return decimal.Zero, fmt.Errorf("looking up employee %s: %w", prior.Key.EmployeeID, err)
	}

	capDays := 20
	if emp.TenureYears(today) >= 10 {
		capDays = 30
	}
	maxCarry := decimal.NewFromInt(int64(capDays - 10))

	remaining := prior.Remaining()
	if remaining.IsNegative() {
		return decimal.Zero, nil
	}
	if remaining.GreaterThan(maxCarry) {
		return maxCarry, nil
	}
	return remaining, nil
}

func (fc *FiscalCalculator) today() Date {
	if fc.Now != nil {
		return DateOf(fc.Now())
	}
	return Today()
}
