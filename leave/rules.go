/*
rules.go - Per-leave-type evaluation rules

PURPOSE:
  One evaluation rule per leave-type code, all sharing a single signature.
  A rule decides eligibility, required supporting evidence, and whether the
  leave is paid and auto-approved. Rules are pure over their inputs plus a
  read-only balance view - evaluation never mutates the ledger.

RULE DISPATCH:
  Rules are variants registered in an Evaluator keyed by leave-type code,
  not a chain of conditionals. Adding a leave type means adding one rule
  and one registry entry, testable in isolation.

RULE SUMMARY:
  sick        evidence required from the policy threshold; balance-checked
  personal    balance-checked
  vacation    balance-checked (capped only by the ledger's remaining)
  maternity   absolute 90-day ceiling; paid; no balance check
  paternity   requires child birth date; within 90 days of it; balance-checked
  childcare   balance-checked; never paid
  ordination  requires ceremony date; 60 days notice; 120-day ceiling
  military    always valid; auto-approved; unlimited

EDGE CASES:
  Zero chargeable days (half-day slot on a non-working day) is rejected for
  every type before the variant runs - charge-free is not valid leave.

SEE ALSO:
  - daycount.go: Produces ChargeableDays for the context
  - ledger package: The authoritative balance behind BalanceReader
*/
package leave

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/ledger"
)

// Absolute ceilings and windows fixed by regulation, not per-policy data.
const (
	maternityCeilingDays  = 90
	paternityWindowDays   = 90
	ordinationNoticeDays  = 60
	ordinationCeilingDays = 120
)

// =============================================================================
// EVALUATION CONTEXT & DECISION
// =============================================================================

// BalanceReader is the read-only ledger view rules use for balance checks.
type BalanceReader interface {
	Remaining(ctx context.Context, employee EmployeeID, code LeaveTypeCode, year FiscalYear) (decimal.Decimal, error)
}

// EvalContext carries everything a rule may consult. Immutable during
// evaluation.
type EvalContext struct {
	Employee Employee
	Policy   LeaveTypePolicy

	Start Date
	End   Date
	Slot  TimeSlot

	ChargeableDays decimal.Decimal

	// Policy-specific fields.
	HasCertificate bool
	ChildBirthDate *Date
	CeremonyDate   *Date

	Today    Date
	Balances BalanceReader
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Valid       bool
	Err         error // typed rejection when !Valid
	Reason      string
	IsPaid      bool
	AutoApprove bool
}

func reject(err error, reason string) Decision {
	return Decision{Valid: false, Err: err, Reason: reason}
}

// Rule is one leave-type variant.
type Rule interface {
	Code() LeaveTypeCode
	Evaluate(ctx context.Context, ec *EvalContext) Decision
}

// =============================================================================
// EVALUATOR - Registry dispatch by leave-type code
// =============================================================================

type Evaluator struct {
	rules map[LeaveTypeCode]Rule
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{rules: make(map[LeaveTypeCode]Rule)}
	for _, r := range []Rule{
		sickRule{}, personalRule{}, vacationRule{}, maternityRule{},
		paternityRule{}, childcareRule{}, ordinationRule{}, militaryRule{},
	} {
		e.Register(r)
	}
	return e
}

func (e *Evaluator) Register(r Rule) { e.rules[r.Code()] = r }

// Evaluate runs the shared pre-checks, then the type variant.
func (e *Evaluator) Evaluate(ctx context.Context, ec *EvalContext) Decision {
	rule, ok := e.rules[ec.Policy.Code]
	if !ok {
		return reject(&UnknownLeaveTypeError{Code: ec.Policy.Code}, "unknown leave type")
	}

	if !ec.ChargeableDays.IsPositive() {
		return reject(ErrNoChargeableDays, "request charges no days")
	}

	if n := ec.Policy.AdvanceNoticeDays; n != nil {
		notice := DaysBetween(ec.Today, ec.Start)
		if notice < *n {
			return reject(&NoticeError{RequiredDays: *n, ActualDays: notice},
				fmt.Sprintf("requires %d days notice", *n))
		}
	}

	if m := ec.Policy.MaxConsecutiveDays; m != nil {
		if ec.ChargeableDays.GreaterThan(decimal.NewFromInt(int64(*m))) {
			return reject(&CeilingError{CeilingDays: strconv.Itoa(*m), Requested: ec.ChargeableDays.String()},
				fmt.Sprintf("limited to %d consecutive days", *m))
		}
	}

	return rule.Evaluate(ctx, ec)
}

// checkBalance validates the chargeable days against the ledger's current
// remaining for (employee, type, fiscal year of the start date). The
// rejection reason carries the numeric remaining for user display.
func checkBalance(ctx context.Context, ec *EvalContext) (Decision, bool) {
	fy := FiscalYearOf(ec.Start)
	remaining, err := ec.Balances.Remaining(ctx, ec.Employee.ID, ec.Policy.Code, fy)
	if err != nil {
		return reject(err, "balance unavailable"), false
	}
	if ec.ChargeableDays.GreaterThan(remaining) {
		ierr := &ledger.InsufficientBalanceError{
			Key: ledger.Key{
				EmployeeID: string(ec.Employee.ID),
				LeaveType:  string(ec.Policy.Code),
				FiscalYear: int(fy),
			},
			Remaining: remaining,
			Requested: ec.ChargeableDays,
		}
		return reject(ierr, fmt.Sprintf("insufficient balance: %s days remaining", remaining.String())), false
	}
	return Decision{}, true
}

// =============================================================================
// RULE VARIANTS
// =============================================================================

type sickRule struct{}

func (sickRule) Code() LeaveTypeCode { return TypeSick }

func (sickRule) Evaluate(ctx context.Context, ec *EvalContext) Decision {
	if t := ec.Policy.RequiresEvidenceAbove; t != nil {
		if ec.ChargeableDays.GreaterThanOrEqual(*t) && !ec.HasCertificate {
			return reject(ErrCertificateRequired,
				fmt.Sprintf("sick leave of %s days requires a medical certificate", ec.ChargeableDays.String()))
		}
	}
	if d, ok := checkBalance(ctx, ec); !ok {
		return d
	}
	return Decision{Valid: true, IsPaid: ec.Policy.IsPaid}
}

type personalRule struct{}

func (personalRule) Code() LeaveTypeCode { return TypePersonal }

func (personalRule) Evaluate(ctx context.Context, ec *EvalContext) Decision {
	if d, ok := checkBalance(ctx, ec); !ok {
		return d
	}
	return Decision{Valid: true, IsPaid: ec.Policy.IsPaid}
}

type vacationRule struct{}

func (vacationRule) Code() LeaveTypeCode { return TypeVacation }

// Vacation has no fixed ceiling beyond the ledger: whatever the row's
// current remaining is (allocation plus carry-over) caps the request.
func (vacationRule) Evaluate(ctx context.Context, ec *EvalContext) Decision {
	if d, ok := checkBalance(ctx, ec); !ok {
		return d
	}
	return Decision{Valid: true, IsPaid: ec.Policy.IsPaid}
}

type maternityRule struct{}

func (maternityRule) Code() LeaveTypeCode { return TypeMaternity }

func (maternityRule) Evaluate(_ context.Context, ec *EvalContext) Decision {
	ceiling := decimal.NewFromInt(maternityCeilingDays)
	if ec.ChargeableDays.GreaterThan(ceiling) {
		return reject(&CeilingError{CeilingDays: ceiling.String(), Requested: ec.ChargeableDays.String()},
			"maternity leave is limited to 90 days")
	}
	// Paid and not balance-checked beyond the absolute ceiling.
	return Decision{Valid: true, IsPaid: true}
}

type paternityRule struct{}

func (paternityRule) Code() LeaveTypeCode { return TypePaternity }

func (paternityRule) Evaluate(ctx context.Context, ec *EvalContext) Decision {
	if ec.ChildBirthDate == nil {
		return reject(&MissingFieldError{Field: "childBirthDate"}, "child birth date is required")
	}
	gap := DaysBetween(*ec.ChildBirthDate, ec.Start)
	if gap > paternityWindowDays {
		return reject(&CeilingError{CeilingDays: strconv.Itoa(paternityWindowDays), Requested: strconv.Itoa(gap)},
			"paternity leave must start within 90 days of the child's birth")
	}
	if d, ok := checkBalance(ctx, ec); !ok {
		return d
	}
	return Decision{Valid: true, IsPaid: ec.Policy.IsPaid}
}

type childcareRule struct{}

func (childcareRule) Code() LeaveTypeCode { return TypeChildcare }

// Childcare leave is never paid, regardless of the balance outcome.
func (childcareRule) Evaluate(ctx context.Context, ec *EvalContext) Decision {
	if d, ok := checkBalance(ctx, ec); !ok {
		d.IsPaid = false
		return d
	}
	return Decision{Valid: true, IsPaid: false}
}

type ordinationRule struct{}

func (ordinationRule) Code() LeaveTypeCode { return TypeOrdination }

func (ordinationRule) Evaluate(_ context.Context, ec *EvalContext) Decision {
	if ec.CeremonyDate == nil {
		return reject(&MissingFieldError{Field: "ceremonyDate"}, "ceremony date is required")
	}
	notice := DaysBetween(ec.Today, *ec.CeremonyDate)
	if notice < ordinationNoticeDays {
		return reject(&NoticeError{RequiredDays: ordinationNoticeDays, ActualDays: notice},
			"ordination leave requires 60 days notice before the ceremony")
	}
	ceiling := decimal.NewFromInt(ordinationCeilingDays)
	if ec.ChargeableDays.GreaterThan(ceiling) {
		return reject(&CeilingError{CeilingDays: ceiling.String(), Requested: ec.ChargeableDays.String()},
			"ordination leave is limited to 120 days")
	}
	return Decision{Valid: true, IsPaid: ec.Policy.IsPaid}
}

type militaryRule struct{}

func (militaryRule) Code() LeaveTypeCode { return TypeMilitary }

// Military service leave is always valid, auto-approved, and unlimited.
func (militaryRule) Evaluate(_ context.Context, ec *EvalContext) Decision {
	return Decision{Valid: true, IsPaid: ec.Policy.IsPaid, AutoApprove: true}
}
