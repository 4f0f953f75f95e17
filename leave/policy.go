/*
policy.go - Leave-type policy definitions

PURPOSE:
  A LeaveTypePolicy is the contract between the institution and employees
  for one leave type: how days are counted, the annual allocation, and the
  generic constraints (evidence threshold, advance notice, consecutive-day
  cap). Policies are immutable during a single request's lifecycle;
  administrators may edit them between requests.

POLICY vs RULE:
  The policy holds the data; the evaluation rule (rules.go) holds the
  type-specific logic. Both are dispatched by the same LeaveTypeCode.

SEE ALSO:
  - rules.go: Per-type evaluation variants
  - daycount.go: CountingMode semantics
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// COUNTING MODE
// =============================================================================

// CountingMode selects how a date range converts into chargeable days.
type CountingMode string

const (
	// CountWorkingDaysOnly charges only weekdays outside the holiday set.
	CountWorkingDaysOnly CountingMode = "working_days_only"

	// CountAllDays charges every calendar day in the range.
	CountAllDays CountingMode = "all_days"
)

// =============================================================================
// LEAVE TYPE POLICY
// =============================================================================

type LeaveTypePolicy struct {
	Code         LeaveTypeCode
	Name         string
	CountingMode CountingMode

	// AnnualAllocation is the yearly balance for tracked types. Ignored
	// when Unlimited is set.
	AnnualAllocation decimal.Decimal

	// Unlimited types carry no ledger row and place no hold.
	Unlimited bool

	// RequiresEvidenceAbove: chargeable days at or beyond this threshold
	// need supporting evidence. Nil disables the check.
	RequiresEvidenceAbove *decimal.Decimal

	// AdvanceNoticeDays: minimum days between submission and start date.
	// Nil disables the check.
	AdvanceNoticeDays *int

	// MaxConsecutiveDays: absolute ceiling on one request. Nil disables.
	MaxConsecutiveDays *int

	IsPaid      bool
	AutoApprove bool
}

// Tracked reports whether the type carries a balance ledger row.
func (p LeaveTypePolicy) Tracked() bool { return !p.Unlimited }

// PolicySource looks up the policy for a leave type.
type PolicySource interface {
	Policy(code LeaveTypeCode) (LeaveTypePolicy, bool)
	Policies() []LeaveTypePolicy
}

// =============================================================================
// STATIC POLICY SET
// =============================================================================

// StaticPolicies is a fixed in-memory PolicySource.
type StaticPolicies map[LeaveTypeCode]LeaveTypePolicy

func (sp StaticPolicies) Policy(code LeaveTypeCode) (LeaveTypePolicy, bool) {
	p, ok := sp[code]
	return p, ok
}

func (sp StaticPolicies) Policies() []LeaveTypePolicy {
	out := make([]LeaveTypePolicy, 0, len(sp))
	for _, p := range sp {
		out = append(out, p)
	}
	return out
}

// DefaultPolicies returns the institution's standard leave-type set.
func DefaultPolicies() StaticPolicies {
	evidenceAt30 := decimal.NewFromInt(30)
	return StaticPolicies{
		TypeSick: {
			Code:                  TypeSick,
			Name:                  "Sick Leave",
			CountingMode:          CountWorkingDaysOnly,
			AnnualAllocation:      decimal.NewFromInt(30),
			RequiresEvidenceAbove: &evidenceAt30,
			IsPaid:                true,
		},
		TypePersonal: {
			Code:             TypePersonal,
			Name:             "Personal Business Leave",
			CountingMode:     CountWorkingDaysOnly,
			AnnualAllocation: decimal.NewFromInt(10),
			IsPaid:           true,
		},
		TypeVacation: {
			Code:             TypeVacation,
			Name:             "Vacation",
			CountingMode:     CountWorkingDaysOnly,
			AnnualAllocation: decimal.NewFromInt(10),
			IsPaid:           true,
		},
		TypeMaternity: {
			Code:         TypeMaternity,
			Name:         "Maternity Leave",
			CountingMode: CountAllDays,
			Unlimited:    true,
			IsPaid:       true,
		},
		TypePaternity: {
			Code:             TypePaternity,
			Name:             "Paternity Leave",
			CountingMode:     CountWorkingDaysOnly,
			AnnualAllocation: decimal.NewFromInt(15),
			IsPaid:           true,
		},
		TypeChildcare: {
			Code:             TypeChildcare,
			Name:             "Childcare Leave",
			CountingMode:     CountWorkingDaysOnly,
			AnnualAllocation: decimal.NewFromInt(30),
			IsPaid:           false,
		},
		TypeOrdination: {
			Code:         TypeOrdination,
			Name:         "Ordination Leave",
			CountingMode: CountAllDays,
			Unlimited:    true,
			IsPaid:       true,
		},
		TypeMilitary: {
			Code:         TypeMilitary,
			Name:         "Military Service Leave",
			CountingMode: CountAllDays,
			Unlimited:    true,
			IsPaid:       true,
			AutoApprove:  true,
		},
	}
}

// =============================================================================
// LEDGER DEFAULTS ADAPTER
// =============================================================================

// LedgerDefaults adapts a PolicySource to the ledger's lazy row creation.
type LedgerDefaults struct {
	Policies PolicySource
}

// Allocation returns the annual allocation for a leave type and whether
// the type is balance-tracked.
func (ld LedgerDefaults) Allocation(leaveType string) (decimal.Decimal, bool) {
	p, ok := ld.Policies.Policy(LeaveTypeCode(leaveType))
	if !ok || !p.Tracked() {
		return decimal.Zero, false
	}
	return p.AnnualAllocation, true
}
