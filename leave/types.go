/*
Package leave implements the leave policy and balance engine.

PURPOSE:
  This package contains the domain core of the leave-management system:
  converting a requested date range into a chargeable day count under
  calendar-aware rules, evaluating per-leave-type eligibility policies,
  orchestrating the no-overdraft balance ledger, and computing annual
  carry-over for tenure-based entitlements.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID / RequestID: Type-safe identifiers
  - TimeSlot: Full day or half day (morning/afternoon, charged as 0.5)
  - LeaveRequest: The request record with its one-way status lifecycle
  - Employee: Directory record consumed from outside the core

DESIGN PRINCIPLES:
  1. Precision: day quantities use decimal.Decimal, never floats
  2. One-way lifecycle: pending -> {confirmed, rejected, cancelled}, only
  3. The ledger is the single shared mutable resource; everything else in
     this package is a pure function over immutable inputs

SEE ALSO:
  - policy.go: Leave-type policies and the evaluation rules
  - service.go: Submission/confirmation orchestration
  - ledger package: Balance rows and holds
*/
package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string

// LeaveTypeCode is the stable identifier of a leave-type policy.
type LeaveTypeCode string

const (
	TypeSick       LeaveTypeCode = "sick"
	TypePersonal   LeaveTypeCode = "personal"
	TypeVacation   LeaveTypeCode = "vacation"
	TypeMaternity  LeaveTypeCode = "maternity"
	TypePaternity  LeaveTypeCode = "paternity"
	TypeChildcare  LeaveTypeCode = "childcare"
	TypeOrdination LeaveTypeCode = "ordination"
	TypeMilitary   LeaveTypeCode = "military"
)

// =============================================================================
// TIME SLOT - Half-day support
// =============================================================================

type TimeSlot string

const (
	SlotFull      TimeSlot = "full"
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
)

func (s TimeSlot) IsHalfDay() bool { return s == SlotMorning || s == SlotAfternoon }

func (s TimeSlot) Valid() bool {
	switch s {
	case SlotFull, SlotMorning, SlotAfternoon:
		return true
	}
	return false
}

// =============================================================================
// REQUEST STATUS - One-way transitions out of pending
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusConfirmed RequestStatus = "confirmed"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) Terminal() bool { return s != StatusPending }

// =============================================================================
// EMPLOYEE - Consumed from the directory, not owned here
// =============================================================================

type Employee struct {
	ID           EmployeeID
	Name         string
	TenureStart  Date
	SupervisorID EmployeeID
}

// TenureYears returns whole years of service using the institution's fixed
// 365.25-day divisor. Kept for compatibility with the existing accrual
// rule; drifts by a day near anniversaries.
func (e Employee) TenureYears(today Date) int {
	days := DaysBetween(e.TenureStart, today)
	if days < 0 {
		return 0
	}
	return int(float64(days) / 365.25)
}

// EmployeeDirectory is the external employee lookup.
type EmployeeDirectory interface {
	Employee(ctx context.Context, id EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

// LeaveRequest is created once at submission, together with its ledger
// hold; the hold is resolved exactly once when the request leaves pending.
type LeaveRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	LeaveType  LeaveTypeCode
	Start      Date
	End        Date
	Slot       TimeSlot

	// ChargeableDays supports 0.5 for half-day slots.
	ChargeableDays decimal.Decimal

	Status RequestStatus
	IsPaid bool
	Reason string

	// Policy-specific fields.
	HasCertificate bool
	ChildBirthDate *Date
	CeremonyDate   *Date

	// HoldID links to the ledger hold. Empty for untracked leave types.
	HoldID string

	FiscalYear FiscalYear
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RequestStore persists leave requests.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *LeaveRequest) error

	// GetRequest returns RequestNotFoundError for unknown IDs.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// TransitionRequest atomically moves a request from one status to
	// another, returning NotPendingError when the current status differs
	// from the expected one.
	TransitionRequest(ctx context.Context, id RequestID, from, to RequestStatus) (*LeaveRequest, error)

	ListRequestsByEmployee(ctx context.Context, id EmployeeID) ([]*LeaveRequest, error)
	ListRequestsByStatus(ctx context.Context, status RequestStatus) ([]*LeaveRequest, error)
}
