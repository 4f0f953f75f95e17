/*
errors.go - Centralized error types for leave validation

PURPOSE:
  All validation error kinds in one place. Every rejection is a typed
  result to the caller, never a silent correction. Validation errors are
  detected before any ledger mutation; balance errors come from the ledger
  package and are surfaced unwrapped.

SEE ALSO:
  - rules.go: Produces these during evaluation
  - ledger/errors.go: InsufficientBalance, HoldAlreadyResolved et al.
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when the end date precedes the start.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrNoChargeableDays is returned when a request charges zero days
	// (half-day slot on a non-working day). Charge-free is not valid leave.
	ErrNoChargeableDays = errors.New("request has no chargeable days")

	// ErrMissingField is returned when a required policy-specific field is
	// absent (child birth date, ceremony date).
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidSlot is returned for an unrecognized time slot. An empty
	// slot defaults to full day; anything else must name a known slot.
	ErrInvalidSlot = errors.New("invalid time slot")

	// ErrAdvanceNoticeTooShort is returned when the notice window before a
	// related event is too short.
	ErrAdvanceNoticeTooShort = errors.New("advance notice too short")

	// ErrCertificateRequired is returned for long sick leave submitted
	// without a medical certificate.
	ErrCertificateRequired = errors.New("medical certificate required")

	// ErrExceedsAbsoluteCeiling is returned when a request exceeds a
	// leave-type's absolute day ceiling.
	ErrExceedsAbsoluteCeiling = errors.New("exceeds absolute ceiling")

	// ErrUnknownLeaveType is returned for codes with no registered rule.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrRequestNotFound is returned for unknown request IDs.
	ErrRequestNotFound = errors.New("request not found")

	// ErrNotPending is returned when confirming/rejecting/cancelling a
	// request that already left the pending state.
	ErrNotPending = errors.New("request is not pending")

	// ErrEmployeeNotFound is returned for unknown employee IDs.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownLeaveTypeError names the offending code.
type UnknownLeaveTypeError struct {
	Code LeaveTypeCode
}

func (e *UnknownLeaveTypeError) Error() string {
	return fmt.Sprintf("unknown leave type %q", e.Code)
}

func (e *UnknownLeaveTypeError) Unwrap() error { return ErrUnknownLeaveType }

// MissingFieldError names the absent policy-specific field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// InvalidSlotError names the unrecognized slot value.
type InvalidSlotError struct {
	Slot TimeSlot
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("invalid time slot %q (use %s, %s, or %s)", e.Slot, SlotFull, SlotMorning, SlotAfternoon)
}

func (e *InvalidSlotError) Unwrap() error { return ErrInvalidSlot }

// NoticeError reports an advance-notice shortfall in days.
type NoticeError struct {
	RequiredDays int
	ActualDays   int
}

func (e *NoticeError) Error() string {
	return fmt.Sprintf("advance notice too short: need %d days, got %d", e.RequiredDays, e.ActualDays)
}

func (e *NoticeError) Unwrap() error { return ErrAdvanceNoticeTooShort }

// CeilingError reports a breached absolute ceiling.
type CeilingError struct {
	CeilingDays string
	Requested   string
}

func (e *CeilingError) Error() string {
	return fmt.Sprintf("exceeds absolute ceiling: limit %s days, requested %s", e.CeilingDays, e.Requested)
}

func (e *CeilingError) Unwrap() error { return ErrExceedsAbsoluteCeiling }

// NotPendingError reports the actual status blocking a transition.
type NotPendingError struct {
	RequestID RequestID
	Status    RequestStatus
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("request %s is not pending (status %s)", e.RequestID, e.Status)
}

func (e *NotPendingError) Unwrap() error { return ErrNotPending }

// RequestNotFoundError names the missing request.
type RequestNotFoundError struct {
	RequestID RequestID
}

func (e *RequestNotFoundError) Error() string {
	return fmt.Sprintf("request not found: %s", e.RequestID)
}

func (e *RequestNotFoundError) Unwrap() error { return ErrRequestNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError reports whether the error is a policy/day-count
// rejection (caller input) rather than an infrastructure failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrNoChargeableDays) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidSlot) ||
		errors.Is(err, ErrAdvanceNoticeTooShort) ||
		errors.Is(err, ErrCertificateRequired) ||
		errors.Is(err, ErrExceedsAbsoluteCeiling) ||
		errors.Is(err, ErrUnknownLeaveType)
}
