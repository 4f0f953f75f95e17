/*
errors.go - Centralized error types for the balance ledger

PURPOSE:
  All ledger error types in one place for consistency and discoverability.
  Callers should wrap these errors with additional domain context.

ERROR CATEGORIES:
  1. Balance errors - Overdraft attempts (InsufficientBalance)
  2. Hold errors    - Double resolution, unknown holds
  3. Store errors   - Contention and availability failures

USAGE:
  Callers match with errors.Is()/errors.As():

    var insufficient *ledger.InsufficientBalanceError
    if errors.As(err, &insufficient) {
        fmt.Printf("only %s days left\n", insufficient.Remaining)
    }

SEE ALSO:
  - ledger.go: Produces these errors
  - leave/service.go: Surfaces them to callers
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when a hold would overdraw the row.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrHoldAlreadyResolved is returned when confirming or releasing a hold
	// that has already been resolved. Counts are left unchanged.
	ErrHoldAlreadyResolved = errors.New("hold already resolved")

	// ErrHoldNotFound is returned when the referenced hold does not exist.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrConcurrentModification is returned by stores when an optimistic
	// version check fails. The ledger retries these internally.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrLedgerUnavailable is returned when retries on contention are
	// exhausted or the underlying store fails. Never a false
	// ErrInsufficientBalance.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrRowExists is returned when inserting a row that already exists.
	// Fiscal resets rely on this for idempotency.
	ErrRowExists = errors.New("balance row already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a shortage together with the current
// remaining balance, for user display.
type InsufficientBalanceError struct {
	Key       Key
	Remaining decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%s/%d: remaining %s, requested %s",
		e.Key.EmployeeID, e.Key.LeaveType, e.Key.FiscalYear,
		e.Remaining.String(), e.Requested.String())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// HoldResolvedError reports a double confirm/release on the same hold.
type HoldResolvedError struct {
	HoldID     string
	ResolvedAs Resolution
}

func (e *HoldResolvedError) Error() string {
	return fmt.Sprintf("hold %s already resolved as %s", e.HoldID, e.ResolvedAs)
}

func (e *HoldResolvedError) Unwrap() error {
	return ErrHoldAlreadyResolved
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError reports whether the error is due to the caller's request
// rather than a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrHoldAlreadyResolved) ||
		errors.Is(err, ErrHoldNotFound)
}
