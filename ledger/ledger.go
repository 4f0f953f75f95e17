/*
Package ledger provides the authoritative balance accounting for leave days.

PURPOSE:
  This package contains the domain-agnostic ledger engine. It tracks, per
  (employee, leave type, fiscal year) row, how many days were allocated,
  carried over, held by pending requests, and consumed, and it enforces the
  no-overdraft invariant under concurrent submissions.

KEY CONCEPTS:
  - Key:  Composite row address (employee, leave type, fiscal year)
  - Row:  The balance counters plus an optimistic-locking version
  - Hold: A provisional reservation, resolved exactly once

CRITICAL INVARIANT, always and after every operation:

    Held + Used <= Allocated + CarriedOver

  PlaceHold re-validates this inside the store transaction, not merely at
  evaluation time. Two simultaneous holds against the same row can never
  both succeed if their combined days exceed the remaining balance.

CONCURRENCY:
  Rows carry a Version; stores reject stale writes with
  ErrConcurrentModification and the ledger retries a bounded number of
  times. Exhaustion surfaces as ErrLedgerUnavailable - never as a false
  ErrInsufficientBalance. PlaceHold never waits for another hold to
  resolve; it succeeds or fails fast.

HOLD LIFECYCLE:
  placed -> confirmed (Held -> Used)   on request confirmation
  placed -> released  (Held restored)  on rejection/cancellation

  A hold resolves exactly once. Double confirm/release returns
  HoldResolvedError and leaves counts unchanged.

SEE ALSO:
  - store.go: Persistence interface with transactional writes
  - leave/service.go: Domain orchestration using this ledger
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// KEY & ROW - Balance addressed by explicit composite key
// =============================================================================

// Key addresses one balance row. The fiscal year is explicit so that reset
// runs stay idempotent and historical balances stay queryable.
type Key struct {
	EmployeeID string
	LeaveType  string
	FiscalYear int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.EmployeeID, k.LeaveType, k.FiscalYear)
}

// Row is the ledger row for one key.
type Row struct {
	Key         Key
	Allocated   decimal.Decimal
	CarriedOver decimal.Decimal
	Held        decimal.Decimal
	Used        decimal.Decimal

	// Version supports optimistic concurrency control in stores.
	Version int
}

// Entitlement returns Allocated + CarriedOver.
func (r Row) Entitlement() decimal.Decimal {
	return r.Allocated.Add(r.CarriedOver)
}

// Remaining returns Allocated + CarriedOver - Held - Used.
func (r Row) Remaining() decimal.Decimal {
	return r.Entitlement().Sub(r.Held).Sub(r.Used)
}

// CanHold reports whether placing a hold of the given size keeps the
// invariant intact.
func (r Row) CanHold(days decimal.Decimal) bool {
	return r.Held.Add(r.Used).Add(days).LessThanOrEqual(r.Entitlement())
}

// =============================================================================
// HOLD - Provisional reservation against a row
// =============================================================================

type Resolution string

const (
	ResolutionNone      Resolution = ""
	ResolutionConfirmed Resolution = "confirmed"
	ResolutionReleased  Resolution = "released"
)

type Hold struct {
	ID         string
	Key        Key
	Days       decimal.Decimal
	ResolvedAs Resolution
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

func (h Hold) Resolved() bool { return h.ResolvedAs != ResolutionNone }

// =============================================================================
// DEFAULTS - Lazy row creation source
// =============================================================================

// Defaults supplies the annual allocation for a leave type when a row is
// first referenced. Carry-over on lazy creation is zero; fiscal resets
// create next-year rows with carry-over explicitly.
type Defaults interface {
	// Allocation returns the annual allocation for a leave type and whether
	// the type is balance-tracked at all. Untracked types never get rows.
	Allocation(leaveType string) (decimal.Decimal, bool)
}

// =============================================================================
// LEDGER - Atomic hold accounting over a Store
// =============================================================================

const maxRetries = 3

type Ledger struct {
	store    Store
	defaults Defaults
	now      func() time.Time
}

func New(store Store, defaults Defaults) *Ledger {
	return &Ledger{store: store, defaults: defaults, now: time.Now}
}

// PlaceHold reserves days against a row, creating the row lazily on first
// reference. The invariant is re-checked inside the store transaction;
// concurrent holds against the same key serialize here.
func (l *Ledger) PlaceHold(ctx context.Context, key Key, days decimal.Decimal) (string, error) {
	if !days.IsPositive() {
		return "", fmt.Errorf("hold must be positive, got %s", days.String())
	}

	holdID := uuid.NewString()
	hold := Hold{ID: holdID, Key: key, Days: days, CreatedAt: l.now().UTC()}

	err := l.withRetry(ctx, func(s Store) error {
		row, ok, err := s.GetRow(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			row, err = l.newRow(key)
			if err != nil {
				return err
			}
			if err := s.InsertRow(ctx, row); err != nil {
				return err
			}
		}

		// The concurrency-correctness requirement: re-validate at commit
		// time, then increment, as one atomic step.
		if !row.CanHold(days) {
			return &InsufficientBalanceError{Key: key, Remaining: row.Remaining(), Requested: days}
		}

		row.Held = row.Held.Add(days)
		if err := s.UpdateRow(ctx, row); err != nil {
			return err
		}
		return s.InsertHold(ctx, hold)
	})
	if err != nil {
		return "", err
	}
	return holdID, nil
}

// Confirm converts a hold into used days. Exactly-once: resolving the hold
// record is the serialization point, so a second Confirm (or a Release)
// observes the resolution and fails without touching counts.
func (l *Ledger) Confirm(ctx context.Context, holdID string) error {
	return l.resolve(ctx, holdID, ResolutionConfirmed)
}

// Release returns a hold's days to the available balance without touching
// used days. Used for reject and cancel.
func (l *Ledger) Release(ctx context.Context, holdID string) error {
	return l.resolve(ctx, holdID, ResolutionReleased)
}

func (l *Ledger) resolve(ctx context.Context, holdID string, as Resolution) error {
	return l.withRetry(ctx, func(s Store) error {
		hold, ok, err := s.GetHold(ctx, holdID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrHoldNotFound, holdID)
		}
		if hold.Resolved() {
			return &HoldResolvedError{HoldID: holdID, ResolvedAs: hold.ResolvedAs}
		}

		row, ok, err := s.GetRow(ctx, hold.Key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: row missing for hold %s", ErrLedgerUnavailable, holdID)
		}

		row.Held = row.Held.Sub(hold.Days)
		if as == ResolutionConfirmed {
			row.Used = row.Used.Add(hold.Days)
		}
		if err := s.UpdateRow(ctx, row); err != nil {
			return err
		}

		at := l.now().UTC()
		hold.ResolvedAs = as
		hold.ResolvedAt = &at
		return s.UpdateHold(ctx, hold)
	})
}

// Remaining returns the available balance for a key. Rows are created
// lazily, so an unreferenced key reports its policy default.
func (l *Ledger) Remaining(ctx context.Context, key Key) (decimal.Decimal, error) {
	row, ok, err := l.store.GetRow(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		row, err = l.newRow(key)
		if err != nil {
			return decimal.Zero, err
		}
	}
	return row.Remaining(), nil
}

// Row returns the full row for a key, materializing it lazily.
func (l *Ledger) Row(ctx context.Context, key Key) (Row, error) {
	row, ok, err := l.store.GetRow(ctx, key)
	if err != nil {
		return Row{}, err
	}
	if !ok {
		return l.newRow(key)
	}
	return row, nil
}

// RowsForYear lists all rows in a fiscal year. Used by the fiscal reset.
func (l *Ledger) RowsForYear(ctx context.Context, fiscalYear int) ([]Row, error) {
	return l.store.ListRows(ctx, fiscalYear)
}

// CreateRowIfAbsent inserts a row unless the key already exists. Returns
// whether the row was created. Fiscal resets use this for idempotency:
// re-running a reset for a year that already has rows applies nothing.
func (l *Ledger) CreateRowIfAbsent(ctx context.Context, row Row) (bool, error) {
	created := false
	err := l.withRetry(ctx, func(s Store) error {
		_, ok, err := s.GetRow(ctx, row.Key)
		if err != nil {
			return err
		}
		if ok {
			created = false
			return nil
		}
		if err := s.InsertRow(ctx, row); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (l *Ledger) newRow(key Key) (Row, error) {
	allocation, tracked := l.defaults.Allocation(key.LeaveType)
	if !tracked {
		return Row{}, fmt.Errorf("leave type %q is not balance-tracked", key.LeaveType)
	}
	return Row{Key: key, Allocated: allocation}, nil
}

// withRetry runs fn transactionally, retrying bounded times on optimistic
// locking conflicts. No external I/O happens inside the transaction, so no
// timeout is needed.
func (l *Ledger) withRetry(ctx context.Context, fn func(Store) error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = l.store.WithTx(ctx, fn)
		// A lost row-insert race is also a concurrency conflict: retry, the
		// next attempt sees the winner's row.
		if err == nil || !(IsRetryable(err) || errors.Is(err, ErrRowExists)) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
}
