package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/ledger"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// staticDefaults maps leave types to allocations; absent types are
// untracked.
type staticDefaults map[string]int64

func (d staticDefaults) Allocation(leaveType string) (decimal.Decimal, bool) {
	n, ok := d[leaveType]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(n), true
}

func newTestLedger(t *testing.T) (*ledger.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	l := ledger.New(store, staticDefaults{"vacation": 10, "sick": 30})
	return l, store
}

func vacationKey(employee string) ledger.Key {
	return ledger.Key{EmployeeID: employee, LeaveType: "vacation", FiscalYear: 2026}
}

func days(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// =============================================================================
// HOLD PLACEMENT
// =============================================================================

func TestLedger_PlaceHold_LazyRowFromDefaults(t *testing.T) {
	// GIVEN: No row exists for the employee yet
	// WHEN: Placing a 3-day hold
	// THEN: The row materializes with the default allocation and the hold applied

	l, _ := newTestLedger(t)
	ctx := context.Background()

	holdID, err := l.PlaceHold(ctx, vacationKey("emp-1"), days(3))
	require.NoError(t, err)
	assert.NotEmpty(t, holdID)

	row, err := l.Row(ctx, vacationKey("emp-1"))
	require.NoError(t, err)
	assert.True(t, row.Allocated.Equal(days(10)))
	assert.True(t, row.Held.Equal(days(3)))
	assert.True(t, row.Remaining().Equal(days(7)))
}

func TestLedger_PlaceHold_Overdraft_Rejected(t *testing.T) {
	// GIVEN: A row with 10 days and an existing 7-day hold
	// WHEN: Placing another 4-day hold
	// THEN: The hold is rejected with InsufficientBalanceError and counts are unchanged

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	_, err := l.PlaceHold(ctx, key, days(7))
	require.NoError(t, err)

	_, err = l.PlaceHold(ctx, key, days(4))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	var ierr *ledger.InsufficientBalanceError
	require.ErrorAs(t, err, &ierr)
	assert.True(t, ierr.Remaining.Equal(days(3)))
	assert.True(t, ierr.Requested.Equal(days(4)))

	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Held.Equal(days(7)), "failed hold must not change counts")
}

func TestLedger_PlaceHold_UntrackedType_Rejected(t *testing.T) {
	// GIVEN: A leave type with no default allocation
	// WHEN: Placing a hold against it
	// THEN: The ledger refuses to create a row

	l, _ := newTestLedger(t)

	key := ledger.Key{EmployeeID: "emp-1", LeaveType: "maternity", FiscalYear: 2026}
	_, err := l.PlaceHold(context.Background(), key, days(5))
	assert.Error(t, err)
}

func TestLedger_PlaceHold_NonPositiveDays_Rejected(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.PlaceHold(context.Background(), vacationKey("emp-1"), decimal.Zero)
	assert.Error(t, err)

	_, err = l.PlaceHold(context.Background(), vacationKey("emp-1"), days(-1))
	assert.Error(t, err)
}

func TestLedger_PlaceHold_HalfDay(t *testing.T) {
	// GIVEN: A fresh row with 10 days
	// WHEN: Placing a 0.5-day hold
	// THEN: Remaining is 9.5

	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PlaceHold(ctx, vacationKey("emp-1"), decimal.RequireFromString("0.5"))
	require.NoError(t, err)

	remaining, err := l.Remaining(ctx, vacationKey("emp-1"))
	require.NoError(t, err)
	assert.True(t, remaining.Equal(decimal.RequireFromString("9.5")))
}

// =============================================================================
// HOLD RESOLUTION - Exactly once
// =============================================================================

func TestLedger_Confirm_MovesHeldToUsed(t *testing.T) {
	// GIVEN: A 4-day hold on a 10-day row
	// WHEN: Confirming the hold
	// THEN: Held returns to 0, Used becomes 4, Remaining is 6

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	holdID, err := l.PlaceHold(ctx, key, days(4))
	require.NoError(t, err)

	require.NoError(t, l.Confirm(ctx, holdID))

	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Held.IsZero())
	assert.True(t, row.Used.Equal(days(4)))
	assert.True(t, row.Remaining().Equal(days(6)))
}

func TestLedger_Release_RestoresBalance(t *testing.T) {
	// GIVEN: A 4-day hold on a 10-day row
	// WHEN: Releasing the hold
	// THEN: Held and Used are both 0, full balance is available again

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	holdID, err := l.PlaceHold(ctx, key, days(4))
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx, holdID))

	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Held.IsZero())
	assert.True(t, row.Used.IsZero())
	assert.True(t, row.Remaining().Equal(days(10)))
}

func TestLedger_DoubleConfirm_Rejected(t *testing.T) {
	// GIVEN: A hold that was already confirmed
	// WHEN: Confirming it again
	// THEN: HoldResolvedError; Used is not double-counted

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	holdID, err := l.PlaceHold(ctx, key, days(4))
	require.NoError(t, err)
	require.NoError(t, l.Confirm(ctx, holdID))

	err = l.Confirm(ctx, holdID)
	assert.ErrorIs(t, err, ledger.ErrHoldAlreadyResolved)

	var herr *ledger.HoldResolvedError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, ledger.ResolutionConfirmed, herr.ResolvedAs)

	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Used.Equal(days(4)), "second confirm must not touch counts")
}

func TestLedger_ReleaseAfterConfirm_Rejected(t *testing.T) {
	// GIVEN: A confirmed hold
	// WHEN: A competitor tries to release it
	// THEN: HoldResolvedError; the confirmed consumption stands

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	holdID, err := l.PlaceHold(ctx, key, days(4))
	require.NoError(t, err)
	require.NoError(t, l.Confirm(ctx, holdID))

	err = l.Release(ctx, holdID)
	assert.ErrorIs(t, err, ledger.ErrHoldAlreadyResolved)

	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Used.Equal(days(4)))
	assert.True(t, row.Held.IsZero())
}

func TestLedger_Resolve_UnknownHold(t *testing.T) {
	l, _ := newTestLedger(t)

	err := l.Confirm(context.Background(), "no-such-hold")
	assert.ErrorIs(t, err, ledger.ErrHoldNotFound)
}

// =============================================================================
// CONCURRENCY - The invariant holds under simultaneous submissions
// =============================================================================

func TestLedger_ConcurrentHolds_NeverOverdraw(t *testing.T) {
	// GIVEN: A 10-day row
	// WHEN: 20 goroutines race to place 7-day holds
	// THEN: Exactly one succeeds; Held + Used never exceeds the entitlement

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.PlaceHold(ctx, key, days(7))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, successes, "only one 7-day hold fits in 10 days")

	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Held.Add(row.Used).LessThanOrEqual(row.Entitlement()),
		"invariant: held + used <= allocated + carried over")
	assert.True(t, row.Held.Equal(days(7)))
}

func TestLedger_ConcurrentResolution_ExactlyOnce(t *testing.T) {
	// GIVEN: One pending hold
	// WHEN: Concurrent confirm and release race for it
	// THEN: Exactly one wins; the loser sees ErrHoldAlreadyResolved

	l, _ := newTestLedger(t)
	ctx := context.Background()
	key := vacationKey("emp-1")

	holdID, err := l.PlaceHold(ctx, key, days(4))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0] = l.Confirm(ctx, holdID) }()
	go func() { defer wg.Done(); results[1] = l.Release(ctx, holdID) }()
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ledger.ErrHoldAlreadyResolved)
		}
	}
	assert.Equal(t, 1, winners)

	// Whichever won, the hold is gone from Held.
	row, err := l.Row(ctx, key)
	require.NoError(t, err)
	assert.True(t, row.Held.IsZero())
}

// =============================================================================
// QUERIES & RESET SUPPORT
// =============================================================================

func TestLedger_Remaining_UnreferencedKey_ReportsDefault(t *testing.T) {
	l, _ := newTestLedger(t)

	remaining, err := l.Remaining(context.Background(), vacationKey("nobody"))
	require.NoError(t, err)
	assert.True(t, remaining.Equal(days(10)))
}

func TestLedger_CreateRowIfAbsent_Idempotent(t *testing.T) {
	// GIVEN: A reset-created row with carry-over
	// WHEN: Creating the same row again
	// THEN: The second create is a no-op and carry-over is not doubled

	l, _ := newTestLedger(t)
	ctx := context.Background()

	row := ledger.Row{
		Key:         vacationKey("emp-1"),
		Allocated:   days(10),
		CarriedOver: days(8),
	}

	created, err := l.CreateRowIfAbsent(ctx, row)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = l.CreateRowIfAbsent(ctx, row)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := l.Row(ctx, row.Key)
	require.NoError(t, err)
	assert.True(t, got.CarriedOver.Equal(days(8)))
	assert.True(t, got.Remaining().Equal(days(18)))
}

func TestLedger_RowsForYear_FiltersByFiscalYear(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PlaceHold(ctx, ledger.Key{EmployeeID: "emp-1", LeaveType: "vacation", FiscalYear: 2025}, days(1))
	require.NoError(t, err)
	_, err = l.PlaceHold(ctx, ledger.Key{EmployeeID: "emp-1", LeaveType: "vacation", FiscalYear: 2026}, days(1))
	require.NoError(t, err)
	_, err = l.PlaceHold(ctx, ledger.Key{EmployeeID: "emp-2", LeaveType: "sick", FiscalYear: 2026}, days(1))
	require.NoError(t, err)

	rows, err := l.RowsForYear(ctx, 2026)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 2026, row.Key.FiscalYear)
	}
}
