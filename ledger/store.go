/*
store.go - Persistence interface for balance rows and holds

PURPOSE:
  Defines the interface between the ledger and the database. Implementations
  must provide transactional writes and optimistic version checks so the
  ledger's re-check-then-increment stays a single atomic step.

CONTRACT:
  - UpdateRow compares the row's Version against the stored one, increments
    it on success, and returns ErrConcurrentModification on mismatch.
  - InsertRow returns ErrRowExists if the key is already present.
  - WithTx serializes writes: either everything inside fn commits or nothing
    does. Reads inside fn observe the transaction's own writes.

IMPLEMENTATIONS:
  - store/memory: mutex-guarded maps with snapshot rollback (tests, dev)
  - store/sqlite: SQL transactions with a version column

SEE ALSO:
  - ledger.go: The only intended caller of the write methods
*/
package ledger

import "context"

// Store persists balance rows and holds.
type Store interface {
	// GetRow loads a row by key. ok is false when the key has never been
	// written.
	GetRow(ctx context.Context, key Key) (row Row, ok bool, err error)

	// InsertRow creates a row. Returns ErrRowExists if the key is taken.
	InsertRow(ctx context.Context, row Row) error

	// UpdateRow writes a row guarded by its Version. Returns
	// ErrConcurrentModification if the stored version differs.
	UpdateRow(ctx context.Context, row Row) error

	// ListRows returns every row for a fiscal year.
	ListRows(ctx context.Context, fiscalYear int) ([]Row, error)

	// GetHold loads a hold by ID.
	GetHold(ctx context.Context, holdID string) (hold Hold, ok bool, err error)

	// InsertHold creates a hold record.
	InsertHold(ctx context.Context, hold Hold) error

	// UpdateHold writes a hold's resolution.
	UpdateHold(ctx context.Context, hold Hold) error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. The Store
	// passed to fn operates inside the transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
