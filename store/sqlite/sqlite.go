/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (ledger.Store, leave.RequestStore,
  leave.AuditLog, leave.EmployeeDirectory, leave.HolidayProvider) using
  SQLite. In production, the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  balance_rows: One row per (employee, leave type, fiscal year) with the
                allocated/carried/held/used counters and an optimistic
                locking version
  holds:        Provisional reservations, resolved exactly once
  requests:     Leave requests with their one-way status lifecycle
  audit_events: Append-only transition records
  employees:    Directory records
  holidays:     Declared non-working days

CONCURRENCY:
  UpdateRow performs a compare-and-swap on the version column; a stale
  write touches zero rows and surfaces ErrConcurrentModification, which
  the ledger retries. TransitionRequest does the same on the status
  column. A sync.Mutex additionally serializes writers because SQLite
  allows a single writer at a time.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  behind the writer.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Ledger interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Interface checks.
var (
	_ ledger.Store            = (*Store)(nil)
	_ leave.RequestStore      = (*Store)(nil)
	_ leave.AuditLog          = (*Store)(nil)
	_ leave.EmployeeDirectory = (*Store)(nil)
	_ leave.HolidayProvider   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection; the sqlite3 driver would otherwise hand ":memory:"
	// callers a fresh empty database per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Balance rows (authoritative per-year counters)
	CREATE TABLE IF NOT EXISTS balance_rows (
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		allocated TEXT NOT NULL,
		carried_over TEXT NOT NULL,
		held TEXT NOT NULL,
		used TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (employee_id, leave_type, fiscal_year)
	);

	CREATE INDEX IF NOT EXISTS idx_balance_rows_year
		ON balance_rows(fiscal_year);

	-- Holds (provisional reservations, resolved exactly once)
	CREATE TABLE IF NOT EXISTS holds (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		days TEXT NOT NULL,
		resolved_as TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		resolved_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_holds_key
		ON holds(employee_id, leave_type, fiscal_year);

	-- Leave requests (approval workflow)
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		slot TEXT NOT NULL,
		chargeable_days TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		is_paid BOOLEAN NOT NULL DEFAULT TRUE,
		reason TEXT,
		has_certificate BOOLEAN NOT NULL DEFAULT FALSE,
		child_birth_date TEXT,
		ceremony_date TEXT,
		hold_id TEXT,
		fiscal_year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);

	-- Audit events (append-only: no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		request_id TEXT,
		action TEXT NOT NULL,
		actor_id TEXT,
		from_status TEXT,
		to_status TEXT,
		note TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_events_request
		ON audit_events(request_id) WHERE request_id IS NOT NULL;

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		tenure_start TEXT NOT NULL,
		supervisor_id TEXT
	);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (date, name)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so the same statement
// helpers run inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

func (s *Store) GetRow(ctx context.Context, key ledger.Key) (ledger.Row, bool, error) {
	return getRow(ctx, s.db, key)
}

func getRow(ctx context.Context, q querier, key ledger.Key) (ledger.Row, bool, error) {
	query := `
		SELECT allocated, carried_over, held, used, version
		FROM balance_rows
		WHERE employee_id = ? AND leave_type = ? AND fiscal_year = ?
	`

	var allocated, carriedOver, held, used string
	var version int
	err := q.QueryRowContext(ctx, query, key.EmployeeID, key.LeaveType, key.FiscalYear).
		Scan(&allocated, &carriedOver, &held, &used, &version)
	if err == sql.ErrNoRows {
		return ledger.Row{}, false, nil
	}
	if err != nil {
		return ledger.Row{}, false, fmt.Errorf("failed to query balance row: %w", err)
	}

	row := ledger.Row{Key: key, Version: version}
	if row.Allocated, err = decimal.NewFromString(allocated); err != nil {
		return ledger.Row{}, false, fmt.Errorf("corrupt allocated for %s: %w", key, err)
	}
	if row.CarriedOver, err = decimal.NewFromString(carriedOver); err != nil {
		return ledger.Row{}, false, fmt.Errorf("corrupt carried_over for %s: %w", key, err)
	}
	if row.Held, err = decimal.NewFromString(held); err != nil {
		return ledger.Row{}, false, fmt.Errorf("corrupt held for %s: %w", key, err)
	}
	if row.Used, err = decimal.NewFromString(used); err != nil {
		return ledger.Row{}, false, fmt.Errorf("corrupt used for %s: %w", key, err)
	}
	return row, true, nil
}

func (s *Store) InsertRow(ctx context.Context, row ledger.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertRow(ctx, s.db, row)
}

func insertRow(ctx context.Context, q querier, row ledger.Row) error {
	query := `
		INSERT INTO balance_rows
		(employee_id, leave_type, fiscal_year, allocated, carried_over, held, used, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		row.Key.EmployeeID, row.Key.LeaveType, row.Key.FiscalYear,
		row.Allocated.String(), row.CarriedOver.String(),
		row.Held.String(), row.Used.String(), row.Version,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", ledger.ErrRowExists, row.Key)
		}
		return fmt.Errorf("failed to insert balance row: %w", err)
	}
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, row ledger.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRow(ctx, s.db, row)
}

func updateRow(ctx context.Context, q querier, row ledger.Row) error {
	// Compare-and-swap on the version column: a stale writer touches zero
	// rows and must retry from a fresh read.
	query := `
		UPDATE balance_rows
		SET allocated = ?, carried_over = ?, held = ?, used = ?, version = version + 1
		WHERE employee_id = ? AND leave_type = ? AND fiscal_year = ? AND version = ?
	`

	res, err := q.ExecContext(ctx, query,
		row.Allocated.String(), row.CarriedOver.String(),
		row.Held.String(), row.Used.String(),
		row.Key.EmployeeID, row.Key.LeaveType, row.Key.FiscalYear, row.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ledger.ErrConcurrentModification
	}
	return nil
}

func (s *Store) ListRows(ctx context.Context, fiscalYear int) ([]ledger.Row, error) {
	return listRows(ctx, s.db, fiscalYear)
}

func listRows(ctx context.Context, q querier, fiscalYear int) ([]ledger.Row, error) {
	query := `
		SELECT employee_id, leave_type, fiscal_year, allocated, carried_over, held, used, version
		FROM balance_rows
		WHERE fiscal_year = ?
		ORDER BY employee_id ASC, leave_type ASC
	`

	rows, err := q.QueryContext(ctx, query, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.Row
	for rows.Next() {
		var r ledger.Row
		var allocated, carriedOver, held, used string
		if err := rows.Scan(
			&r.Key.EmployeeID, &r.Key.LeaveType, &r.Key.FiscalYear,
			&allocated, &carriedOver, &held, &used, &r.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		if r.Allocated, err = decimal.NewFromString(allocated); err != nil {
			return nil, err
		}
		if r.CarriedOver, err = decimal.NewFromString(carriedOver); err != nil {
			return nil, err
		}
		if r.Held, err = decimal.NewFromString(held); err != nil {
			return nil, err
		}
		if r.Used, err = decimal.NewFromString(used); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetHold(ctx context.Context, holdID string) (ledger.Hold, bool, error) {
	return getHold(ctx, s.db, holdID)
}

func getHold(ctx context.Context, q querier, holdID string) (ledger.Hold, bool, error) {
	query := `
		SELECT employee_id, leave_type, fiscal_year, days, resolved_as, created_at, resolved_at
		FROM holds
		WHERE id = ?
	`

	var days, resolvedAs, createdAt string
	var resolvedAt sql.NullString
	hold := ledger.Hold{ID: holdID}
	err := q.QueryRowContext(ctx, query, holdID).Scan(
		&hold.Key.EmployeeID, &hold.Key.LeaveType, &hold.Key.FiscalYear,
		&days, &resolvedAs, &createdAt, &resolvedAt,
	)
	if err == sql.ErrNoRows {
		return ledger.Hold{}, false, nil
	}
	if err != nil {
		return ledger.Hold{}, false, fmt.Errorf("failed to query hold: %w", err)
	}

	if hold.Days, err = decimal.NewFromString(days); err != nil {
		return ledger.Hold{}, false, fmt.Errorf("corrupt hold days for %s: %w", holdID, err)
	}
	hold.ResolvedAs = ledger.Resolution(resolvedAs)
	hold.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if resolvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, resolvedAt.String)
		hold.ResolvedAt = &t
	}
	return hold, true, nil
}

func (s *Store) InsertHold(ctx context.Context, hold ledger.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertHold(ctx, s.db, hold)
}

func insertHold(ctx context.Context, q querier, hold ledger.Hold) error {
	query := `
		INSERT INTO holds
		(id, employee_id, leave_type, fiscal_year, days, resolved_as, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		hold.ID, hold.Key.EmployeeID, hold.Key.LeaveType, hold.Key.FiscalYear,
		hold.Days.String(), string(hold.ResolvedAs),
		hold.CreatedAt.UTC().Format(time.RFC3339), nullTime(hold.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert hold: %w", err)
	}
	return nil
}

func (s *Store) UpdateHold(ctx context.Context, hold ledger.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateHold(ctx, s.db, hold)
}

func updateHold(ctx context.Context, q querier, hold ledger.Hold) error {
	query := `
		UPDATE holds
		SET resolved_as = ?, resolved_at = ?
		WHERE id = ?
	`

	res, err := q.ExecContext(ctx, query,
		string(hold.ResolvedAs), nullTime(hold.ResolvedAt), hold.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update hold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrHoldNotFound, hold.ID)
	}
	return nil
}

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes ledger.Store calls through an open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetRow(ctx context.Context, key ledger.Key) (ledger.Row, bool, error) {
	return getRow(ctx, ts.tx, key)
}

func (ts *txStore) InsertRow(ctx context.Context, row ledger.Row) error {
	return insertRow(ctx, ts.tx, row)
}

func (ts *txStore) UpdateRow(ctx context.Context, row ledger.Row) error {
	return updateRow(ctx, ts.tx, row)
}

func (ts *txStore) ListRows(ctx context.Context, fiscalYear int) ([]ledger.Row, error) {
	return listRows(ctx, ts.tx, fiscalYear)
}

func (ts *txStore) GetHold(ctx context.Context, holdID string) (ledger.Hold, bool, error) {
	return getHold(ctx, ts.tx, holdID)
}

func (ts *txStore) InsertHold(ctx context.Context, hold ledger.Hold) error {
	return insertHold(ctx, ts.tx, hold)
}

func (ts *txStore) UpdateHold(ctx context.Context, hold ledger.Hold) error {
	return updateHold(ctx, ts.tx, hold)
}

func (ts *txStore) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	// Already inside the transaction.
	return fn(ts)
}

// =============================================================================
// REQUEST STORE (leave.RequestStore interface)
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, req *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO requests
		(id, employee_id, leave_type, start_date, end_date, slot, chargeable_days,
		 status, is_paid, reason, has_certificate, child_birth_date, ceremony_date,
		 hold_id, fiscal_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(req.ID), string(req.EmployeeID), string(req.LeaveType),
		req.Start.String(), req.End.String(), string(req.Slot),
		req.ChargeableDays.String(),
		string(req.Status), req.IsPaid, nullString(req.Reason), req.HasCertificate,
		nullDate(req.ChildBirthDate), nullDate(req.CeremonyDate),
		nullString(req.HoldID), int(req.FiscalYear),
		req.CreatedAt.UTC().Format(time.RFC3339), req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

const requestColumns = `
	id, employee_id, leave_type, start_date, end_date, slot, chargeable_days,
	status, is_paid, reason, has_certificate, child_birth_date, ceremony_date,
	hold_id, fiscal_year, created_at, updated_at
`

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, string(id))

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &leave.RequestNotFoundError{RequestID: id}
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// TransitionRequest performs a compare-and-swap on the status column.
func (s *Store) TransitionRequest(ctx context.Context, id leave.RequestID, from, to leave.RequestStatus) (*leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC().Format(time.RFC3339), string(id), string(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read transition result: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-transitioned.
		var status string
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM requests WHERE id = ?`, string(id)).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, &leave.RequestNotFoundError{RequestID: id}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read request status: %w", err)
		}
		return nil, &leave.NotPendingError{RequestID: id, Status: leave.RequestStatus(status)}
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, string(id))
	return scanRequest(row)
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, id leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE employee_id = ? ORDER BY created_at ASC`,
		string(id))
}

func (s *Store) ListRequestsByStatus(ctx context.Context, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE status = ? ORDER BY created_at ASC`,
		string(status))
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var out []*leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(sc scanner) (*leave.LeaveRequest, error) {
	var (
		req            leave.LeaveRequest
		startDate      string
		endDate        string
		chargeableDays string
		reason         sql.NullString
		childBirthDate sql.NullString
		ceremonyDate   sql.NullString
		holdID         sql.NullString
		createdAt      string
		updatedAt      string
	)

	err := sc.Scan(
		&req.ID, &req.EmployeeID, &req.LeaveType, &startDate, &endDate, &req.Slot,
		&chargeableDays, &req.Status, &req.IsPaid, &reason, &req.HasCertificate,
		&childBirthDate, &ceremonyDate, &holdID, &req.FiscalYear,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	if req.Start, err = leave.ParseDate(startDate); err != nil {
		return nil, err
	}
	if req.End, err = leave.ParseDate(endDate); err != nil {
		return nil, err
	}
	if req.ChargeableDays, err = decimal.NewFromString(chargeableDays); err != nil {
		return nil, fmt.Errorf("corrupt chargeable_days for %s: %w", req.ID, err)
	}
	req.Reason = reason.String
	req.HoldID = holdID.String
	if childBirthDate.Valid {
		d, err := leave.ParseDate(childBirthDate.String)
		if err != nil {
			return nil, err
		}
		req.ChildBirthDate = &d
	}
	if ceremonyDate.Valid {
		d, err := leave.ParseDate(ceremonyDate.String)
		if err != nil {
			return nil, err
		}
		req.CeremonyDate = &d
	}
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	req.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &req, nil
}

// =============================================================================
// AUDIT LOG (leave.AuditLog interface) - append-only
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, event leave.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO audit_events
		(id, request_id, action, actor_id, from_status, to_status, note, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID, nullString(string(event.RequestID)), string(event.Action),
		nullString(event.ActorID), string(event.FromStatus), string(event.ToStatus),
		nullString(event.Note), event.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

func (s *Store) EventsByRequest(ctx context.Context, id leave.RequestID) ([]leave.AuditEvent, error) {
	query := `
		SELECT id, request_id, action, actor_id, from_status, to_status, note, at
		FROM audit_events
		WHERE request_id = ?
		ORDER BY at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var out []leave.AuditEvent
	for rows.Next() {
		var (
			e         leave.AuditEvent
			requestID sql.NullString
			actorID   sql.NullString
			note      sql.NullString
			at        string
		)
		if err := rows.Scan(&e.ID, &requestID, &e.Action, &actorID,
			&e.FromStatus, &e.ToStatus, &note, &at); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.RequestID = leave.RequestID(requestID.String)
		e.ActorID = actorID.String
		e.Note = note.String
		e.At, _ = time.Parse(time.RFC3339, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEE DIRECTORY (leave.EmployeeDirectory interface)
// =============================================================================

func (s *Store) PutEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, tenure_start, supervisor_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			tenure_start = excluded.tenure_start,
			supervisor_id = excluded.supervisor_id
	`

	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), emp.Name, emp.TenureStart.String(),
		nullString(string(emp.SupervisorID)),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

func (s *Store) Employee(ctx context.Context, id leave.EmployeeID) (leave.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, tenure_start, supervisor_id FROM employees WHERE id = ?`,
		string(id))

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return leave.Employee{}, fmt.Errorf("%w: %s", leave.ErrEmployeeNotFound, id)
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, tenure_start, supervisor_id FROM employees ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func scanEmployee(sc scanner) (leave.Employee, error) {
	var (
		emp          leave.Employee
		tenureStart  string
		supervisorID sql.NullString
	)
	err := sc.Scan(&emp.ID, &emp.Name, &tenureStart, &supervisorID)
	if err == sql.ErrNoRows {
		return leave.Employee{}, err
	}
	if err != nil {
		return leave.Employee{}, fmt.Errorf("failed to scan employee: %w", err)
	}
	if emp.TenureStart, err = leave.ParseDate(tenureStart); err != nil {
		return leave.Employee{}, err
	}
	emp.SupervisorID = leave.EmployeeID(supervisorID.String)
	return emp, nil
}

// =============================================================================
// HOLIDAYS (leave.HolidayProvider interface)
// =============================================================================

func (s *Store) AddHoliday(ctx context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO holidays (date, name) VALUES (?, ?)`,
		h.Date.String(), h.Name)
	if err != nil {
		return fmt.Errorf("failed to insert holiday: %w", err)
	}
	return nil
}

func (s *Store) Holidays(ctx context.Context, year int) ([]leave.Holiday, error) {
	query := `
		SELECT date, name FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`

	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		var date string
		var h leave.Holiday
		if err := rows.Scan(&date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		if h.Date, err = leave.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *leave.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
