// Package memory provides in-memory store implementations for testing and
// development. One Store implements every persistence interface the engine
// consumes: ledger rows and holds, leave requests, audit events, employees,
// and holidays.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	rows      map[ledger.Key]ledger.Row
	holds     map[string]ledger.Hold
	requests  map[leave.RequestID]leave.LeaveRequest
	audit     []leave.AuditEvent
	employees map[leave.EmployeeID]leave.Employee
	holidays  map[int][]leave.Holiday
}

func New() *Store {
	return &Store{
		rows:      make(map[ledger.Key]ledger.Row),
		holds:     make(map[string]ledger.Hold),
		requests:  make(map[leave.RequestID]leave.LeaveRequest),
		employees: make(map[leave.EmployeeID]leave.Employee),
		holidays:  make(map[int][]leave.Holiday),
	}
}

// Interface checks.
var (
	_ ledger.Store            = (*Store)(nil)
	_ leave.RequestStore      = (*Store)(nil)
	_ leave.AuditLog          = (*Store)(nil)
	_ leave.EmployeeDirectory = (*Store)(nil)
	_ leave.HolidayProvider   = (*Store)(nil)
)

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

func (m *Store) GetRow(_ context.Context, key ledger.Key) (ledger.Row, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[key]
	return row, ok, nil
}

func (m *Store) InsertRow(_ context.Context, row ledger.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertRowLocked(row)
}

func (m *Store) insertRowLocked(row ledger.Row) error {
	if _, ok := m.rows[row.Key]; ok {
		return fmt.Errorf("%w: %s", ledger.ErrRowExists, row.Key)
	}
	m.rows[row.Key] = row
	return nil
}

func (m *Store) UpdateRow(_ context.Context, row ledger.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRowLocked(row)
}

func (m *Store) updateRowLocked(row ledger.Row) error {
	current, ok := m.rows[row.Key]
	if !ok {
		return fmt.Errorf("%w: row %s missing", ledger.ErrConcurrentModification, row.Key)
	}
	// Optimistic version check: stale writers lose.
	if current.Version != row.Version {
		return ledger.ErrConcurrentModification
	}
	row.Version++
	m.rows[row.Key] = row
	return nil
}

func (m *Store) ListRows(_ context.Context, fiscalYear int) ([]ledger.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Row
	for _, row := range m.rows {
		if row.Key.FiscalYear == fiscalYear {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.EmployeeID != out[j].Key.EmployeeID {
			return out[i].Key.EmployeeID < out[j].Key.EmployeeID
		}
		return out[i].Key.LeaveType < out[j].Key.LeaveType
	})
	return out, nil
}

func (m *Store) GetHold(_ context.Context, holdID string) (ledger.Hold, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hold, ok := m.holds[holdID]
	return hold, ok, nil
}

func (m *Store) InsertHold(_ context.Context, hold ledger.Hold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertHoldLocked(hold)
}

func (m *Store) insertHoldLocked(hold ledger.Hold) error {
	m.holds[hold.ID] = hold
	return nil
}

func (m *Store) UpdateHold(_ context.Context, hold ledger.Hold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateHoldLocked(hold)
}

func (m *Store) updateHoldLocked(hold ledger.Hold) error {
	if _, ok := m.holds[hold.ID]; !ok {
		return fmt.Errorf("%w: %s", ledger.ErrHoldNotFound, hold.ID)
	}
	m.holds[hold.ID] = hold
	return nil
}

// WithTx executes fn atomically. Simulated with a snapshot + rollback on
// error, under the write lock so concurrent transactions serialize.
func (m *Store) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	if err := fn(&txView{parent: m}); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	rows  map[ledger.Key]ledger.Row
	holds map[string]ledger.Hold
}

func (m *Store) snapshotLocked() memorySnapshot {
	rows := make(map[ledger.Key]ledger.Row, len(m.rows))
	for k, v := range m.rows {
		rows[k] = v
	}
	holds := make(map[string]ledger.Hold, len(m.holds))
	for k, v := range m.holds {
		holds[k] = v
	}
	return memorySnapshot{rows: rows, holds: holds}
}

func (m *Store) restoreLocked(s memorySnapshot) {
	m.rows = s.rows
	m.holds = s.holds
}

// txView operates on the parent while the parent's lock is held.
type txView struct {
	parent *Store
}

func (tv *txView) GetRow(_ context.Context, key ledger.Key) (ledger.Row, bool, error) {
	row, ok := tv.parent.rows[key]
	return row, ok, nil
}

func (tv *txView) InsertRow(_ context.Context, row ledger.Row) error {
	return tv.parent.insertRowLocked(row)
}

func (tv *txView) UpdateRow(_ context.Context, row ledger.Row) error {
	return tv.parent.updateRowLocked(row)
}

func (tv *txView) ListRows(_ context.Context, fiscalYear int) ([]ledger.Row, error) {
	var out []ledger.Row
	for _, row := range tv.parent.rows {
		if row.Key.FiscalYear == fiscalYear {
			out = append(out, row)
		}
	}
	return out, nil
}

func (tv *txView) GetHold(_ context.Context, holdID string) (ledger.Hold, bool, error) {
	hold, ok := tv.parent.holds[holdID]
	return hold, ok, nil
}

func (tv *txView) InsertHold(_ context.Context, hold ledger.Hold) error {
	return tv.parent.insertHoldLocked(hold)
}

func (tv *txView) UpdateHold(_ context.Context, hold ledger.Hold) error {
	return tv.parent.updateHoldLocked(hold)
}

func (tv *txView) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	// Already inside the transaction.
	return fn(tv)
}

// =============================================================================
// REQUEST STORE (leave.RequestStore interface)
// =============================================================================

func (m *Store) CreateRequest(_ context.Context, req *leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; ok {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *Store) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, &leave.RequestNotFoundError{RequestID: id}
	}
	out := req
	return &out, nil
}

func (m *Store) TransitionRequest(_ context.Context, id leave.RequestID, from, to leave.RequestStatus) (*leave.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, &leave.RequestNotFoundError{RequestID: id}
	}
	if req.Status != from {
		return nil, &leave.NotPendingError{RequestID: id, Status: req.Status}
	}
	req.Status = to
	req.UpdatedAt = time.Now().UTC()
	m.requests[id] = req
	out := req
	return &out, nil
}

func (m *Store) ListRequestsByEmployee(_ context.Context, id leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, req := range m.requests {
		if req.EmployeeID == id {
			r := req
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) ListRequestsByStatus(_ context.Context, status leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, req := range m.requests {
		if req.Status == status {
			r := req
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// AUDIT LOG (leave.AuditLog interface) - append-only
// =============================================================================

func (m *Store) AppendEvent(_ context.Context, event leave.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, event)
	return nil
}

func (m *Store) EventsByRequest(_ context.Context, id leave.RequestID) ([]leave.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.AuditEvent
	for _, e := range m.audit {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY (leave.EmployeeDirectory interface)
// =============================================================================

func (m *Store) PutEmployee(_ context.Context, emp leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Store) Employee(_ context.Context, id leave.EmployeeID) (leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return leave.Employee{}, fmt.Errorf("%w: %s", leave.ErrEmployeeNotFound, id)
	}
	return emp, nil
}

func (m *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// HOLIDAYS (leave.HolidayProvider interface)
// =============================================================================

func (m *Store) AddHoliday(_ context.Context, h leave.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	year := h.Date.Year()
	m.holidays[year] = append(m.holidays[year], h)
	return nil
}

func (m *Store) Holidays(_ context.Context, year int) ([]leave.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Holiday, len(m.holidays[year]))
	copy(out, m.holidays[year])
	return out, nil
}
