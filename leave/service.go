/*
service.go - Leave request lifecycle orchestration

PURPOSE:
  Wires the day counter, policy evaluator, balance ledger, request store,
  and audit trail into the operations the surrounding application calls:
  submit, confirm, reject, cancel, remaining balance, fiscal reset.

SUBMISSION FLOW:
  count chargeable days -> evaluate the leave-type rule -> place a ledger
  hold (tracked types only) -> persist the pending request -> audit.
  Evaluation errors are detected before any ledger mutation; a hold is
  released if persisting the request fails, so a request and its hold are
  created together or not at all.

RESOLUTION FLOW:
  For tracked types the ledger hold is the serialization point: the first
  confirm/reject/cancel resolves it, any competitor gets
  ErrHoldAlreadyResolved. For untracked types the request store's atomic
  status transition serves the same purpose.

AUDIT:
  Best-effort. A failed audit append is logged and swallowed; the
  transition has already committed on the request/ledger row.

SEE ALSO:
  - rules.go: The per-type evaluation variants
  - ledger package: Hold accounting
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Policies  PolicySource
	Calendar  *Calendar
	Ledger    *ledger.Ledger
	Requests  RequestStore
	Employees EmployeeDirectory
	Audit     AuditLog
	Evaluator *Evaluator
	Log       zerolog.Logger

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// SubmitInput carries one submission, including the policy-specific
// fields.
type SubmitInput struct {
	EmployeeID     EmployeeID
	LeaveType      LeaveTypeCode
	Start          Date
	End            Date
	Slot           TimeSlot
	Reason         string
	HasCertificate bool
	ChildBirthDate *Date
	CeremonyDate   *Date
	ActorID        string
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates a leave request and, on success, creates it in pending
// state with its ledger hold. Auto-approved types confirm immediately.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*LeaveRequest, error) {
	policy, ok := s.Policies.Policy(in.LeaveType)
	if !ok {
		return nil, &UnknownLeaveTypeError{Code: in.LeaveType}
	}
	// An omitted slot means a full day; a non-empty unrecognized slot is
	// the caller's mistake and is rejected, never reinterpreted.
	if in.Slot == "" {
		in.Slot = SlotFull
	} else if !in.Slot.Valid() {
		return nil, &InvalidSlotError{Slot: in.Slot}
	}

	employee, err := s.Employees.Employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	days, err := ChargeableDays(s.Calendar, in.Start, in.End, in.Slot, policy.CountingMode)
	if err != nil {
		return nil, err
	}

	decision := s.Evaluator.Evaluate(ctx, &EvalContext{
		Employee:       employee,
		Policy:         policy,
		Start:          in.Start,
		End:            in.End,
		Slot:           in.Slot,
		ChargeableDays: days,
		HasCertificate: in.HasCertificate,
		ChildBirthDate: in.ChildBirthDate,
		CeremonyDate:   in.CeremonyDate,
		Today:          DateOf(s.now()),
		Balances:       ledgerBalances{s.Ledger},
	})
	if !decision.Valid {
		return nil, decision.Err
	}

	fy := FiscalYearOf(in.Start)
	now := s.now()
	req := &LeaveRequest{
		ID:             RequestID(uuid.NewString()),
		EmployeeID:     in.EmployeeID,
		LeaveType:      in.LeaveType,
		Start:          in.Start,
		End:            in.End,
		Slot:           in.Slot,
		ChargeableDays: days,
		Status:         StatusPending,
		IsPaid:         decision.IsPaid,
		Reason:         in.Reason,
		HasCertificate: in.HasCertificate,
		ChildBirthDate: in.ChildBirthDate,
		CeremonyDate:   in.CeremonyDate,
		FiscalYear:     fy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The hold re-validates the balance atomically; a concurrent
	// submission past the evaluator still cannot overdraw here.
	if policy.Tracked() {
		key := ledger.Key{EmployeeID: string(in.EmployeeID), LeaveType: string(in.LeaveType), FiscalYear: int(fy)}
		holdID, err := s.Ledger.PlaceHold(ctx, key, days)
		if err != nil {
			return nil, err
		}
		req.HoldID = holdID
	}

	if err := s.Requests.CreateRequest(ctx, req); err != nil {
		if req.HoldID != "" {
			if rerr := s.Ledger.Release(ctx, req.HoldID); rerr != nil {
				s.Log.Error().Err(rerr).Str("hold_id", req.HoldID).Msg("releasing orphaned hold")
			}
		}
		return nil, fmt.Errorf("persisting request: %w", err)
	}

	s.audit(ctx, AuditEvent{
		RequestID:  req.ID,
		Action:     AuditSubmitted,
		ActorID:    in.ActorID,
		FromStatus: "",
		ToStatus:   StatusPending,
		Note:       in.Reason,
	})

	if decision.AutoApprove {
		confirmed, err := s.Confirm(ctx, req.ID, "system", "auto-approved")
		if err != nil {
			s.Log.Error().Err(err).Str("request_id", string(req.ID)).Msg("auto-approval failed")
			return req, nil
		}
		return confirmed, nil
	}

	return req, nil
}

// =============================================================================
// CONFIRM / REJECT / CANCEL
// =============================================================================

// Confirm converts a pending request's hold into used days.
func (s *Service) Confirm(ctx context.Context, id RequestID, actorID, note string) (*LeaveRequest, error) {
	return s.resolveRequest(ctx, id, StatusConfirmed, AuditConfirmed, actorID, note)
}

// Reject releases a pending request's hold without consuming days.
func (s *Service) Reject(ctx context.Context, id RequestID, actorID, note string) (*LeaveRequest, error) {
	return s.resolveRequest(ctx, id, StatusRejected, AuditRejected, actorID, note)
}

// Cancel releases a pending request's hold on the requester's behalf.
func (s *Service) Cancel(ctx context.Context, id RequestID, actorID, reason string) (*LeaveRequest, error) {
	return s.resolveRequest(ctx, id, StatusCancelled, AuditCancelled, actorID, reason)
}

func (s *Service) resolveRequest(ctx context.Context, id RequestID, to RequestStatus, action AuditAction, actorID, note string) (*LeaveRequest, error) {
	req, err := s.Requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &NotPendingError{RequestID: id, Status: req.Status}
	}

	// Resolve the hold first: exactly-once resolution is enforced by the
	// ledger, so a concurrent competitor fails here without touching
	// counts or the request row.
	if req.HoldID != "" {
		var lerr error
		if to == StatusConfirmed {
			lerr = s.Ledger.Confirm(ctx, req.HoldID)
		} else {
			lerr = s.Ledger.Release(ctx, req.HoldID)
		}
		if lerr != nil {
			return nil, lerr
		}
	}

	// For untracked requests this atomic transition is the serialization
	// point instead of the hold.
	updated, err := s.Requests.TransitionRequest(ctx, id, StatusPending, to)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEvent{
		RequestID:  id,
		Action:     action,
		ActorID:    actorID,
		FromStatus: StatusPending,
		ToStatus:   to,
		Note:       note,
	})

	return updated, nil
}

// =============================================================================
// QUERIES & FISCAL RESET
// =============================================================================

// RemainingBalance reads the ledger's current remaining for a triple.
func (s *Service) RemainingBalance(ctx context.Context, id EmployeeID, code LeaveTypeCode, fy FiscalYear) (decimal.Decimal, error) {
	policy, ok := s.Policies.Policy(code)
	if !ok {
		return decimal.Zero, &UnknownLeaveTypeError{Code: code}
	}
	if !policy.Tracked() {
		return decimal.Zero, fmt.Errorf("leave type %q is not balance-tracked", code)
	}
	return s.Ledger.Remaining(ctx, ledger.Key{
		EmployeeID: string(id), LeaveType: string(code), FiscalYear: int(fy),
	})
}

// BalanceRow returns the full allocated/carried/held/used split.
func (s *Service) BalanceRow(ctx context.Context, id EmployeeID, code LeaveTypeCode, fy FiscalYear) (ledger.Row, error) {
	return s.Ledger.Row(ctx, ledger.Key{
		EmployeeID: string(id), LeaveType: string(code), FiscalYear: int(fy),
	})
}

// RunFiscalReset computes carry-over and fresh allocations for a fiscal
// year. Idempotent per (employee, year).
func (s *Service) RunFiscalReset(ctx context.Context, fy FiscalYear) (ResetSummary, error) {
	calc := &FiscalCalculator{Ledger: s.Ledger, Employees: s.Employees, Policies: s.Policies, Now: s.Now}
	summary, err := calc.Run(ctx, fy)
	if err != nil {
		return summary, err
	}
	s.audit(ctx, AuditEvent{
		Action:  AuditFiscalReset,
		ActorID: "system",
		Note:    fmt.Sprintf("fiscal year %d: %d rows created", int(fy), summary.RowsCreated),
	})
	return summary, nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// audit appends best-effort: failures are logged, never propagated.
func (s *Service) audit(ctx context.Context, event AuditEvent) {
	event.ID = uuid.NewString()
	event.At = s.now()
	if err := s.Audit.AppendEvent(ctx, event); err != nil {
		s.Log.Error().Err(err).
			Str("request_id", string(event.RequestID)).
			Str("action", string(event.Action)).
			Msg("audit append failed")
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ledgerBalances adapts the ledger to the evaluator's read-only view.
type ledgerBalances struct {
	ledger *ledger.Ledger
}

func (lb ledgerBalances) Remaining(ctx context.Context, employee EmployeeID, code LeaveTypeCode, year FiscalYear) (decimal.Decimal, error) {
	return lb.ledger.Remaining(ctx, ledger.Key{
		EmployeeID: string(employee), LeaveType: string(code), FiscalYear: int(year),
	})
}
