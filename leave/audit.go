/*
audit.go - Append-only audit trail for request state transitions

PURPOSE:
  Every state transition of a leave request is recorded as one immutable
  event: who did what, from which status to which, when. Events are never
  updated or deleted.

NOT A SOURCE OF TRUTH:
  Status lives on the LeaveRequest row; the audit trail is consumed
  read-only by reporting and UI. Audit writes are best-effort: a failed
  append is logged, never rolled into the transition's outcome - the
  commit point is the request/ledger row, not the audit event.

SEE ALSO:
  - service.go: Appends events around every transition
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT EVENTS
// =============================================================================

type AuditAction string

const (
	AuditSubmitted   AuditAction = "submitted"
	AuditConfirmed   AuditAction = "confirmed"
	AuditRejected    AuditAction = "rejected"
	AuditCancelled   AuditAction = "cancelled"
	AuditFiscalReset AuditAction = "fiscal_reset"
)

// AuditEvent is one immutable transition record.
type AuditEvent struct {
	ID         string
	RequestID  RequestID
	Action     AuditAction
	ActorID    string
	FromStatus RequestStatus
	ToStatus   RequestStatus
	Note       string
	At         time.Time
}

// AuditLog stores audit events. Append-only: no update, no delete.
type AuditLog interface {
	AppendEvent(ctx context.Context, event AuditEvent) error
	EventsByRequest(ctx context.Context, id RequestID) ([]AuditEvent, error)
}
