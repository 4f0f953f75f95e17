/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubmitRequestDTO is the request body to submit a leave request.
type SubmitRequestDTO struct {
	EmployeeID     string `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Slot           string `json:"slot,omitempty"`
	Reason         string `json:"reason,omitempty"`
	HasCertificate bool   `json:"has_certificate,omitempty"`
	ChildBirthDate string `json:"child_birth_date,omitempty"`
	CeremonyDate   string `json:"ceremony_date,omitempty"`
	ActorID        string `json:"actor_id,omitempty"`
}

// ResolveRequestDTO is the request body to confirm/reject/cancel.
type ResolveRequestDTO struct {
	ActorID string `json:"actor_id,omitempty"`
	Note    string `json:"note,omitempty"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Slot           string `json:"slot"`
	ChargeableDays string `json:"chargeable_days"`
	Status         string `json:"status"`
	IsPaid         bool   `json:"is_paid"`
	Reason         string `json:"reason,omitempty"`
	FiscalYear     int    `json:"fiscal_year"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toRequestDTO(req *leave.LeaveRequest) RequestDTO {
	return RequestDTO{
		ID:             string(req.ID),
		EmployeeID:     string(req.EmployeeID),
		LeaveType:      string(req.LeaveType),
		StartDate:      req.Start.String(),
		EndDate:        req.End.String(),
		Slot:           string(req.Slot),
		ChargeableDays: req.ChargeableDays.String(),
		Status:         string(req.Status),
		IsPaid:         req.IsPaid,
		Reason:         req.Reason,
		FiscalYear:     int(req.FiscalYear),
		CreatedAt:      req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      req.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// BalanceDTO represents one balance row in API responses.
type BalanceDTO struct {
	EmployeeID  string `json:"employee_id"`
	LeaveType   string `json:"leave_type"`
	FiscalYear  int    `json:"fiscal_year"`
	Allocated   string `json:"allocated"`
	CarriedOver string `json:"carried_over"`
	Held        string `json:"held"`
	Used        string `json:"used"`
	Remaining   string `json:"remaining"`
}

func toBalanceDTO(row ledger.Row) BalanceDTO {
	return BalanceDTO{
		EmployeeID:  row.Key.EmployeeID,
		LeaveType:   row.Key.LeaveType,
		FiscalYear:  row.Key.FiscalYear,
		Allocated:   row.Allocated.String(),
		CarriedOver: row.CarriedOver.String(),
		Held:        row.Held.String(),
		Used:        row.Used.String(),
		Remaining:   row.Remaining().String(),
	}
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TenureStart  string `json:"tenure_start"`
	TenureYears  int    `json:"tenure_years"`
	SupervisorID string `json:"supervisor_id,omitempty"`
}

func toEmployeeDTO(emp leave.Employee, today leave.Date) EmployeeDTO {
	return EmployeeDTO{
		ID:           string(emp.ID),
		Name:         emp.Name,
		TenureStart:  emp.TenureStart.String(),
		TenureYears:  emp.TenureYears(today),
		SupervisorID: string(emp.SupervisorID),
	}
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TenureStart  string `json:"tenure_start"`
	SupervisorID string `json:"supervisor_id,omitempty"`
}

// PolicyDTO represents a leave-type policy in API responses.
type PolicyDTO struct {
	Code               string `json:"code"`
	Name               string `json:"name"`
	CountingMode       string `json:"counting_mode"`
	AnnualAllocation   string `json:"annual_allocation,omitempty"`
	Unlimited          bool   `json:"unlimited"`
	AdvanceNoticeDays  *int   `json:"advance_notice_days,omitempty"`
	MaxConsecutiveDays *int   `json:"max_consecutive_days,omitempty"`
	IsPaid             bool   `json:"is_paid"`
	AutoApprove        bool   `json:"auto_approve"`
}

func toPolicyDTO(p leave.LeaveTypePolicy) PolicyDTO {
	dto := PolicyDTO{
		Code:               string(p.Code),
		Name:               p.Name,
		CountingMode:       string(p.CountingMode),
		Unlimited:          p.Unlimited,
		AdvanceNoticeDays:  p.AdvanceNoticeDays,
		MaxConsecutiveDays: p.MaxConsecutiveDays,
		IsPaid:             p.IsPaid,
		AutoApprove:        p.AutoApprove,
	}
	if p.Tracked() {
		dto.AnnualAllocation = p.AnnualAllocation.String()
	}
	return dto
}

// HolidayDTO represents a declared holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// CreateHolidayRequest is the request to declare a holiday.
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// AuditEventDTO represents one audit trail entry.
type AuditEventDTO struct {
	ID         string `json:"id"`
	RequestID  string `json:"request_id,omitempty"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Note       string `json:"note,omitempty"`
	At         string `json:"at"`
}

func toAuditEventDTO(e leave.AuditEvent) AuditEventDTO {
	return AuditEventDTO{
		ID:         e.ID,
		RequestID:  string(e.RequestID),
		Action:     string(e.Action),
		ActorID:    e.ActorID,
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		Note:       e.Note,
		At:         e.At.UTC().Format(time.RFC3339),
	}
}

// FiscalResetRequest triggers a fiscal-year reset.
type FiscalResetRequest struct {
	FiscalYear int `json:"fiscal_year"`
}

// FiscalResetResponse summarizes a reset run.
type FiscalResetResponse struct {
	FiscalYear       int `json:"fiscal_year"`
	EmployeesUpdated int `json:"employees_updated"`
	RowsCreated      int `json:"rows_created"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
