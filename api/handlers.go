/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Requests:
    POST   /api/requests               Submit leave request
    GET    /api/requests/{id}          Get request details
    GET    /api/requests/pending       List pending requests
    POST   /api/requests/{id}/confirm  Confirm (supervisor approval)
    POST   /api/requests/{id}/reject   Reject
    POST   /api/requests/{id}/cancel   Cancel (requester)
    GET    /api/requests/{id}/audit    Audit trail for a request

  Employees:
    GET    /api/employees                       List employees
    POST   /api/employees                       Create/update employee
    GET    /api/employees/{id}                  Get employee
    GET    /api/employees/{id}/requests         Request history
    GET    /api/employees/{id}/balances         All tracked balances
    GET    /api/employees/{id}/balances/{type}  One balance row

  Policies / Holidays / Admin:
    GET    /api/policies               List leave-type policies
    GET    /api/holidays               List holidays for a year
    POST   /api/holidays               Declare a holiday
    POST   /api/holidays/defaults      Seed the default holiday set
    POST   /api/admin/fiscal-reset     Run the fiscal-year reset

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Request or employee not found
  - 409: Conflict (insufficient balance, hold already resolved,
         request no longer pending)
  - 503: Ledger unavailable under contention
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/service.go: Domain operations behind these handlers
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeStore is the directory plus the write side the API needs.
type EmployeeStore interface {
	leave.EmployeeDirectory
	PutEmployee(ctx context.Context, emp leave.Employee) error
}

// HolidayStore is the holiday provider plus its write side.
type HolidayStore interface {
	leave.HolidayProvider
	AddHoliday(ctx context.Context, h leave.Holiday) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *leave.Service
	Employees EmployeeStore
	Holidays  HolidayStore
	Log       zerolog.Logger
}

// NewHandler creates a new handler around the leave service.
func NewHandler(service *leave.Service, employees EmployeeStore, holidays HolidayStore, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Employees: employees, Holidays: holidays, Log: log}
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest submits a leave request.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var dto SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := leave.ParseDate(dto.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	end, err := leave.ParseDate(dto.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
		return
	}

	in := leave.SubmitInput{
		EmployeeID:     leave.EmployeeID(dto.EmployeeID),
		LeaveType:      leave.LeaveTypeCode(dto.LeaveType),
		Start:          start,
		End:            end,
		Slot:           leave.TimeSlot(dto.Slot),
		Reason:         dto.Reason,
		HasCertificate: dto.HasCertificate,
		ActorID:        dto.ActorID,
	}
	if dto.ChildBirthDate != "" {
		d, err := leave.ParseDate(dto.ChildBirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid child_birth_date (use YYYY-MM-DD)", err)
			return
		}
		in.ChildBirthDate = &d
	}
	if dto.CeremonyDate != "" {
		d, err := leave.ParseDate(dto.CeremonyDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid ceremony_date (use YYYY-MM-DD)", err)
			return
		}
		in.CeremonyDate = &d
	}

	req, err := h.Service.Submit(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(req))
}

// GetRequest returns a single request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Service.Requests.GetRequest(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// ListPendingRequests returns all requests awaiting a decision.
// GET /api/requests/pending
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.Requests.ListRequestsByStatus(r.Context(), leave.StatusPending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}

	dtos := make([]RequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ConfirmRequest confirms a pending request.
// POST /api/requests/{id}/confirm
func (h *Handler) ConfirmRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.Service.Confirm)
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.Service.Reject)
}

// CancelRequest cancels a pending request on the requester's behalf.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.Service.Cancel)
}

func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request, op func(context.Context, leave.RequestID, string, string) (*leave.LeaveRequest, error)) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var dto ResolveRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	req, err := op(r.Context(), id, dto.ActorID, dto.Note)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// GetRequestAudit returns the audit trail for a request.
// GET /api/requests/{id}/audit
func (h *Handler) GetRequestAudit(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	events, err := h.Service.Audit.EventsByRequest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load audit trail", err)
		return
	}

	dtos := make([]AuditEventDTO, len(events))
	for i, e := range events {
		dtos[i] = toAuditEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	today := leave.Today()
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e, today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Employees.Employee(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp, leave.Today()))
}

// CreateEmployee creates or updates an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" || dto.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	tenureStart, err := leave.ParseDate(dto.TenureStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tenure_start (use YYYY-MM-DD)", err)
		return
	}

	emp := leave.Employee{
		ID:           leave.EmployeeID(dto.ID),
		Name:         dto.Name,
		TenureStart:  tenureStart,
		SupervisorID: leave.EmployeeID(dto.SupervisorID),
	}
	if err := h.Employees.PutEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp, leave.Today()))
}

// ListEmployeeRequests returns an employee's request history.
// GET /api/employees/{id}/requests
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	reqs, err := h.Service.Requests.ListRequestsByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalances returns every tracked balance row for an employee.
// GET /api/employees/{id}/balances?fiscal_year=2026
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))
	fy, err := fiscalYearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fiscal_year", err)
		return
	}

	// Verify the employee exists so unknown IDs do not mint empty rows.
	if _, err := h.Employees.Employee(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var dtos []BalanceDTO
	for _, p := range h.Service.Policies.Policies() {
		if !p.Tracked() {
			continue
		}
		row, err := h.Service.BalanceRow(r.Context(), id, p.Code, fy)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read balance", err)
			return
		}
		dtos = append(dtos, toBalanceDTO(row))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns one balance row.
// GET /api/employees/{id}/balances/{type}?fiscal_year=2026
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))
	code := leave.LeaveTypeCode(chi.URLParam(r, "type"))
	fy, err := fiscalYearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fiscal_year", err)
		return
	}

	policy, ok := h.Service.Policies.Policy(code)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown leave type", nil)
		return
	}
	if !policy.Tracked() {
		writeError(w, http.StatusBadRequest, "Leave type is not balance-tracked", nil)
		return
	}

	row, err := h.Service.BalanceRow(r.Context(), id, code, fy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(row))
}

// =============================================================================
// POLICY & HOLIDAY HANDLERS
// =============================================================================

// ListPolicies returns the leave-type policy set.
// GET /api/policies
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies := h.Service.Policies.Policies()
	dtos := make([]PolicyDTO, len(policies))
	for i, p := range policies {
		dtos[i] = toPolicyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListHolidays returns the declared holidays for a year.
// GET /api/holidays?year=2026
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := leave.Today().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = n
	}

	hs, err := h.Holidays.Holidays(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(hs))
	for i, hd := range hs {
		dtos[i] = HolidayDTO{Date: hd.Date.String(), Name: hd.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday declares a holiday and makes it effective immediately.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var dto CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := leave.ParseDate(dto.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	if dto.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	holiday := leave.Holiday{Date: date, Name: dto.Name}
	if err := h.Holidays.AddHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	h.Service.Calendar.Add(holiday)

	writeJSON(w, http.StatusCreated, HolidayDTO{Date: holiday.Date.String(), Name: holiday.Name})
}

// AddDefaultHolidays seeds the default institutional holiday set.
// POST /api/holidays/defaults?year=2026
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year := leave.Today().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = n
	}

	defaults := leave.DefaultHolidays(year)
	for _, holiday := range defaults {
		if err := h.Holidays.AddHoliday(r.Context(), holiday); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
			return
		}
		h.Service.Calendar.Add(holiday)
	}

	dtos := make([]HolidayDTO, len(defaults))
	for i, hd := range defaults {
		dtos[i] = HolidayDTO{Date: hd.Date.String(), Name: hd.Name}
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// FiscalReset runs the fiscal-year carry-over and fresh allocations.
// POST /api/admin/fiscal-reset
func (h *Handler) FiscalReset(w http.ResponseWriter, r *http.Request) {
	var dto FiscalResetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	if dto.FiscalYear == 0 {
		dto.FiscalYear = int(leave.FiscalYearOf(leave.Today()))
	}

	summary, err := h.Service.RunFiscalReset(r.Context(), leave.FiscalYear(dto.FiscalYear))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Fiscal reset failed", err)
		return
	}

	writeJSON(w, http.StatusOK, FiscalResetResponse{
		FiscalYear:       int(summary.FiscalYear),
		EmployeesUpdated: summary.EmployeesUpdated,
		RowsCreated:      summary.RowsCreated,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func fiscalYearParam(r *http.Request) (leave.FiscalYear, error) {
	if v := r.URL.Query().Get("fiscal_year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, err
		}
		return leave.FiscalYear(n), nil
	}
	return leave.FiscalYearOf(leave.Today()), nil
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, leave.ErrRequestNotFound), errors.Is(err, leave.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrHoldAlreadyResolved),
		errors.Is(err, leave.ErrNotPending):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, ledger.ErrLedgerUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Ledger unavailable, retry shortly", err)
	default:
		h.Log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
