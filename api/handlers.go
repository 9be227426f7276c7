/*
handlers.go - HTTP API handlers for the KPI engine

PURPOSE:
  Exposes the KPI engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the kpi.Tracker.

ENDPOINTS:
  KPIs:
    GET    /api/kpis                    List all KPIs
    POST   /api/kpis                    Create KPI (admin)
    GET    /api/kpis/{id}               Get KPI
    PUT    /api/kpis/{id}               Partial update (admin)
    DELETE /api/kpis/{id}               Delete KPI and its results (admin)
    GET    /api/kpis/{id}/performance   Current semaphore
    GET    /api/kpis/{id}/history       Past periods (?period_type=&limit=)
    GET    /api/kpis/{id}/entries       Submission log

  Progress:
    POST   /api/progress                Submit progress
    GET    /api/progress                All current results by key
    DELETE /api/progress                Delete a result (admin)

  Periods / dashboard:
    GET    /api/periods/status          Current weekly and monthly windows
    GET    /api/dashboard               Organisation summary (admin)

  Directory:
    GET/POST /api/staff
    GET/POST /api/holidays, DELETE /api/holidays/{id}

  Admin:
    POST   /api/admin/reconcile         Recompute open-month rollups
    POST   /api/scenarios/reset         Clear all data

CALLER IDENTITY:
  Credentials are verified upstream. The caller is read from the
  X-User-ID and X-User-Role headers; role "admin" is privileged.

ERROR HANDLING:
  Errors are returned as JSON with the HTTP status of their kind:
  - 400: generic.ErrValidation (malformed key, unknown KPI, bad input)
  - 403: generic.ErrPermission
  - 404: generic.ErrNotFound
  - 409: generic.ErrDeadlinePassed
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/kpi-engine/factory"
	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
	"github.com/warp/kpi-engine/store/sqlite"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	RoleAdmin      = "admin"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HistoryLimits are the default history lengths per period type.
type HistoryLimits struct {
	Weekly  int
	Monthly int
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Tracker    *kpi.Tracker
	KPIFactory *factory.KPIFactory
	Logger     *zap.Logger

	// Holidays is purged whenever a holiday changes. May be nil.
	Holidays *generic.CachedHolidayCalendar
	History  HistoryLimits
	NewID    func() string

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over store and tracker.
func NewHandler(store *sqlite.Store, tracker *kpi.Tracker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:      store,
		Tracker:    tracker,
		KPIFactory: factory.NewKPIFactory(),
		Logger:     logger,
		History:    HistoryLimits{Weekly: 4, Monthly: 6},
		NewID:      uuid.NewString,
	}
}

// =============================================================================
// KPI HANDLERS
// =============================================================================

// ListKPIs returns all KPIs.
func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.Store.ListKPIs(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list KPIs", err)
		return
	}

	names := h.staffNames(r)
	dtos := make([]KPIDTO, 0, len(kpis))
	for _, k := range kpis {
		dtos = append(dtos, KPIDTO{KPIJSON: h.KPIFactory.ToJSON(k), OwnerName: names[k.OwnerID]})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetKPI returns a single KPI.
func (h *Handler) GetKPI(w http.ResponseWriter, r *http.Request) {
	k, ok := h.loadKPI(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, KPIDTO{KPIJSON: h.KPIFactory.ToJSON(*k), OwnerName: h.staffNames(r)[k.OwnerID]})
}

// CreateKPI creates a KPI from its JSON definition.
func (h *Handler) CreateKPI(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "create KPIs"); !ok {
		return
	}

	var req factory.KPIJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	k, err := h.KPIFactory.FromJSON(req)
	if err != nil {
		h.writeDomainError(w, "Invalid KPI", err)
		return
	}
	if err := h.checkOwner(r, k.OwnerID); err != nil {
		h.writeDomainError(w, "Invalid KPI", err)
		return
	}
	existing, err := h.Store.GetKPI(r.Context(), k.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to create KPI", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "KPI already exists", nil)
		return
	}

	if err := h.Store.SaveKPI(r.Context(), *k); err != nil {
		h.writeDomainError(w, "Failed to create KPI", err)
		return
	}
	writeJSON(w, http.StatusCreated, KPIDTO{KPIJSON: h.KPIFactory.ToJSON(*k)})
}

// UpdateKPI applies a partial update.
func (h *Handler) UpdateKPI(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "update KPIs"); !ok {
		return
	}
	existing, ok := h.loadKPI(w, r)
	if !ok {
		return
	}

	var req factory.KPIUpdateJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	k, err := h.KPIFactory.ApplyUpdate(*existing, req)
	if err != nil {
		h.writeDomainError(w, "Invalid KPI", err)
		return
	}
	if req.OwnerID != nil {
		if err := h.checkOwner(r, k.OwnerID); err != nil {
			h.writeDomainError(w, "Invalid KPI", err)
			return
		}
	}

	if err := h.Store.SaveKPI(r.Context(), *k); err != nil {
		h.writeDomainError(w, "Failed to update KPI", err)
		return
	}
	writeJSON(w, http.StatusOK, KPIDTO{KPIJSON: h.KPIFactory.ToJSON(*k)})
}

// DeleteKPI removes a KPI and its current results.
func (h *Handler) DeleteKPI(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "delete KPIs"); !ok {
		return
	}
	k, ok := h.loadKPI(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteKPI(r.Context(), k.ID); err != nil {
		h.writeDomainError(w, "Failed to delete KPI", err)
		return
	}
	h.Logger.Info("kpi deleted", zap.String("op", "api.DeleteKPI"), zap.String("kpi_id", string(k.ID)))
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetPerformance returns the semaphore of the KPI's current period.
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	id := generic.KPIID(chi.URLParam(r, "id"))

	_, perf, err := h.Tracker.Performance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to evaluate KPI", err)
		return
	}
	writeJSON(w, http.StatusOK, toPerformanceDTO(id, perf))
}

// GetHistory returns past periods newest first.
// GET /api/kpis/{id}/history?period_type=weekly&limit=4
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	k, ok := h.loadKPI(w, r)
	if !ok {
		return
	}

	pt := generic.PeriodType(r.URL.Query().Get("period_type"))
	if pt == "" {
		pt = generic.PeriodMonthly
		if !k.Periodicity.HasMonthly() {
			pt = generic.PeriodWeekly
		}
	}

	limit := h.History.Monthly
	if pt == generic.PeriodWeekly {
		limit = h.History.Weekly
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	records, err := h.Tracker.History(r.Context(), k.ID, pt, limit)
	if err != nil {
		h.writeDomainError(w, "Failed to load history", err)
		return
	}

	dtos := make([]HistoryRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, HistoryRecordDTO{
			PeriodKey:    rec.PeriodKey,
			Label:        rec.Label,
			Delivered:    rec.Progress.Delivered,
			Value:        rec.Progress.Value,
			DisplayValue: displayValue(rec.Progress.Value, k.UnitType),
			Comment:      rec.Progress.Comment,
			Level:        string(rec.Performance.Level),
			Percent:      rec.Performance.Percent,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEntries returns the submission log of a KPI.
// GET /api/kpis/{id}/entries?period_type=&period_key=&limit=
func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := generic.EntryFilter{
		KPIID:      generic.KPIID(chi.URLParam(r, "id")),
		PeriodType: generic.PeriodType(q.Get("period_type")),
		PeriodKey:  q.Get("period_key"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		filter.Limit = n
	}

	entries, err := h.Tracker.Entries(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, "Failed to load entries", err)
		return
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PROGRESS HANDLERS
// =============================================================================

// SubmitProgress records a result for a period.
// POST /api/progress
func (h *Handler) SubmitProgress(w http.ResponseWriter, r *http.Request) {
	var req SubmitProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := h.Tracker.SubmitProgress(r.Context(), callerFrom(r), kpi.Submission{
		KPIID:      generic.KPIID(req.KPIID),
		PeriodType: generic.PeriodType(req.PeriodType),
		PeriodKey:  req.PeriodKey,
		Delivered:  req.Delivered,
		Value:      req.Value,
		Comment:    req.Comment,
	})
	if err != nil {
		h.writeDomainError(w, "Submission rejected", err)
		return
	}

	resp := SubmitProgressResponse{
		Key:      res.Key.String(),
		Progress: toProgressDTO(res.Progress),
		Period:   toPeriodDTO(res.Period, generic.EntryOpen),
		EntryID:  string(res.Entry.ID),
	}
	if res.Rollup != nil {
		resp.Rollup = &RollupDTO{
			PeriodKey: res.Rollup.Key.PeriodKey,
			Progress:  toProgressDTO(res.Rollup.Progress),
			Sources:   res.Rollup.Sources,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListProgress returns every current result keyed "kpiId-periodType-periodKey".
// GET /api/progress
func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.All(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list progress", err)
		return
	}

	out := make(map[string]ProgressDTO, len(all))
	for key, p := range all {
		out[key] = toProgressDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteProgress removes one current result and recomputes its rollup.
// DELETE /api/progress?kpi_id=&period_type=&period_key=
func (h *Handler) DeleteProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := generic.ProgressKey{
		KPIID:      generic.KPIID(q.Get("kpi_id")),
		PeriodType: generic.PeriodType(q.Get("period_type")),
		PeriodKey:  q.Get("period_key"),
	}

	if err := h.Tracker.DeleteProgress(r.Context(), callerFrom(r), key); err != nil {
		h.writeDomainError(w, "Failed to delete progress", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// PERIOD AND DASHBOARD HANDLERS
// =============================================================================

// GetPeriodStatus returns the current windows and whether the caller can
// still file for them.
// GET /api/periods/status
func (h *Handler) GetPeriodStatus(w http.ResponseWriter, r *http.Request) {
	status := h.Tracker.PeriodStatus(callerFrom(r).Privileged)
	writeJSON(w, http.StatusOK, PeriodStatusDTO{
		Today:   status.Today.String(),
		Weekly:  toPeriodDTO(status.Weekly.AccountingPeriod, status.Weekly.State),
		Monthly: toPeriodDTO(status.Monthly.AccountingPeriod, status.Monthly.State),
	})
}

// GetDashboard returns the organisation summary.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "view the dashboard"); !ok {
		return
	}

	d, err := h.Tracker.Dashboard(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build dashboard", err)
		return
	}

	dto := DashboardDTO{
		Owners:         make([]OwnerSummaryDTO, 0, len(d.Owners)),
		TotalKPIs:      d.TotalKPIs,
		Completed:      d.Completed,
		Pending:        d.Pending,
		CompletionRate: d.CompletionRate,
		KPIs:           make([]PerformanceDTO, 0, len(d.KPIs)),
	}
	for _, o := range d.Owners {
		dto.Owners = append(dto.Owners, OwnerSummaryDTO{
			OwnerID:        o.OwnerID,
			Name:           o.Name,
			Total:          o.Total,
			Completed:      o.Completed,
			AveragePercent: o.AveragePercent,
		})
	}
	for _, s := range d.KPIs {
		dto.KPIs = append(dto.KPIs, toPerformanceDTO(s.KPI.ID, s.Performance))
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// ListStaff returns all staff members.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.ListStaff(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list staff", err)
		return
	}
	dtos := make([]StaffDTO, 0, len(staff))
	for _, s := range staff {
		dtos = append(dtos, toStaffDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStaff creates or updates a staff member.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "manage staff"); !ok {
		return
	}

	var req StaffDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = h.NewID()
	}

	s := kpi.Staff{ID: req.ID, Name: req.Name, Email: req.Email, Unit: req.Unit}
	if err := h.Store.SaveStaff(r.Context(), s); err != nil {
		h.writeDomainError(w, "Failed to save staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(s))
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday creates a new holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "manage holidays"); !ok {
		return
	}

	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, ok := generic.ParseDayKey(req.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", nil)
		return
	}

	holiday := generic.Holiday{
		ID:        h.NewID(),
		Date:      date,
		Name:      strings.TrimSpace(req.Name),
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		h.writeDomainError(w, "Failed to create holiday", err)
		return
	}
	h.purgeHolidays()

	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "manage holidays"); !ok {
		return
	}

	found, err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Holiday not found", nil)
		return
	}
	h.purgeHolidays()

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// HELPERS
// =============================================================================

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

// writeDomainError maps an engine error to its HTTP status. Server-side
// failures are logged; client errors are already logged by the tracker.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, zap.String("op", "api"), zap.Error(err))
	}
	resp := ErrorResponse{Error: message, Code: code, Details: err.Error()}
	writeJSON(w, status, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, generic.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, generic.ErrPermission):
		return http.StatusForbidden, "permission"
	case errors.Is(err, generic.ErrDeadlinePassed):
		return http.StatusConflict, "deadline"
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, ""
	}
}

// callerFrom reads the caller identity set by the upstream auth layer.
func callerFrom(r *http.Request) kpi.Caller {
	return kpi.Caller{
		ID:         strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Privileged: strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderUserRole)), RoleAdmin),
	}
}

func requirePrivileged(w http.ResponseWriter, r *http.Request, action string) (kpi.Caller, bool) {
	caller := callerFrom(r)
	if !caller.Privileged {
		err := &generic.PermissionError{CallerID: caller.ID, Action: action}
		writeError(w, http.StatusForbidden, "Admin role required", err)
		return caller, false
	}
	return caller, true
}

func (h *Handler) loadKPI(w http.ResponseWriter, r *http.Request) (*kpi.KPI, bool) {
	id := chi.URLParam(r, "id")
	k, err := h.Store.GetKPI(r.Context(), generic.KPIID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get KPI", err)
		return nil, false
	}
	if k == nil {
		writeError(w, http.StatusNotFound, "KPI not found", nil)
		return nil, false
	}
	return k, true
}

func (h *Handler) checkOwner(r *http.Request, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	s, err := h.Store.GetStaff(r.Context(), ownerID)
	if err != nil {
		return err
	}
	if s == nil {
		return generic.Invalid("owner_id", "unknown staff member %q", ownerID)
	}
	return nil
}

// staffNames maps staff IDs to names. Lookup failures yield an empty map.
func (h *Handler) staffNames(r *http.Request) map[string]string {
	names := make(map[string]string)
	staff, err := h.Store.ListStaff(r.Context())
	if err != nil {
		h.Logger.Warn("failed to list staff", zap.String("op", "api.staffNames"), zap.Error(err))
		return names
	}
	for _, s := range staff {
		names[s.ID] = s.Name
	}
	return names
}

func (h *Handler) purgeHolidays() {
	if h.Holidays != nil {
		h.Holidays.Purge()
	}
}

func displayValue(value string, unit kpi.UnitType) string {
	if value == "" {
		return ""
	}
	return kpi.FormatValue(value, unit)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "reset data"); !ok {
		return
	}
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, "Failed to reset database", err)
		return
	}
	h.purgeHolidays()

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReconcileRollups recomputes the monthly rollups of the open months.
func (h *Handler) ReconcileRollups(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "reconcile rollups"); !ok {
		return
	}
	n, err := h.Tracker.ReconcileRollups(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to reconcile rollups", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"written": n})
}
