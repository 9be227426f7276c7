/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  KPIs:
    KPIDTO (wraps factory.KPIJSON), PerformanceDTO, HistoryRecordDTO

  Progress:
    SubmitProgressRequest, SubmitProgressResponse, ProgressDTO, EntryDTO

  Periods:
    PeriodDTO, PeriodStatusDTO

  Dashboard:
    DashboardDTO, OwnerSummaryDTO

  Directory:
    StaffDTO, HolidayDTO, CreateHolidayRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in the domain (kpi.Tracker, factory), not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/kpi.go: KPIJSON type
*/
package api

import (
	"time"

	"github.com/warp/kpi-engine/factory"
	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

// =============================================================================
// KPI TYPES
// =============================================================================

// KPIDTO represents a KPI in API responses.
type KPIDTO struct {
	factory.KPIJSON
	OwnerName string `json:"owner_name,omitempty"`
}

// PerformanceDTO is the semaphore of a KPI's current period.
type PerformanceDTO struct {
	KPIID   string `json:"kpi_id"`
	Level   string `json:"level"`
	Percent *int   `json:"percent"` // null when neutral
	Base    string `json:"base,omitempty"`
}

// HistoryRecordDTO is one past period of a KPI.
type HistoryRecordDTO struct {
	PeriodKey    string `json:"period_key"`
	Label        string `json:"label"`
	Delivered    bool   `json:"delivered"`
	Value        string `json:"value"`
	DisplayValue string `json:"display_value,omitempty"`
	Comment      string `json:"comment,omitempty"`
	Level        string `json:"level"`
	Percent      int    `json:"percent"`
}

// =============================================================================
// PROGRESS TYPES
// =============================================================================

// SubmitProgressRequest is the body of POST /api/progress.
// period_key may be omitted to file for the current period.
type SubmitProgressRequest struct {
	KPIID      string `json:"kpi_id"`
	PeriodType string `json:"period_type"`
	PeriodKey  string `json:"period_key,omitempty"`
	Delivered  bool   `json:"delivered"`
	Value      string `json:"value"`
	Comment    string `json:"comment"`
}

// ProgressDTO is a stored current result.
type ProgressDTO struct {
	Delivered bool   `json:"delivered"`
	Value     string `json:"value"`
	Comment   string `json:"comment"`
}

// RollupDTO describes a monthly total recomputed by a write.
type RollupDTO struct {
	PeriodKey string      `json:"period_key"`
	Progress  ProgressDTO `json:"progress"`
	Sources   int         `json:"sources"`
}

// SubmitProgressResponse is returned after a successful submission.
type SubmitProgressResponse struct {
	Key      string      `json:"key"`
	Progress ProgressDTO `json:"progress"`
	Period   PeriodDTO   `json:"period"`
	EntryID  string      `json:"entry_id"`
	Rollup   *RollupDTO  `json:"rollup,omitempty"`
}

// EntryDTO is one row of the submission log.
type EntryDTO struct {
	ID          string `json:"id"`
	KPIID       string `json:"kpi_id"`
	PeriodType  string `json:"period_type"`
	PeriodKey   string `json:"period_key"`
	Delivered   bool   `json:"delivered"`
	Value       string `json:"value"`
	Comment     string `json:"comment,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	SubmittedAt string `json:"submitted_at"`
	SubmittedBy string `json:"submitted_by"`
}

// =============================================================================
// PERIOD TYPES
// =============================================================================

// PeriodDTO is an accounting window and whether the caller may file for it.
type PeriodDTO struct {
	Type      string `json:"type"`
	Key       string `json:"key"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	DueDate   string `json:"due_date,omitempty"`
	EntryOpen bool   `json:"entry_open"`
	Reason    string `json:"reason,omitempty"`
}

type PeriodStatusDTO struct {
	Today   string    `json:"today"`
	Weekly  PeriodDTO `json:"weekly"`
	Monthly PeriodDTO `json:"monthly"`
}

// =============================================================================
// DASHBOARD TYPES
// =============================================================================

type OwnerSummaryDTO struct {
	OwnerID        string `json:"owner_id"`
	Name           string `json:"name"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	AveragePercent int    `json:"average_percent"`
}

type DashboardDTO struct {
	Owners         []OwnerSummaryDTO `json:"owners"`
	TotalKPIs      int               `json:"total_kpis"`
	Completed      int               `json:"completed"`
	Pending        int               `json:"pending"`
	CompletionRate int               `json:"completion_rate"`
	KPIs           []PerformanceDTO  `json:"kpis"`
}

// =============================================================================
// DIRECTORY TYPES
// =============================================================================

type StaffDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Unit  string `json:"unit,omitempty"`
}

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProgressDTO(p generic.Progress) ProgressDTO {
	return ProgressDTO{Delivered: p.Delivered, Value: p.Value, Comment: p.Comment}
}

func toPerformanceDTO(id generic.KPIID, p kpi.Performance) PerformanceDTO {
	dto := PerformanceDTO{KPIID: string(id), Level: string(p.Level), Base: string(p.Base)}
	if p.Level != kpi.LevelNeutral {
		percent := p.Percent
		dto.Percent = &percent
	}
	return dto
}

func toPeriodDTO(p generic.AccountingPeriod, state generic.EntryState) PeriodDTO {
	return PeriodDTO{
		Type:      string(p.Type),
		Key:       p.Key,
		StartDate: p.Start.String(),
		EndDate:   p.End.String(),
		DueDate:   p.Due.String(),
		EntryOpen: state.Open,
		Reason:    state.Reason,
	}
}

func toEntryDTO(e generic.SubmissionEntry) EntryDTO {
	return EntryDTO{
		ID:          string(e.ID),
		KPIID:       string(e.KPIID),
		PeriodType:  string(e.PeriodType),
		PeriodKey:   e.PeriodKey,
		Delivered:   e.Delivered,
		Value:       e.Value,
		Comment:     e.Comment,
		StartDate:   e.StartDate.String(),
		EndDate:     e.EndDate.String(),
		DueDate:     e.DueDate.String(),
		SubmittedAt: e.SubmittedAt.UTC().Format(time.RFC3339),
		SubmittedBy: e.SubmittedBy,
	}
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

func toStaffDTO(s kpi.Staff) StaffDTO {
	return StaffDTO{ID: s.ID, Name: s.Name, Email: s.Email, Unit: s.Unit}
}
