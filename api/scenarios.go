/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates staff, KPIs and, optionally,
	progress submitted through the tracker so rollups and the submission
	log look exactly as they would in production.

AVAILABLE SCENARIOS:

	clinic:        Dental clinic team, five KPIs, current period filled in
	clinic-empty:  Same team and KPIs, nothing submitted yet

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create staff
 3. Create KPIs via factory
 4. Optionally submit progress as an admin (bypasses deadlines)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "clinic"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and helpers
  - factory/kpi.go: KPI JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "clinic",
		Name:        "Clinic",
		Description: "Clinic team with weekly and monthly KPIs and this period's progress",
	},
	{
		ID:          "clinic-empty",
		Name:        "Clinic (empty)",
		Description: "Clinic team and KPIs with no progress submitted",
	},
}

var clinicStaff = []kpi.Staff{
	{ID: "admin", Name: "Sanjay (Admin)", Email: "admin@clinica.com", Unit: "Diretoria"},
	{ID: "ana", Name: "Ana", Email: "ana@clinica.com", Unit: "Adm Técnica"},
	{ID: "marcia", Name: "Marcia", Email: "marcia@clinica.com", Unit: "Marketing"},
	{ID: "gabriel", Name: "Gabriel", Email: "gabriel@clinica.com", Unit: "Atendimento"},
	{ID: "michelle", Name: "Michelle", Email: "michelle@clinica.com", Unit: "Recepção"},
}

var clinicKPIs = []string{
	`{"id": "videos", "name": "Vídeos nas redes sociais",
	  "description": "8 vídeos por mês, no mínimo 2 por semana",
	  "unit_type": "count", "periodicity": "weekly+monthly",
	  "target_weekly": 2, "target_monthly": 8, "owner_id": "ana"}`,
	`{"id": "cold-calls", "name": "Ligações para lista fria",
	  "description": "Ligações ativas para reativação e agendamento",
	  "unit_type": "count", "periodicity": "weekly+monthly",
	  "target_weekly": 40, "target_monthly": 160, "owner_id": "gabriel"}`,
	`{"id": "attendance", "name": "Comparecimento em consultas confirmadas",
	  "unit_type": "percentage", "periodicity": "monthly",
	  "target_monthly": 90, "owner_id": "michelle"}`,
	`{"id": "nps", "name": "NPS - Satisfação dos pacientes",
	  "unit_type": "percentage", "periodicity": "monthly",
	  "target_monthly": 85, "owner_id": "ana"}`,
	`{"id": "sales", "name": "Vendas de planos odontológicos",
	  "unit_type": "currency", "periodicity": "monthly",
	  "target_monthly": 30000, "owner_id": "marcia", "tracks_daily": true}`,
}

// clinicProgress is filed for the current periods.
var clinicProgress = []kpi.Submission{
	{KPIID: "videos", PeriodType: generic.PeriodWeekly, Delivered: true, Value: "2"},
	{KPIID: "cold-calls", PeriodType: generic.PeriodWeekly, Delivered: true, Value: "31", Comment: "Feriado na quinta"},
	{KPIID: "attendance", PeriodType: generic.PeriodMonthly, Delivered: true, Value: "92"},
	{KPIID: "nps", PeriodType: generic.PeriodMonthly, Delivered: true, Value: "78"},
	{KPIID: "sales", PeriodType: generic.PeriodDaily, Delivered: true, Value: "R$ 4.250,00"},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrivileged(w, r, "load scenarios"); !ok {
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var withProgress bool
	switch req.ScenarioID {
	case "clinic":
		withProgress = true
	case "clinic-empty":
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.LoadClinic(r.Context(), withProgress); err != nil {
		h.writeDomainError(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// LoadClinic resets the database and seeds the clinic team.
func (h *Handler) LoadClinic(ctx context.Context, withProgress bool) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	h.purgeHolidays()

	for _, s := range clinicStaff {
		if err := h.Store.SaveStaff(ctx, s); err != nil {
			return err
		}
	}
	for _, def := range clinicKPIs {
		k, err := h.KPIFactory.ParseKPI(def)
		if err != nil {
			return fmt.Errorf("clinic kpi: %w", err)
		}
		if err := h.Store.SaveKPI(ctx, *k); err != nil {
			return err
		}
	}

	if !withProgress {
		return nil
	}
	admin := kpi.Caller{ID: "admin", Privileged: true}
	for _, sub := range clinicProgress {
		if _, err := h.Tracker.SubmitProgress(ctx, admin, sub); err != nil {
			return fmt.Errorf("clinic progress %s: %w", sub.KPIID, err)
		}
	}

	h.Logger.Info("scenario loaded", zap.String("op", "api.LoadClinic"), zap.Int("kpis", len(clinicKPIs)))
	return nil
}
