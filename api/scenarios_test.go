/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Checks that each scenario sets up the expected state and that the seed
	data goes through the same validation as real submissions.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_ClinicWithProgress(t *testing.T) {
	// GIVEN: An empty database
	// WHEN: Loading the clinic scenario
	// THEN: Staff, KPIs and this period's progress exist

	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", "admin", RoleAdmin, LoadScenarioRequest{ScenarioID: "clinic"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	staff := decode[[]StaffDTO](t, ts.do(t, http.MethodGet, "/api/staff", "ana", "", nil))
	assert.Len(t, staff, len(clinicStaff))

	kpis := decode[[]KPIDTO](t, ts.do(t, http.MethodGet, "/api/kpis", "ana", "", nil))
	assert.Len(t, kpis, len(clinicKPIs))

	all := decode[map[string]ProgressDTO](t, ts.do(t, http.MethodGet, "/api/progress", "ana", "", nil))
	assert.Equal(t, "2", all["videos-weekly-2024-W11"].Value)
	assert.Equal(t, "4250", all["sales-daily-2024-03-13"].Value)
	assert.Equal(t, "4250", all["sales-monthly-2024-03"].Value, "daily sales roll up")
	assert.Equal(t, "78", all["nps-monthly-2024-02"].Value)

	current := decode[ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios/current", "ana", "", nil))
	assert.Equal(t, "clinic", current.ID)
}

func TestScenario_ClinicEmptyAndReset(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	require.NoError(t, ts.handler.LoadClinic(ctx, true))
	require.NoError(t, ts.handler.LoadClinic(ctx, false), "reloading resets first")

	all, err := ts.handler.Store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/reset", "admin", RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	kpis, err := ts.handler.Store.ListKPIs(ctx)
	require.NoError(t, err)
	assert.Empty(t, kpis)
}

func TestScenario_LoadRequiresAdminAndKnownID(t *testing.T) {
	ts := setupTestServer(t)

	assert.Equal(t, http.StatusForbidden,
		ts.do(t, http.MethodPost, "/api/scenarios/load", "ana", "", LoadScenarioRequest{ScenarioID: "clinic"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(t, http.MethodPost, "/api/scenarios/load", "admin", RoleAdmin, LoadScenarioRequest{ScenarioID: "hospital"}).Code)

	list := decode[[]ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios", "", "", nil))
	assert.Len(t, list, 2)
}
