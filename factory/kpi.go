/*
Package factory provides JSON to Go KPI conversion.

PURPOSE:
  Converts JSON KPI definitions into kpi.KPI values. Admin tools and the
  HTTP layer hand the factory raw JSON; the factory validates it, applies
  defaults, and drops the target the periodicity does not use.

JSON SCHEMA:
  {
    "id": "videos",
    "name": "Videos published",
    "description": "Short clips for social media",
    "unit_type": "count",
    "periodicity": "weekly+monthly",
    "target_weekly": 2,
    "target_monthly": 8,
    "owner_id": "ana",
    "tracks_daily": false
  }

RULES:
  - name, unit_type and periodicity are required
  - a target is required for every granularity the periodicity includes
  - targets are non-negative
  - the target of an unused granularity is cleared, never kept

USAGE:
  f := NewKPIFactory()
  k, err := f.ParseKPI(jsonString)

  // Partial update (PUT /api/kpis/{id})
  updated, err := f.ApplyUpdate(*existing, update)

SEE ALSO:
  - kpi/types.go: KPI type definition
  - api/handlers.go: HTTP endpoints that call the factory
*/
package factory

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// KPIJSON is the JSON representation of a KPI.
type KPIJSON struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	UnitType      string   `json:"unit_type"`
	Periodicity   string   `json:"periodicity"`
	TargetWeekly  *float64 `json:"target_weekly"`
	TargetMonthly *float64 `json:"target_monthly"`
	OwnerID       string   `json:"owner_id,omitempty"`
	TracksDaily   bool     `json:"tracks_daily,omitempty"`
}

// KPIUpdateJSON is a partial update. Nil fields are left unchanged.
type KPIUpdateJSON struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	UnitType      *string  `json:"unit_type"`
	Periodicity   *string  `json:"periodicity"`
	TargetWeekly  *float64 `json:"target_weekly"`
	TargetMonthly *float64 `json:"target_monthly"`
	OwnerID       *string  `json:"owner_id"`
	TracksDaily   *bool    `json:"tracks_daily"`
}

// =============================================================================
// KPI FACTORY
// =============================================================================

// KPIFactory converts JSON KPIs to Go structs.
type KPIFactory struct {
	NewID func() string
}

// NewKPIFactory creates a factory that assigns random IDs to KPIs
// defined without one.
func NewKPIFactory() *KPIFactory {
	return &KPIFactory{NewID: uuid.NewString}
}

// ParseKPI parses a JSON string into a KPI.
func (f *KPIFactory) ParseKPI(jsonStr string) (*kpi.KPI, error) {
	var kj KPIJSON
	if err := json.Unmarshal([]byte(jsonStr), &kj); err != nil {
		return nil, generic.Invalid("body", "failed to parse KPI JSON: %v", err)
	}
	return f.FromJSON(kj)
}

// FromJSON validates a KPIJSON and converts it.
func (f *KPIFactory) FromJSON(kj KPIJSON) (*kpi.KPI, error) {
	k := kpi.KPI{
		ID:          generic.KPIID(strings.TrimSpace(kj.ID)),
		Name:        strings.TrimSpace(kj.Name),
		Description: strings.TrimSpace(kj.Description),
		UnitType:    kpi.UnitType(kj.UnitType),
		Periodicity: kpi.Periodicity(kj.Periodicity),
		OwnerID:     strings.TrimSpace(kj.OwnerID),
		TracksDaily: kj.TracksDaily,
	}
	if k.ID == "" {
		k.ID = generic.KPIID(f.NewID())
	}

	k.TargetWeekly = targetOf(kj.TargetWeekly)
	k.TargetMonthly = targetOf(kj.TargetMonthly)

	if err := validate(&k); err != nil {
		return nil, err
	}
	return &k, nil
}

// ApplyUpdate returns existing with the supplied fields changed.
//
// When the periodicity changes, targets are re-derived for the new
// periodicity (supplied value first, then the existing one). Otherwise only
// the supplied targets change.
func (f *KPIFactory) ApplyUpdate(existing kpi.KPI, upd KPIUpdateJSON) (*kpi.KPI, error) {
	k := existing
	if upd.Name != nil {
		k.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		k.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.UnitType != nil {
		k.UnitType = kpi.UnitType(*upd.UnitType)
	}
	if upd.OwnerID != nil {
		k.OwnerID = strings.TrimSpace(*upd.OwnerID)
	}
	if upd.TracksDaily != nil {
		k.TracksDaily = *upd.TracksDaily
	}
	if upd.TargetWeekly != nil {
		k.TargetWeekly = targetOf(upd.TargetWeekly)
	}
	if upd.TargetMonthly != nil {
		k.TargetMonthly = targetOf(upd.TargetMonthly)
	}
	if upd.Periodicity != nil {
		k.Periodicity = kpi.Periodicity(*upd.Periodicity)
	}

	if err := validate(&k); err != nil {
		return nil, err
	}
	return &k, nil
}

// ToJSON converts a KPI to KPIJSON.
func (f *KPIFactory) ToJSON(k kpi.KPI) KPIJSON {
	return KPIJSON{
		ID:            string(k.ID),
		Name:          k.Name,
		Description:   k.Description,
		UnitType:      string(k.UnitType),
		Periodicity:   string(k.Periodicity),
		TargetWeekly:  floatOf(k.TargetWeekly),
		TargetMonthly: floatOf(k.TargetMonthly),
		OwnerID:       k.OwnerID,
		TracksDaily:   k.TracksDaily,
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// validate checks k and clears the target its periodicity does not use.
func validate(k *kpi.KPI) error {
	if k.Name == "" {
		return generic.Invalid("name", "is required")
	}
	if !k.UnitType.Valid() {
		return generic.Invalid("unit_type", "must be count, percentage or currency, got %q", k.UnitType)
	}
	if !k.Periodicity.Valid() {
		return generic.Invalid("periodicity", "must be weekly, monthly or weekly+monthly, got %q", k.Periodicity)
	}

	if !k.Periodicity.HasWeekly() {
		k.TargetWeekly = nil
	} else if err := checkTarget("target_weekly", k.TargetWeekly); err != nil {
		return err
	}
	if !k.Periodicity.HasMonthly() {
		k.TargetMonthly = nil
	} else if err := checkTarget("target_monthly", k.TargetMonthly); err != nil {
		return err
	}

	if k.TracksDaily && !k.Periodicity.HasMonthly() {
		return generic.Invalid("tracks_daily", "daily tracking feeds a monthly total, periodicity %q has none", k.Periodicity)
	}
	return nil
}

func checkTarget(field string, t *decimal.Decimal) error {
	if t == nil {
		return generic.Invalid(field, "is required for this periodicity")
	}
	if t.IsNegative() {
		return generic.Invalid(field, "must not be negative, got %s", t.String())
	}
	return nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func targetOf(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	return kpi.Target(*v)
}

func floatOf(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v, _ := d.Float64()
	return &v
}
