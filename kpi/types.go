/*
Package kpi implements the KPI domain on top of the generic period engine.

PURPOSE:
  A KPI is a recurring goal owned by a staff member: it has a unit, a
  periodicity (weekly, monthly or both) and a numeric target per period.
  This package scores KPIs, rolls weekly/daily entries up into monthly
  totals, rebuilds per-period history, and exposes the submission flow.

KEY TYPES:
  - KPI:         Definition (unit, periodicity, targets, owner)
  - Catalog:     Where KPI definitions live (SQLite, memory)
  - Performance: Semaphore level + percent for one period
  - Tracker:     submitProgress / getPeriodStatus entry points

EXAMPLE:
  kpi := KPI{
      ID:            "videos",
      UnitType:      UnitCount,
      Periodicity:   WeeklyAndMonthly,
      TargetWeekly:  Target(2),
      TargetMonthly: Target(8),
  }

SEE ALSO:
  - generic/period.go: Accounting periods and deadlines
  - factory/kpi.go: JSON KPI definitions
*/
package kpi

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/generic"
)

// =============================================================================
// UNIT TYPE
// =============================================================================

type UnitType string

const (
	UnitCount      UnitType = "count"
	UnitPercentage UnitType = "percentage"
	UnitCurrency   UnitType = "currency"
)

func (u UnitType) Valid() bool {
	switch u {
	case UnitCount, UnitPercentage, UnitCurrency:
		return true
	}
	return false
}

// =============================================================================
// PERIODICITY
// =============================================================================

type Periodicity string

const (
	Weekly           Periodicity = "weekly"
	Monthly          Periodicity = "monthly"
	WeeklyAndMonthly Periodicity = "weekly+monthly"
)

func (p Periodicity) Valid() bool {
	switch p {
	case Weekly, Monthly, WeeklyAndMonthly:
		return true
	}
	return false
}

func (p Periodicity) HasWeekly() bool  { return p == Weekly || p == WeeklyAndMonthly }
func (p Periodicity) HasMonthly() bool { return p == Monthly || p == WeeklyAndMonthly }

// =============================================================================
// KPI
// =============================================================================

type KPI struct {
	ID          generic.KPIID
	Name        string
	Description string
	UnitType    UnitType
	Periodicity Periodicity

	// Only the targets matching Periodicity are meaningful; the other is
	// ignored even when set.
	TargetWeekly  *decimal.Decimal
	TargetMonthly *decimal.Decimal

	OwnerID string // empty = unassigned

	// TracksDaily marks monthly KPIs that are also fed day by day.
	TracksDaily bool
}

// Target is a helper for building optional targets.
func Target(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// WeeklyTarget returns the default weekly target, zero when not applicable.
func (k KPI) WeeklyTarget() decimal.Decimal {
	if !k.Periodicity.HasWeekly() || k.TargetWeekly == nil {
		return decimal.Zero
	}
	return *k.TargetWeekly
}

// MonthlyTarget returns the default monthly target, zero when not applicable.
func (k KPI) MonthlyTarget() decimal.Decimal {
	if !k.Periodicity.HasMonthly() || k.TargetMonthly == nil {
		return decimal.Zero
	}
	return *k.TargetMonthly
}

// TargetFor returns the static target for a weekly or monthly period.
func (k KPI) TargetFor(pt generic.PeriodType) decimal.Decimal {
	if pt == generic.PeriodMonthly {
		return k.MonthlyTarget()
	}
	return k.WeeklyTarget()
}

// RollupSource returns the finer period type whose entries are summed into
// this KPI's monthly result, if any.
func (k KPI) RollupSource(written generic.PeriodType) (generic.PeriodType, bool) {
	switch written {
	case generic.PeriodWeekly:
		return generic.PeriodWeekly, k.Periodicity == WeeklyAndMonthly
	case generic.PeriodDaily:
		return generic.PeriodDaily, k.TracksDaily && k.Periodicity.HasMonthly()
	}
	return "", false
}

// Accepts reports whether the KPI tracks the given period type.
func (k KPI) Accepts(pt generic.PeriodType) bool {
	switch pt.Base() {
	case generic.PeriodDaily:
		return k.TracksDaily
	case generic.PeriodWeekly:
		return k.Periodicity.HasWeekly()
	case generic.PeriodMonthly:
		return k.Periodicity.HasMonthly()
	}
	return false
}

// =============================================================================
// CALLER
// =============================================================================

// Caller is who is acting. Credentials are verified upstream; the engine
// only needs the identity and whether deadline gating applies.
type Caller struct {
	ID         string
	Privileged bool
}

// CanWrite reports whether the caller may submit results for k.
func (c Caller) CanWrite(k KPI) bool {
	return c.Privileged || (k.OwnerID != "" && c.ID == k.OwnerID)
}

// =============================================================================
// CATALOG - KPI definitions
// =============================================================================

// Catalog stores KPI definitions.
type Catalog interface {
	// GetKPI returns nil, nil when the KPI does not exist.
	GetKPI(ctx context.Context, id generic.KPIID) (*KPI, error)
	ListKPIs(ctx context.Context) ([]KPI, error)
	SaveKPI(ctx context.Context, k KPI) error
	DeleteKPI(ctx context.Context, id generic.KPIID) error
}

// MemoryCatalog is an in-memory Catalog for tests and tools.
type MemoryCatalog struct {
	mu   sync.RWMutex
	kpis map[generic.KPIID]KPI
}

func NewMemoryCatalog(kpis ...KPI) *MemoryCatalog {
	c := &MemoryCatalog{kpis: make(map[generic.KPIID]KPI)}
	for _, k := range kpis {
		c.kpis[k.ID] = k
	}
	return c
}

func (c *MemoryCatalog) GetKPI(_ context.Context, id generic.KPIID) (*KPI, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.kpis[id]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (c *MemoryCatalog) ListKPIs(_ context.Context) ([]KPI, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]KPI, 0, len(c.kpis))
	for _, k := range c.kpis {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *MemoryCatalog) SaveKPI(_ context.Context, k KPI) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kpis[k.ID] = k
	return nil
}

func (c *MemoryCatalog) DeleteKPI(_ context.Context, id generic.KPIID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.kpis, id)
	return nil
}
