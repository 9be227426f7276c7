package kpi

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/generic"
)

// =============================================================================
// MONTHLY ROLLUP
// =============================================================================
//
// A KPI tracked weekly+monthly (or a monthly KPI fed day by day) gets its
// monthly result derived from the finer entries. The rollup is a full
// recompute over every finer entry of the month, never an incremental add,
// so re-running it after edits or deletions converges to the right total.

// Rollup is the outcome of one recompute.
type Rollup struct {
	Key      generic.ProgressKey
	Progress generic.Progress
	Sources  int // finer entries that mapped into the month
}

// RecomputeFromKey maps a finer entry's key to its month and recomputes
// that month. Malformed keys have no month and are skipped (ok=false).
func RecomputeFromKey(ctx context.Context, s generic.Store, kpiID generic.KPIID, source generic.PeriodType, key string) (Rollup, bool, error) {
	ym, ok := generic.KeyToYearMonth(source, key)
	if !ok {
		return Rollup{}, false, nil
	}
	r, err := RecomputeMonth(ctx, s, kpiID, source, ym)
	return r, err == nil, err
}

// RecomputeMonth sums the delivered finer entries of one month and
// overwrites the monthly result. The monthly comment is always cleared.
func RecomputeMonth(ctx context.Context, s generic.Store, kpiID generic.KPIID, source generic.PeriodType, ym generic.YearMonth) (Rollup, error) {
	r, err := sumMonth(ctx, s, kpiID, source, ym)
	if err != nil {
		return Rollup{}, err
	}
	if err := s.Upsert(ctx, r.Key, r.Progress); err != nil {
		return Rollup{}, fmt.Errorf("write monthly rollup %s: %w", r.Key, err)
	}
	return r, nil
}

// ReconcileMonth is RecomputeMonth for months that have finer entries.
// A month with none keeps its monthly result, which may have been filed
// directly. written reports whether the rollup was upserted.
func ReconcileMonth(ctx context.Context, s generic.Store, kpiID generic.KPIID, source generic.PeriodType, ym generic.YearMonth) (r Rollup, written bool, err error) {
	r, err = sumMonth(ctx, s, kpiID, source, ym)
	if err != nil || r.Sources == 0 {
		return r, false, err
	}
	if err := s.Upsert(ctx, r.Key, r.Progress); err != nil {
		return Rollup{}, false, fmt.Errorf("write monthly rollup %s: %w", r.Key, err)
	}
	return r, true, nil
}

func sumMonth(ctx context.Context, s generic.Store, kpiID generic.KPIID, source generic.PeriodType, ym generic.YearMonth) (Rollup, error) {
	records, err := s.ListByKPIAndType(ctx, kpiID, source)
	if err != nil {
		return Rollup{}, fmt.Errorf("list %s entries: %w", source, err)
	}

	sum := decimal.Zero
	sources := 0
	for _, rec := range records {
		m, ok := generic.KeyToYearMonth(source, rec.Key.PeriodKey)
		if !ok || m != ym {
			continue
		}
		sources++
		sum = sum.Add(rec.Progress.DeliveredAmount())
	}

	delivered := sum.IsPositive()
	monthly := generic.Progress{Delivered: delivered}
	if delivered {
		monthly.Value = sum.String()
	}

	key := generic.ProgressKey{KPIID: kpiID, PeriodType: generic.PeriodMonthly, PeriodKey: ym.Key()}
	return Rollup{Key: key, Progress: monthly, Sources: sources}, nil
}
