package kpi

import (
	"context"
	"fmt"
	"sort"
)

// =============================================================================
// DASHBOARD - Organisation-wide summary for administrators
// =============================================================================

// OwnerSummary ranks one staff member by the KPIs they own.
type OwnerSummary struct {
	OwnerID        string
	Name           string
	Total          int
	Completed      int
	AveragePercent int // rounded, over KPIs with a non-neutral level
}

type Dashboard struct {
	Owners         []OwnerSummary
	TotalKPIs      int
	Completed      int
	Pending        int
	CompletionRate int // percent of KPIs completed, rounded down
	KPIs           []KPIStatus
}

// KPIStatus is one KPI with its current performance.
type KPIStatus struct {
	KPI         KPI
	Performance Performance
}

// completed: green against a real target.
func (s KPIStatus) completed() bool {
	if s.Performance.Level != LevelGreen {
		return false
	}
	return s.KPI.TargetFor(s.Performance.Base).IsPositive()
}

// Dashboard scores every KPI in the catalog and summarises by owner.
// Unassigned KPIs count toward the organisation totals only.
func (t *Tracker) Dashboard(ctx context.Context) (*Dashboard, error) {
	kpis, err := t.Catalog.ListKPIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kpis: %w", err)
	}

	d := &Dashboard{TotalKPIs: len(kpis)}
	byOwner := make(map[string]*ownerAccumulator)

	for _, k := range kpis {
		snap, err := t.Snapshot(ctx, k)
		if err != nil {
			return nil, err
		}
		status := KPIStatus{KPI: k, Performance: Evaluate(k, snap)}
		d.KPIs = append(d.KPIs, status)
		if status.completed() {
			d.Completed++
		}

		if k.OwnerID == "" {
			continue
		}
		acc, ok := byOwner[k.OwnerID]
		if !ok {
			acc = &ownerAccumulator{summary: OwnerSummary{OwnerID: k.OwnerID, Name: k.OwnerID}}
			byOwner[k.OwnerID] = acc
		}
		acc.add(status)
	}

	d.Pending = d.TotalKPIs - d.Completed
	if d.TotalKPIs > 0 {
		d.CompletionRate = d.Completed * 100 / d.TotalKPIs
	}

	for _, acc := range byOwner {
		summary := acc.finish()
		if t.Staff != nil {
			s, err := t.Staff.GetStaff(ctx, summary.OwnerID)
			if err != nil {
				return nil, fmt.Errorf("load staff %s: %w", summary.OwnerID, err)
			}
			if s != nil {
				summary.Name = s.Name
			}
		}
		d.Owners = append(d.Owners, summary)
	}
	sort.Slice(d.Owners, func(i, j int) bool {
		if d.Owners[i].AveragePercent != d.Owners[j].AveragePercent {
			return d.Owners[i].AveragePercent > d.Owners[j].AveragePercent
		}
		return d.Owners[i].Name < d.Owners[j].Name
	})
	return d, nil
}

type ownerAccumulator struct {
	summary OwnerSummary
	scored  int
	sum     int
}

func (a *ownerAccumulator) add(s KPIStatus) {
	a.summary.Total++
	if s.completed() {
		a.summary.Completed++
	}
	if s.Performance.Level != LevelNeutral {
		a.scored++
		a.sum += s.Performance.Percent
	}
}

func (a *ownerAccumulator) finish() OwnerSummary {
	if a.scored > 0 {
		a.summary.AveragePercent = (a.sum*2 + a.scored) / (a.scored * 2)
	}
	return a.summary
}
