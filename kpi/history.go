package kpi

import (
	"context"
	"sort"

	"github.com/warp/kpi-engine/generic"
)

// HistoryRecord is one past period with its evaluated performance.
type HistoryRecord struct {
	PeriodKey   string
	Label       string
	Progress    generic.Progress
	Performance Performance
}

// History lists the KPI's weekly or monthly periods, newest first, scored
// against the static targets. limit <= 0 returns everything.
//
// Sorting by key string is time order because every key format is fixed
// width and zero padded.
func History(ctx context.Context, s generic.Store, k KPI, pt generic.PeriodType, limit int) ([]HistoryRecord, error) {
	var label func(string) string
	switch pt {
	case generic.PeriodWeekly:
		label = generic.WeekLabel
	case generic.PeriodMonthly:
		label = generic.MonthLabel
	default:
		return nil, generic.Invalid("period_type", "history is available for weekly and monthly periods, got %q", pt)
	}

	records, err := s.ListByKPIAndType(ctx, k.ID, pt)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryRecord, 0, len(records))
	for _, rec := range records {
		p := rec.Progress
		history = append(history, HistoryRecord{
			PeriodKey:   rec.Key.PeriodKey,
			Label:       label(rec.Key.PeriodKey),
			Progress:    p,
			Performance: EvaluatePeriod(k, pt, &p),
		})
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].PeriodKey > history[j].PeriodKey
	})
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}
