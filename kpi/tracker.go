package kpi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/kpi-engine/generic"
)

// =============================================================================
// TRACKER - Submission and read entry points
// =============================================================================
//
// Each call is a synchronous sequence of steps: validate everything, then
// write. Writes (current result, log entry, rollup) run in one transaction
// when the store supports it, so a rejection or failure leaves nothing
// behind.

type Tracker struct {
	Store   generic.Store
	Catalog Catalog
	Staff   StaffDirectory // optional, names on the dashboard
	Periods *generic.PeriodCalculator
	Logger  *zap.Logger
	Metrics *Metrics

	Now   func() time.Time
	NewID func() string
}

func NewTracker(store generic.Store, catalog Catalog, periods *generic.PeriodCalculator, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		Store:   store,
		Catalog: catalog,
		Periods: periods,
		Logger:  logger,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

// Submission is one report of progress for a period.
type Submission struct {
	KPIID      generic.KPIID
	PeriodType generic.PeriodType
	PeriodKey  string // empty = current period for PeriodType
	Delivered  bool
	Value      string
	Comment    string
}

// SubmitResult describes what was written.
type SubmitResult struct {
	Key      generic.ProgressKey
	Progress generic.Progress
	Period   generic.AccountingPeriod
	Entry    generic.SubmissionEntry
	Rollup   *Rollup // set when a monthly total was recomputed
}

// SubmitProgress validates and records a submission.
//
// Side effects on success: one upsert, one log entry, and a monthly rollup
// when the KPI derives its monthly result from the written period type.
func (t *Tracker) SubmitProgress(ctx context.Context, caller Caller, sub Submission) (*SubmitResult, error) {
	start := time.Now()
	res, err := t.submit(ctx, caller, sub)
	t.Metrics.observeSubmission(sub.PeriodType, err, time.Since(start))

	if err != nil {
		fields := []zap.Field{
			zap.String("op", "kpi.SubmitProgress"),
			zap.String("kpi_id", string(sub.KPIID)),
			zap.String("period_type", string(sub.PeriodType)),
			zap.String("period_key", sub.PeriodKey),
			zap.String("caller", caller.ID),
			zap.Error(err),
		}
		if generic.IsClientError(err) {
			t.Logger.Info("submission rejected", fields...)
		} else {
			t.Logger.Error("submission failed", fields...)
		}
		return nil, err
	}

	t.Logger.Debug("submission recorded",
		zap.String("op", "kpi.SubmitProgress"),
		zap.String("kpi_id", string(res.Key.KPIID)),
		zap.String("period_type", string(res.Key.PeriodType)),
		zap.String("period_key", res.Key.PeriodKey),
		zap.Bool("rollup", res.Rollup != nil),
	)
	return res, nil
}

func (t *Tracker) submit(ctx context.Context, caller Caller, sub Submission) (*SubmitResult, error) {
	k, period, err := t.authorize(ctx, caller, sub.KPIID, sub.PeriodType, sub.PeriodKey, "submit progress")
	if err != nil {
		return nil, err
	}

	if sub.PeriodType.HasDeadline() {
		if state := period.EntryState(t.Periods.Today(), caller.Privileged); !state.Open {
			return nil, &generic.DeadlineError{PeriodType: sub.PeriodType, PeriodKey: period.Key, Due: period.Due}
		}
	}

	value, err := NormalizeValue(sub.Value, k.UnitType)
	if err != nil {
		return nil, err
	}
	if sub.PeriodType.IsTargetOverride() && value != "" {
		if _, perr := decimal.NewFromString(value); perr != nil {
			return nil, generic.Invalid("value", "target override must be numeric, got %q", sub.Value)
		}
	}

	key := generic.ProgressKey{KPIID: k.ID, PeriodType: sub.PeriodType, PeriodKey: period.Key}
	progress := generic.Progress{
		Delivered: sub.Delivered,
		Value:     value,
		Comment:   strings.TrimSpace(sub.Comment),
	}
	entry := generic.SubmissionEntry{
		ID:          generic.EntryID(t.NewID()),
		KPIID:       k.ID,
		PeriodType:  sub.PeriodType,
		PeriodKey:   period.Key,
		Delivered:   progress.Delivered,
		Value:       progress.Value,
		Comment:     progress.Comment,
		StartDate:   period.Start,
		EndDate:     period.End,
		DueDate:     period.Due,
		SubmittedAt: t.Now().UTC(),
		SubmittedBy: caller.ID,
	}

	res := &SubmitResult{Key: key, Progress: progress, Period: period, Entry: entry}
	err = generic.RunInTx(ctx, t.Store, func(s generic.Store) error {
		if err := s.Upsert(ctx, key, progress); err != nil {
			return fmt.Errorf("write progress %s: %w", key, err)
		}
		if err := s.AppendEntry(ctx, entry); err != nil {
			return fmt.Errorf("append submission entry: %w", err)
		}
		rollup, err := t.rollupAfterWrite(ctx, s, *k, sub.PeriodType, period.Key)
		if err != nil {
			return err
		}
		res.Rollup = rollup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteProgress removes a current result (privileged only) and recomputes
// the monthly rollup it fed, if any.
func (t *Tracker) DeleteProgress(ctx context.Context, caller Caller, key generic.ProgressKey) error {
	if !caller.Privileged {
		return &generic.PermissionError{CallerID: caller.ID, KPIID: key.KPIID, Action: "delete progress"}
	}
	k, period, err := t.authorize(ctx, caller, key.KPIID, key.PeriodType, key.PeriodKey, "delete progress")
	if err != nil {
		return err
	}
	key.PeriodKey = period.Key

	err = generic.RunInTx(ctx, t.Store, func(s generic.Store) error {
		if err := s.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete progress %s: %w", key, err)
		}
		_, err := t.rollupAfterWrite(ctx, s, *k, key.PeriodType, key.PeriodKey)
		return err
	})
	if err != nil {
		t.Logger.Error("delete progress failed",
			zap.String("op", "kpi.DeleteProgress"),
			zap.String("key", key.String()),
			zap.Error(err),
		)
		return err
	}
	t.Logger.Info("progress deleted",
		zap.String("op", "kpi.DeleteProgress"),
		zap.String("key", key.String()),
		zap.String("caller", caller.ID),
	)
	return nil
}

// authorize runs every check that does not depend on the payload:
// KPI exists, tracks the period type, caller may write it, key is valid.
func (t *Tracker) authorize(ctx context.Context, caller Caller, kpiID generic.KPIID, pt generic.PeriodType, periodKey, action string) (*KPI, generic.AccountingPeriod, error) {
	var none generic.AccountingPeriod

	if strings.TrimSpace(string(kpiID)) == "" {
		return nil, none, generic.Invalid("kpi_id", "is required")
	}
	if _, ok := generic.ParsePeriodType(string(pt)); !ok {
		return nil, none, generic.Invalid("period_type", "unknown period type %q", pt)
	}

	k, err := t.Catalog.GetKPI(ctx, kpiID)
	if err != nil {
		return nil, none, fmt.Errorf("load kpi %s: %w", kpiID, err)
	}
	if k == nil {
		return nil, none, generic.Invalid("kpi_id", "unknown kpi %q", kpiID)
	}
	if !k.Accepts(pt) {
		return nil, none, generic.Invalid("period_type", "kpi %s (%s) does not track %s periods", k.ID, k.Periodicity, pt)
	}

	if pt.IsTargetOverride() && !caller.Privileged {
		return nil, none, &generic.PermissionError{CallerID: caller.ID, KPIID: k.ID, Action: "override targets"}
	}
	if !caller.CanWrite(*k) {
		return nil, none, &generic.PermissionError{CallerID: caller.ID, KPIID: k.ID, Action: action}
	}

	periodKey = strings.TrimSpace(periodKey)
	if periodKey == "" {
		return k, t.Periods.Current(pt), nil
	}
	period, ok := t.Periods.ForKey(pt, periodKey)
	if !ok {
		return nil, none, generic.Invalid("period_key", "malformed %s key %q", pt.Base(), periodKey)
	}
	return k, period, nil
}

func (t *Tracker) rollupAfterWrite(ctx context.Context, s generic.Store, k KPI, written generic.PeriodType, periodKey string) (*Rollup, error) {
	source, ok := k.RollupSource(written)
	if !ok {
		return nil, nil
	}
	rollup, ok, err := RecomputeFromKey(ctx, s, k.ID, source, periodKey)
	if err != nil || !ok {
		return nil, err
	}
	t.Metrics.observeRollup(source, "write")
	return &rollup, nil
}

// =============================================================================
// READS
// =============================================================================

// PeriodView is one accounting window with its entry state for a caller.
type PeriodView struct {
	generic.AccountingPeriod
	State generic.EntryState
}

type PeriodStatus struct {
	Today   generic.TimePoint
	Weekly  PeriodView
	Monthly PeriodView
}

// PeriodStatus reports the current weekly and monthly windows and whether
// the caller may still file for them.
func (t *Tracker) PeriodStatus(privileged bool) PeriodStatus {
	today := t.Periods.Today()
	weekly := t.Periods.Weekly()
	monthly := t.Periods.Monthly()
	return PeriodStatus{
		Today:   today,
		Weekly:  PeriodView{AccountingPeriod: weekly, State: weekly.EntryState(today, privileged)},
		Monthly: PeriodView{AccountingPeriod: monthly, State: monthly.EntryState(today, privileged)},
	}
}

// Snapshot loads the records scoring a KPI's current period.
func (t *Tracker) Snapshot(ctx context.Context, k KPI) (CurrentSnapshot, error) {
	weekKey := t.Periods.Weekly().Key
	monthKey := t.Periods.Monthly().Key

	var snap CurrentSnapshot
	loads := []struct {
		pt  generic.PeriodType
		key string
		dst **generic.Progress
	}{
		{generic.PeriodWeekly, weekKey, &snap.Weekly},
		{generic.PeriodMonthly, monthKey, &snap.Monthly},
		{generic.PeriodMonthlyTarget, monthKey, &snap.MonthlyTarget},
	}
	for _, l := range loads {
		p, ok, err := t.Store.Get(ctx, generic.ProgressKey{KPIID: k.ID, PeriodType: l.pt, PeriodKey: l.key})
		if err != nil {
			return CurrentSnapshot{}, fmt.Errorf("load %s progress: %w", l.pt, err)
		}
		if ok {
			p := p
			*l.dst = &p
		}
	}
	return snap, nil
}

// Performance scores the KPI's current period.
func (t *Tracker) Performance(ctx context.Context, kpiID generic.KPIID) (*KPI, Performance, error) {
	k, err := t.lookup(ctx, kpiID)
	if err != nil {
		return nil, Neutral, err
	}
	snap, err := t.Snapshot(ctx, *k)
	if err != nil {
		return nil, Neutral, err
	}
	return k, Evaluate(*k, snap), nil
}

// History lists past periods of a KPI with their performance.
func (t *Tracker) History(ctx context.Context, kpiID generic.KPIID, pt generic.PeriodType, limit int) ([]HistoryRecord, error) {
	k, err := t.lookup(ctx, kpiID)
	if err != nil {
		return nil, err
	}
	return History(ctx, t.Store, *k, pt, limit)
}

// Entries returns the submission log, newest first.
func (t *Tracker) Entries(ctx context.Context, filter generic.EntryFilter) ([]generic.SubmissionEntry, error) {
	return t.Store.Entries(ctx, filter)
}

func (t *Tracker) lookup(ctx context.Context, kpiID generic.KPIID) (*KPI, error) {
	k, err := t.Catalog.GetKPI(ctx, kpiID)
	if err != nil {
		return nil, fmt.Errorf("load kpi %s: %w", kpiID, err)
	}
	if k == nil {
		return nil, fmt.Errorf("kpi %s: %w", kpiID, generic.ErrNotFound)
	}
	return k, nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileRollups recomputes the monthly rollups of every KPI that derives
// them, for the month being filed and the running calendar month.
// Recomputes are idempotent, so this repairs lost updates from concurrent
// writers. Months without finer entries are left alone, so a monthly
// result filed directly survives. Returns the number of rollups written.
func (t *Tracker) ReconcileRollups(ctx context.Context) (int, error) {
	kpis, err := t.Catalog.ListKPIs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list kpis: %w", err)
	}

	today := t.Periods.Today()
	months := []generic.YearMonth{
		generic.YearMonthOf(today).Previous(),
		generic.YearMonthOf(today),
	}

	written := 0
	for _, k := range kpis {
		for _, source := range []generic.PeriodType{generic.PeriodWeekly, generic.PeriodDaily} {
			if _, ok := k.RollupSource(source); !ok {
				continue
			}
			for _, ym := range months {
				var wrote bool
				err := generic.RunInTx(ctx, t.Store, func(s generic.Store) error {
					var err error
					_, wrote, err = ReconcileMonth(ctx, s, k.ID, source, ym)
					return err
				})
				if err != nil {
					return written, fmt.Errorf("reconcile %s %s: %w", k.ID, ym, err)
				}
				if wrote {
					t.Metrics.observeRollup(source, "reconcile")
					written++
				}
			}
		}
	}
	return written, nil
}
