/*
Package generic provides the period and progress primitives of the KPI engine.

PURPOSE:
  This package contains the calendar logic and storage contracts that every
  KPI computation depends on: which accounting week/month is open today,
  when it is due, how periods are encoded as text keys, and how the single
  "current" result per period is stored next to an append-only submission log.

KEY CONCEPTS IN THIS FILE (types.go):
  - PeriodType: daily, weekly, monthly (+ per-period target overrides)
  - ProgressKey: (kpi, period type, period key), the identity of a result
  - Progress: the current result stored under a ProgressKey
  - SubmissionEntry: immutable audit row written on every submission

DESIGN PRINCIPLES:
  1. One current result per key: writes overwrite, never duplicate
  2. History is append-only: submission entries are never read back to
     rebuild current results
  3. Precision: numeric values are parsed with decimal.Decimal
  4. Fixed-width keys: period keys sort lexicographically in time order

USAGE:
  key := generic.ProgressKey{KPIID: "kpi-1", PeriodType: generic.PeriodWeekly, PeriodKey: "2024-W10"}
  err := store.Upsert(ctx, key, generic.Progress{Delivered: true, Value: "2"})

SEE ALSO:
  - period.go: Accounting periods and due dates
  - periodkey.go: Period key codec
  - store.go: Store and TxStore interfaces
*/
package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type KPIID string
type EntryID string

// =============================================================================
// PERIOD TYPE - Granularity of a tracked period
// =============================================================================

type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"

	// Per-period target overrides, stored next to results under their own tag.
	PeriodWeeklyTarget  PeriodType = "target-weekly"
	PeriodMonthlyTarget PeriodType = "target-monthly"
)

// ParsePeriodType accepts the wire name of a period type.
func ParsePeriodType(s string) (PeriodType, bool) {
	pt := PeriodType(strings.TrimSpace(s))
	switch pt {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodWeeklyTarget, PeriodMonthlyTarget:
		return pt, true
	}
	return "", false
}

// Base returns the period granularity the key of this type is encoded in.
// Target overrides share the key format of the period they override.
func (pt PeriodType) Base() PeriodType {
	switch pt {
	case PeriodWeeklyTarget:
		return PeriodWeekly
	case PeriodMonthlyTarget:
		return PeriodMonthly
	}
	return pt
}

// IsTargetOverride reports whether records of this type hold a target
// instead of a delivered result.
func (pt PeriodType) IsTargetOverride() bool {
	return pt == PeriodWeeklyTarget || pt == PeriodMonthlyTarget
}

// HasDeadline reports whether submissions of this type are deadline-gated.
func (pt PeriodType) HasDeadline() bool {
	return pt == PeriodWeekly || pt == PeriodMonthly
}

// =============================================================================
// PROGRESS - The single current result per (kpi, period type, period key)
// =============================================================================

type ProgressKey struct {
	KPIID      KPIID
	PeriodType PeriodType
	PeriodKey  string
}

// String renders the composite "kpiId-periodType-periodKey" key used by
// the progress map returned to clients.
func (k ProgressKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.KPIID, k.PeriodType, k.PeriodKey)
}

// Progress is what a submitter reports for one period.
type Progress struct {
	Delivered bool
	Value     string // decimal-as-text, unit dependent; may be empty
	Comment   string
}

// HasActivity reports whether anything was recorded for the period:
// a delivery or at least a comment explaining its absence.
func (p Progress) HasActivity() bool {
	return p.Delivered || strings.TrimSpace(p.Comment) != ""
}

// DeliveredAmount is the numeric value counted towards a target.
// Undelivered periods and unparsable values count as zero.
func (p Progress) DeliveredAmount() decimal.Decimal {
	if !p.Delivered {
		return decimal.Zero
	}
	return ParseValue(p.Value)
}

// ProgressRecord is a stored Progress together with its key.
type ProgressRecord struct {
	Key       ProgressKey
	Progress  Progress
	UpdatedAt time.Time
}

// Stored values are bounded so that summing them stays cheap: adding
// decimals rescales to the smaller exponent, and 1e30000000 + 1 would
// build a thirty-million-digit integer.
const (
	MaxValueLength   = 64
	MaxValueExponent = 64
	maxValueBits     = 256 // about 77 decimal digits
)

// BoundedValue reports whether d is within the stored-value bounds.
func BoundedValue(d decimal.Decimal) bool {
	if e := d.Exponent(); e > MaxValueExponent || e < -MaxValueExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxValueBits
}

// ParseValue parses a decimal-as-text value. Empty, malformed, NaN and
// out-of-bounds inputs yield zero; they never abort a computation.
func ParseValue(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxValueLength {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !BoundedValue(d) {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// SUBMISSION ENTRY - Append-only audit log
// =============================================================================

// SubmissionEntry records one act of submission. Immutable once written.
type SubmissionEntry struct {
	ID          EntryID
	KPIID       KPIID
	PeriodType  PeriodType
	PeriodKey   string
	Delivered   bool
	Value       string
	Comment     string
	StartDate   TimePoint
	EndDate     TimePoint
	DueDate     TimePoint // zero for daily entries (no deadline)
	SubmittedAt time.Time
	SubmittedBy string
}

// Key returns the progress key this entry was written under.
func (e SubmissionEntry) Key() ProgressKey {
	return ProgressKey{KPIID: e.KPIID, PeriodType: e.PeriodType, PeriodKey: e.PeriodKey}
}

// EntryFilter narrows a submission log query. Zero fields match everything.
type EntryFilter struct {
	KPIID      KPIID
	PeriodType PeriodType
	PeriodKey  string
	Limit      int
}

func (f EntryFilter) Matches(e SubmissionEntry) bool {
	if f.KPIID != "" && e.KPIID != f.KPIID {
		return false
	}
	if f.PeriodType != "" && e.PeriodType != f.PeriodType {
		return false
	}
	if f.PeriodKey != "" && e.PeriodKey != f.PeriodKey {
		return false
	}
	return true
}
