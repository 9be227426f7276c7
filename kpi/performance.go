package kpi

import (
	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/generic"
)

// =============================================================================
// SEMAPHORE
// =============================================================================

type Level string

const (
	LevelGreen   Level = "green"
	LevelAmber   Level = "amber"
	LevelRed     Level = "red"
	LevelNeutral Level = "neutral" // nothing recorded for the period
)

const (
	// MaxPercent caps over-achievement for display and scoring.
	MaxPercent     = 200
	GreenThreshold = 100
	AmberThreshold = 70
)

var (
	hundred    = decimal.NewFromInt(100)
	maxPercent = decimal.NewFromInt(MaxPercent)
)

// Performance is the evaluated standing of a KPI for one period.
// Base is empty when Level is neutral.
type Performance struct {
	Level   Level
	Percent int
	Base    generic.PeriodType
}

var Neutral = Performance{Level: LevelNeutral}

// Score converts a delivered value and target into a clamped percent and
// its semaphore level. A zero target scores 100 for any positive delivery.
func Score(delivered, target decimal.Decimal) (int, Level) {
	var pct decimal.Decimal
	switch {
	case target.IsPositive():
		pct = delivered.Div(target).Mul(hundred).Round(0)
	case delivered.IsPositive():
		pct = hundred
	default:
		pct = decimal.Zero
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(maxPercent) {
		pct = maxPercent
	}
	percent := int(pct.IntPart())
	return percent, levelFor(percent)
}

func levelFor(percent int) Level {
	switch {
	case percent >= GreenThreshold:
		return LevelGreen
	case percent >= AmberThreshold:
		return LevelAmber
	default:
		return LevelRed
	}
}

// =============================================================================
// CURRENT PERIOD
// =============================================================================

// CurrentSnapshot holds the records needed to score the current period.
// Nil means the record does not exist.
type CurrentSnapshot struct {
	Weekly        *generic.Progress
	Monthly       *generic.Progress
	MonthlyTarget *generic.Progress // per-month target override
}

// Evaluate scores a KPI's current standing.
//
// Monthly wins over weekly when the KPI tracks months and the monthly record
// shows activity (delivered or commented); otherwise weekly under the same
// test; otherwise the KPI is neutral.
//
// Only the monthly base honours a target override. Weekly always uses the
// KPI's default target.
func Evaluate(k KPI, s CurrentSnapshot) Performance {
	switch {
	case k.Periodicity.HasMonthly() && s.Monthly != nil && s.Monthly.HasActivity():
		target := k.MonthlyTarget()
		if override, ok := targetOverride(s.MonthlyTarget); ok {
			target = override
		}
		return scored(s.Monthly.DeliveredAmount(), target, generic.PeriodMonthly)

	case k.Periodicity.HasWeekly() && s.Weekly != nil && s.Weekly.HasActivity():
		return scored(s.Weekly.DeliveredAmount(), k.WeeklyTarget(), generic.PeriodWeekly)
	}
	return Neutral
}

// EvaluatePeriod scores one historical record against the KPI's static
// target for that period type. No override lookup.
func EvaluatePeriod(k KPI, pt generic.PeriodType, p *generic.Progress) Performance {
	if p == nil {
		return Neutral
	}
	return scored(p.DeliveredAmount(), k.TargetFor(pt), pt)
}

func scored(delivered, target decimal.Decimal, base generic.PeriodType) Performance {
	percent, level := Score(delivered, target)
	return Performance{Level: level, Percent: percent, Base: base}
}

// targetOverride returns the override value when it is a positive number.
func targetOverride(p *generic.Progress) (decimal.Decimal, bool) {
	if p == nil {
		return decimal.Zero, false
	}
	v := generic.ParseValue(p.Value)
	if !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}
