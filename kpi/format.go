package kpi

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/kpi-engine/generic"
)

// NormalizeValue cleans a submitted value before it is stored.
//
// Currency accepts Brazilian input ("R$ 1.234,56" -> "1234.56") and must
// parse. Other units are trimmed, a decimal comma becomes a point and a
// percentage may carry a trailing "%". Unparsable text is kept as is (it
// counts as zero), but a number out of the stored-value bounds is rejected.
func NormalizeValue(raw string, unit UnitType) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	if len(s) > generic.MaxValueLength {
		return "", generic.Invalid("value", "longer than %d characters", generic.MaxValueLength)
	}

	if unit != UnitCurrency {
		if unit == UnitPercentage {
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		}
		if !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		if d, err := decimal.NewFromString(s); err == nil && !generic.BoundedValue(d) {
			return "", generic.Invalid("value", "%q is out of range", raw)
		}
		return s, nil
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", generic.Invalid("value", "invalid currency amount %q", raw)
	}
	if !generic.BoundedValue(d) {
		return "", generic.Invalid("value", "%q is out of range", raw)
	}
	return d.String(), nil
}

// FormatValue renders a stored value for display in the unit of the KPI.
func FormatValue(value string, unit UnitType) string {
	switch unit {
	case UnitCurrency:
		return "R$ " + formatBRL(generic.ParseValue(value))
	case UnitPercentage:
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d.String() + "%"
		}
		return value + "%"
	default:
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d.String() + " un."
		}
		return value + " un."
	}
}

// formatBRL renders 1234.5 as "1.234,50".
func formatBRL(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
