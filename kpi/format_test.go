package kpi_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

func TestNormalizeValue(t *testing.T) {
	cases := []struct {
		raw  string
		unit kpi.UnitType
		want string
	}{
		{"R$ 1.234,56", kpi.UnitCurrency, "1234.56"},
		{"1234.5", kpi.UnitCurrency, "1234.5"},
		{"R$1.000.000,00", kpi.UnitCurrency, "1000000"},
		{"  12 ", kpi.UnitCount, "12"},
		{"92,5", kpi.UnitPercentage, "92.5"},
		{"90%", kpi.UnitPercentage, "90"},
		{" 87,5 % ", kpi.UnitPercentage, "87.5"},
		{"1e3", kpi.UnitCount, "1e3"},
		{"abc", kpi.UnitCount, "abc"},
		{"", kpi.UnitCurrency, ""},
	}
	for _, tc := range cases {
		got, err := kpi.NormalizeValue(tc.raw, tc.unit)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}

	_, err := kpi.NormalizeValue("R$ doze", kpi.UnitCurrency)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestNormalizeValue_RejectsOutOfRangeNumbers(t *testing.T) {
	cases := []struct {
		raw  string
		unit kpi.UnitType
	}{
		{"1e30000000", kpi.UnitCount},
		{"1e-65", kpi.UnitPercentage},
		{"R$ 1e300", kpi.UnitCurrency},
		{strings.Repeat("9", 65), kpi.UnitCount},
	}
	for _, tc := range cases {
		_, err := kpi.NormalizeValue(tc.raw, tc.unit)
		assert.ErrorIs(t, err, generic.ErrValidation, tc.raw)
	}

	got, err := kpi.NormalizeValue("1e64", kpi.UnitCount)
	require.NoError(t, err)
	assert.Equal(t, "1e64", got)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "R$ 1.234,50", kpi.FormatValue("1234.5", kpi.UnitCurrency))
	assert.Equal(t, "R$ 0,00", kpi.FormatValue("", kpi.UnitCurrency))
	assert.Equal(t, "R$ -1.000,00", kpi.FormatValue("-1000", kpi.UnitCurrency))
	assert.Equal(t, "92.5%", kpi.FormatValue("92.50", kpi.UnitPercentage))
	assert.Equal(t, "8 un.", kpi.FormatValue("8", kpi.UnitCount))
	assert.Equal(t, "n/a un.", kpi.FormatValue("n/a", kpi.UnitCount))
}
