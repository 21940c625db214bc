package domain_test

import (
	"testing"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebaseRates_SameBaseReturnsEqualTable(t *testing.T) {
	in := map[string]float64{"EUR": 0.9446, "JPY": 149.35, "GBP": 0.7891}

	out, err := domain.RebaseRates(in, "USD", "USD")

	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRebaseRates_EuroQuotedTableToUSD(t *testing.T) {
	// A euro-quoted publication: 1 EUR = 1.0586 USD, 1 EUR = 158.11 JPY.
	in := map[string]float64{
		"EUR": 1.0,
		"USD": 1.0586,
		"JPY": 158.11,
	}

	out, err := domain.RebaseRates(in, "EUR", "USD")

	require.NoError(t, err)
	assert.NotContains(t, out, "USD", "the new base is implicitly 1.0")
	assert.InDelta(t, 0.944644, out["EUR"], 1e-4)
	assert.InDelta(t, 149.357642, out["JPY"], 1e-4)
}

func TestRebaseRates_RoundTripRestoresValues(t *testing.T) {
	original := map[string]float64{
		"EUR": 0.944644,
		"JPY": 149.357642,
		"GBP": 0.789112,
		"CHF": 0.883245,
	}
	withPivot := map[string]float64{domain.InternalBase: 1.0}
	for code, rate := range original {
		withPivot[code] = rate
	}

	toEUR, err := domain.RebaseRates(withPivot, domain.InternalBase, "EUR")
	require.NoError(t, err)
	back, err := domain.RebaseRates(toEUR, "EUR", domain.InternalBase)
	require.NoError(t, err)

	for code, want := range original {
		if code == "EUR" {
			continue // the intermediate base drops out of the round trip
		}
		assert.InEpsilon(t, want, back[code], 1e-9, "code %s", code)
	}
	assert.InEpsilon(t, 0.944644, back["EUR"], 1e-9)
}

func TestRebaseRates_MissingQuoteForNewBase(t *testing.T) {
	in := map[string]float64{"EUR": 0.9446, "JPY": 149.35}

	out, err := domain.RebaseRates(in, "USD", "XXX")

	assert.Nil(t, out)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCurrency)
	assert.ErrorContains(t, err, "XXX")
}

func TestRebaseRates_ReinsertsOldBaseAtInverse(t *testing.T) {
	in := map[string]float64{"EUR": 0.5, "JPY": 150.0}

	out, err := domain.RebaseRates(in, "USD", "EUR")

	require.NoError(t, err)
	assert.InEpsilon(t, 2.0, out["USD"], 1e-12)
	assert.InEpsilon(t, 300.0, out["JPY"], 1e-12)
}

func TestRoundRate(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "rounds half up", in: 0.94464450001, want: 0.944645},
		{name: "rounds down", in: 149.3576420394, want: 149.357642},
		{name: "six places preserved", in: 1.234567, want: 1.234567},
		{name: "whole number untouched", in: 42.0, want: 42.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.RoundRate(tt.in))
		})
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	in := time.Date(2025, 11, 27, 18, 45, 12, 999, loc)

	got := domain.Day(in)

	assert.Equal(t, time.Date(2025, 11, 27, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2025-11-27", domain.FormatDate(got))
}
