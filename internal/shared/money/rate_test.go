package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eva_exchange/internal/shared/apperr"
)

func TestValidateRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    string
		wantErr error
	}{
		{name: "two decimals", rate: "18.65"},
		{name: "integer", rate: "21"},
		{name: "zero", rate: "0"},
		{name: "trailing zero beyond two places", rate: "18.650"},
		{name: "largest storable", rate: "99999999.99"},
		{name: "negative", rate: "-0.01", wantErr: ErrRateNegative},
		{name: "three decimals", rate: "12.568", wantErr: ErrRatePrecision},
		{name: "too large", rate: "100000000", wantErr: ErrRateTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateRate(decimal.RequireFromString(tt.rate))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseRate(t *testing.T) {
	t.Parallel()

	r, err := ParseRate("17.11")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.RequireFromString("17.11")))

	_, err = ParseRate("abc")
	assert.ErrorIs(t, err, ErrRateFormat)

	_, err = ParseRate("1.001")
	assert.ErrorIs(t, err, ErrRatePrecision)
}

func TestFormatRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.50", FormatRate(decimal.RequireFromString("12.5")))
	assert.Equal(t, "0.00", FormatRate(decimal.Zero))
	assert.Equal(t, "21.19", FormatRate(decimal.RequireFromString("21.19")))
}
