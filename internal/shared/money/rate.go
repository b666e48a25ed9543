// Package money holds the two-decimal fixed-point rules for stock rates.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"eva_exchange/internal/shared/apperr"
)

// RatePlaces is the number of fractional digits a rate is stored with.
const RatePlaces = 2

// maxRate is the exclusive upper bound of a DECIMAL(10,2) column.
var maxRate = decimal.New(1, 8)

var (
	// ErrRateFormat is returned when a rate cannot be parsed as a decimal number.
	ErrRateFormat = fmt.Errorf("%w: rate is not a decimal number", apperr.ErrValidation)
	// ErrRateNegative is returned for rates below zero.
	ErrRateNegative = fmt.Errorf("%w: rate must not be negative", apperr.ErrValidation)
	// ErrRatePrecision is returned for rates with more than two fractional digits.
	ErrRatePrecision = fmt.Errorf("%w: rate must have at most %d decimal places", apperr.ErrValidation, RatePlaces)
	// ErrRateTooLarge is returned for rates that do not fit the storage column.
	ErrRateTooLarge = fmt.Errorf("%w: rate must be below %s", apperr.ErrValidation, maxRate.String())
)

// ValidateRate checks that r is a non-negative two-decimal value that fits storage.
// Finer precision is rejected rather than rounded.
func ValidateRate(r decimal.Decimal) error {
	if r.IsNegative() {
		return ErrRateNegative
	}
	if !r.Equal(r.Truncate(RatePlaces)) {
		return ErrRatePrecision
	}
	if r.GreaterThanOrEqual(maxRate) {
		return ErrRateTooLarge
	}
	return nil
}

// ParseRate parses and validates a textual rate such as "18.65".
func ParseRate(s string) (decimal.Decimal, error) {
	r, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrRateFormat
	}
	if err := ValidateRate(r); err != nil {
		return decimal.Zero, err
	}
	return r, nil
}

// FormatRate renders r with exactly two fractional digits.
func FormatRate(r decimal.Decimal) string {
	return r.StringFixed(RatePlaces)
}
