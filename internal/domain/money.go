package domain

import "github.com/shopspring/decimal"

// MaxAmount is the first value that does not fit NUMERIC(14,2).
var MaxAmount = decimal.New(1, 12)

// ValidateAmount rejects non-positive amounts, amounts with more than two
// fractional digits and amounts that overflow the storage precision.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}
