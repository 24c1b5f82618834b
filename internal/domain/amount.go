package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// ValidAmount reports whether d is a non-negative whole number of the smallest currency unit.
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.IsInteger()
}

// Cost returns price multiplied by quantity.
func Cost(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}

// AddQuantity returns current+delta, or ErrInvalidQuantity when the sum leaves the
// int64 range quantities are stored in.
func AddQuantity(current, delta int64) (int64, error) {
	if delta > 0 && current > math.MaxInt64-delta {
		return 0, ErrInvalidQuantity
	}
	if delta < 0 && current < math.MinInt64-delta {
		return 0, ErrInvalidQuantity
	}
	return current + delta, nil
}
