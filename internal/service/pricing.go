package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// parsePrice parses a currency-unit amount like "12.50". Negative
// amounts are rejected.
func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid price %q", ErrInvalidRequest, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price cannot be negative", ErrInvalidRequest)
	}
	return d, nil
}

// toCents converts a currency-unit amount to minor units, the form the
// payment processor charges in.
func toCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
