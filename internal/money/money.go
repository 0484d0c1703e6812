// Package money provides fixed-point monetary helpers shared by the split
// engine and the balance ledger. All amounts are shopspring decimals; binary
// floating point never touches balance arithmetic.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon is the settlement threshold: any balance whose magnitude falls
// below one cent is considered settled.
var Epsilon = decimal.New(1, -2) // 0.01

// Round2 rounds to the nearest cent, half away from zero. Amounts flowing
// through the split engine are non-negative, so this is half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsSettled reports whether d is within the settlement epsilon of zero.
func IsSettled(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// WithinEpsilon reports whether a and b differ by at most the settlement
// epsilon. Used for validating caller-supplied sums (exact amounts,
// percentages) that may carry their own rounding.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// Parse converts a decimal string from the HTTP layer into an amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Format renders an amount with two decimal places for responses.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
