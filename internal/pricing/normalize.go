// Package pricing implements the store's canonical cents-ending convention
// for displayed amounts: totals end in .X0 or .X9.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount indicates an amount below zero, which has no display form.
var ErrNegativeAmount = errors.New("amount must not be negative")

var nineCents = decimal.New(9, -2)

// Normalize rounds amount to the canonical cents ending. The cents part is
// truncated down to the nearest multiple of ten; when its last digit was 5-9,
// nine cents are added back so the result ends in .X9. Deterministic, pure and
// idempotent. Stored unit prices are never normalized; apply this once, at
// display time, to the aggregate amount.
func Normalize(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}

	units := amount.Floor()
	cents := amount.Sub(units).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	out := units.Add(decimal.New(cents/10, -1))
	if cents%10 > 4 {
		out = out.Add(nineCents)
	}
	return out, nil
}
