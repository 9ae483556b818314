package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	USD Currency = "USD"
	TZS Currency = "TZS"
)

// All supported currencies use two fractional digits.
const minorUnitExponent = 2

var (
	ErrAmountNotPositive  = errors.New("amount must be positive")
	ErrAmountNotRepresent = errors.New("amount is not representable in minor units")
)

// ToMinorUnits converts a decimal major-unit amount (e.g. 10.50) into
// int64 minor units (1050). Amounts with more than two fractional
// digits are rejected rather than rounded: the caller sent something
// we cannot represent exactly.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrAmountNotPositive
	}

	scaled := amount.Shift(minorUnitExponent)
	if !scaled.IsInteger() {
		return 0, ErrAmountNotRepresent
	}
	if !scaled.BigInt().IsInt64() {
		return 0, ErrAmountNotRepresent
	}

	return scaled.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits, used when rendering
// balances back to clients.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -minorUnitExponent)
}
