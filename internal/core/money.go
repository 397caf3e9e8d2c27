// Package core holds the pure domain model and the deterministic
// computation layer: schedule distribution, ledger aggregation,
// receivables projection, cash intelligence and subscription state.
//
// This file contains helpers for parsing and handling monetary values.
// All money in the system is a single-currency decimal with two decimal
// places, backed by shopspring/decimal so sums stay cent-exact.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidCount  = errors.New("invalid installment count")
)

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a decimal string into a non-negative 2dp amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// performs half-up rounding on the third decimal place. Negative values
// are rejected.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34, nil
//	ParseMoney("12,34")  -> 12.34, nil
//	ParseMoney("12.345") -> 12.35, nil (rounds up)
//	ParseMoney("-1")     -> error
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// MustMoney parses a trusted decimal string and panics on failure.
// Intended for literals in code and for rows already validated at the
// storage boundary.
func MustMoney(s string) decimal.Decimal {
	d, err := ParseMoney(s)
	if err != nil {
		panic("core: bad money literal " + s + ": " + err.Error())
	}
	return d
}

// Cents returns the amount expressed in whole cents.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).IntPart()
}

// FromCents builds a 2dp amount from whole cents.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
