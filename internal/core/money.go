// Package core provides money parsing and handling utilities.
//
// Amounts are kept as shopspring decimals so totals never drift the way
// float sums do.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Zero is accepted; negative values and non-numeric input are not.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrNegativeAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: "amount", Err: ErrNegativeAmount}
	}
	return nil
}

// FormatAmount renders an amount for display with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
