// Package core holds the expense record, its value types and the error
// taxonomy shared by the loader, the handlers and the entry point.
//
// This file contains the Amount type and its parsing and formatting.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal sum of money. It is persisted as a bare JSON
// number so files stay readable by other tools.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float, typically from tests.
func NewAmount(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount parses a decimal string. Both dot (12.34) and comma (12,34)
// separators are accepted. The sign is kept: positivity is checked by
// Expense.Validate so a negative input surfaces as InvalidAmountError.
//
// Examples:
//
//	ParseAmount("12.50") -> 12.5
//	ParseAmount("12,5")  -> 12.5
//	ParseAmount("-3")    -> -3 (rejected later by Validate)
func ParseAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

// Format renders the amount with two decimal places, as shown by list.
// Rounding goes through float64 to match the listings of earlier
// versions: 2.675 is stored just below the midpoint and prints as 2.67.
func (a Amount) Format() string {
	return strconv.FormatFloat(a.InexactFloat64(), 'f', 2, 64)
}

// MarshalJSON writes the amount unquoted.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}
