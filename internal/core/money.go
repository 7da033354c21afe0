// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing user-entered amounts and formatting
// them the way the receipts screen and the reimbursement mail show them.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount bounds a single entered amount at one billion kroner.
var maxAmount = decimal.New(1, 9)

// maxKroner is the largest amount an int64 of øre can hold.
var maxKroner = decimal.New(math.MaxInt64, -2)

// ParseAmount converts a user-entered amount to Money.
//
// It accepts both dot (12.50) and comma (12,50) decimal separators. When both
// appear, the last one is the decimal separator and the other one is treated as
// digit grouping ("1.234,50" and "1,234.50" are the same amount). The value is
// rounded half away from zero to whole øre.
//
// ParseAmount never fails: empty or unparseable input yields zero. Negative
// values are kept as entered.
//
// Examples:
//
//	ParseAmount("12.5")     -> 12,50
//	ParseAmount("7,25")     -> 7,25
//	ParseAmount("1.234,56") -> 1234,56
//	ParseAmount("abc")      -> 0,00
func ParseAmount(raw string) Money {
	s := normalizeAmount(raw)
	if s == "" {
		return Money{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}
	}
	return moneyFromDecimal(d)
}

func normalizeAmount(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "kr"))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

func moneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// FormatAmount renders a fixed two-decimal amount with a decimal comma, e.g. "12,50".
func FormatAmount(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

// Decimal returns the amount as a decimal number of kroner.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns the sum of two amounts, saturating at the int64 range instead
// of wrapping around.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		sum = math.MaxInt64
	case o.Cents < 0 && sum > m.Cents:
		sum = -math.MaxInt64
	}
	return Money{Cents: sum}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return FormatAmount(m) + " kr"
}

// MarshalJSON encodes the amount as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts JSON numbers as well as numeric strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return ErrInvalidAmount
	}
	if d.Abs().GreaterThan(maxKroner) {
		return ErrInvalidAmount
	}
	*m = moneyFromDecimal(d)
	return nil
}
