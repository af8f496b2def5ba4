// Package core provides the ledger domain types and money handling.
//
// Amounts are stored as integer cents. ParseAmount accepts the formats
// the original data used: plain integers, dotted thousands groups
// ("1.000.000") and a comma decimal separator ("12,34").
package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the whole-currency value as a float64 for display.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// FromUnits builds a Money from a whole number of currency units.
func FromUnits(units int64) Money {
	return Money{Cents: units * 100}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = v
	return nil
}

// ParseAmount converts a user-facing amount string to Money with
// half-up rounding on the third decimal digit. Dots are thousands
// separators, the comma is the decimal separator. Only positive
// amounts are accepted.
//
// Examples:
//
//	ParseAmount("1200")      -> 120000 cents
//	ParseAmount("1.000.000") -> 100000000 cents
//	ParseAmount("12,34")     -> 1234 cents
//	ParseAmount("12,346")    -> 1235 cents (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	// Thousands separators carry no information.
	s = strings.ReplaceAll(s, ".", "")

	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

var _ json.Marshaler = Money{}
var _ json.Unmarshaler = (*Money)(nil)
