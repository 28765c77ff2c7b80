package proposal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-entered number. Both "1234.56" and the
// Brazilian "1.234,56" forms are accepted, optionally prefixed with "R$".
// When a comma is present it is the decimal separator and dots are
// thousands separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)

	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount value %q: %w", raw, err)
	}

	return d, nil
}

// CoerceAmount parses raw and clamps the result to zero. The boolean is
// false when the value had to be replaced (unparsable, empty or negative).
func CoerceAmount(raw string) (decimal.Decimal, bool) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// Clamp returns d, or zero when d is negative.
func Clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
