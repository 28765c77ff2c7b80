// Package locale formats values for Brazilian Portuguese (pt-BR) documents.
//
// Nothing here consults the host environment: separators and month names
// are embedded, so output is identical on every machine.
package locale

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PTBR is the only supported locale tag.
const PTBR = "pt-BR"

// CurrencySymbol prefixes money values.
const CurrencySymbol = "R$"

const (
	thousandsSep = "."
	decimalSep   = ","
)

var months = [12]string{
	"janeiro",
	"fevereiro",
	"março",
	"abril",
	"maio",
	"junho",
	"julho",
	"agosto",
	"setembro",
	"outubro",
	"novembro",
	"dezembro",
}

// MonthName returns the lowercase month name, or "" for an invalid month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

// FormatDate renders "{day} de {month} de {year}", e.g. "1 de janeiro de 2025".
// An invalid month falls back to "dd/mm/yyyy".
func FormatDate(year int, month time.Month, day int) string {
	name := MonthName(month)
	if name == "" {
		return fmt.Sprintf("%02d/%02d/%04d", day, int(month), year)
	}
	return fmt.Sprintf("%d de %s de %d", day, name, year)
}

// FormatCurrency renders d with two decimals, "." as thousands separator
// and "," as decimal separator: 1234.5 becomes "1.234,50". Rounding happens
// here and nowhere else.
func FormatCurrency(d decimal.Decimal) string {
	return formatFixed(d, 2)
}

// FormatMoney is FormatCurrency prefixed with the currency symbol.
func FormatMoney(d decimal.Decimal) string {
	return CurrencySymbol + " " + FormatCurrency(d)
}

// FormatQuantity renders a quantity without trailing zeros: 3 becomes "3",
// 2.5 becomes "2,5" and 1500 becomes "1.500".
func FormatQuantity(d decimal.Decimal) string {
	places := int32(0)
	if exp := d.Exponent(); exp < 0 {
		places = -exp
	}
	s := formatFixed(d, places)
	if strings.Contains(s, decimalSep) {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, decimalSep)
	}
	return s
}

func formatFixed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(groupThousands(intPart))
	if fracPart != "" {
		b.WriteString(decimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
