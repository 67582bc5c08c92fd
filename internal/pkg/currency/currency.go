// Package currency formats and parses Philippine peso amounts.
package currency

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol is the peso sign
const Symbol = "₱"

var (
	printer    = message.NewPrinter(language.MustParse("en-PH"))
	nonNumeric = regexp.MustCompile(`[^\d.]`)
)

// FormatPHP renders an amount as "₱50,000.00". Unparsable input renders
// as "₱0.00".
func FormatPHP(amount string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Symbol + "0.00"
	}
	return FormatDecimal(d)
}

// FormatDecimal renders a decimal amount with the peso sign
func FormatDecimal(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole := rounded.IntPart()
	frac := rounded.StringFixed(2)
	frac = frac[strings.IndexByte(frac, '.'):]
	return sign + Symbol + printer.Sprintf("%d", whole) + frac
}

// ParsePHPInput strips everything but digits and the decimal point
func ParsePHPInput(input string) string {
	return nonNumeric.ReplaceAllString(input, "")
}
