// Package money formats amounts and quantities for display in the user's
// language.
package money

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders numbers for one language.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter creates a formatter for a BCP 47 language tag. Unknown tags
// fall back to English.
func NewFormatter(lang string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil || lang == "" {
		tag = language.English
	}
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
	}
}

// Language returns the tag the formatter renders for.
func (f *Formatter) Language() language.Tag {
	return f.tag
}

// Money formats amount in the ISO 4217 currency code. Unknown codes are
// printed after a plain two-decimal number.
func (f *Formatter) Money(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return f.Number(amount, 2)
		}
		return f.Number(amount, 2) + " " + code
	}
	return f.printer.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}

// Number formats v with exactly decimals fraction digits and locale grouping.
func (f *Formatter) Number(v float64, decimals int) string {
	return f.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// Distance formats a kilometre total.
func (f *Formatter) Distance(km float64) string {
	return f.Number(km, 1) + " km"
}

// Liters formats a fuel volume.
func (f *Formatter) Liters(l float64) string {
	return f.Number(l, 2) + " l"
}
