// Package format renders analytics figures for people: locale grouped
// numbers, signed deltas and percentage changes.
package format

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// maxFractionDigits matches the default precision of a browser number
// formatter.
const maxFractionDigits = 3

// Kind selects how a table cell is rendered.
type Kind int

const (
	// Text is printed as is.
	Text Kind = iota
	// Amount is a forint amount, grouped, up to three decimals.
	Amount
	// Count is a whole number.
	Count
	// Delta is an absolute change with an explicit plus sign.
	Delta
	// Percent is a fractional change shown as a signed percentage.
	Percent
)

// Formatter formats numbers for one locale. It is safe for concurrent use.
type Formatter struct {
	printer *message.Printer
}

// New returns a Formatter for tag.
func New(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Hungarian returns the formatter used by the dashboard.
func Hungarian() *Formatter {
	return New(language.Hungarian)
}

// Number formats v with locale grouping and up to three decimals.
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(maxFractionDigits)))
}

// Integer formats n with locale grouping.
func (f *Formatter) Integer(n int) string {
	return f.printer.Sprint(number.Decimal(n))
}

// SignedNumber is Number with a leading "+" for positive values.
func (f *Formatter) SignedNumber(v float64) string {
	if v > 0 {
		return "+" + f.Number(v)
	}
	return f.Number(v)
}

// PercentChange renders a fractional change: 1.0 becomes "+100.0%".
func (f *Formatter) PercentChange(frac float64) string {
	sign := ""
	if frac > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, frac*100)
}

// Cell renders one tuple value as kind.
func (f *Formatter) Cell(kind Kind, v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		if kind == Delta {
			return f.SignedNumber(float64(x))
		}
		return f.Integer(x)
	case float64:
		switch kind {
		case Count:
			return f.Integer(int(x))
		case Delta:
			return f.SignedNumber(x)
		case Percent:
			return f.PercentChange(x)
		default:
			return f.Number(x)
		}
	default:
		return fmt.Sprint(v)
	}
}
