// Package money formats amounts for display.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts with a currency symbol and digit grouping.
type Formatter struct {
	Symbol  string
	printer *message.Printer
}

func NewFormatter(symbol string) Formatter {
	return Formatter{
		Symbol:  symbol,
		printer: message.NewPrinter(language.English),
	}
}

// Amount rounds to whole units, e.g. "₹1,235".
func (f Formatter) Amount(v float64) string {
	return f.Symbol + f.printer.Sprintf("%.0f", v)
}

// Count groups digits, e.g. "12,400".
func (f Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Percent keeps two decimals, e.g. "75.00%".
func (f Formatter) Percent(v float64) string {
	return f.printer.Sprintf("%.2f%%", v)
}
