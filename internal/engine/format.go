package engine

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber renders a label value with digit grouping and at most two
// decimals.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return numberPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}
