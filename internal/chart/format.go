package chart

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// formatValue groups thousands and keeps at most three fraction digits.
// Output is fixed to one locale.
func formatValue(p *message.Printer, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// formatPercent renders part/total as a percentage with one decimal.
func formatPercent(part, total float64) string {
	if total <= 0 {
		return "0.0%"
	}
	pct := decimal.NewFromFloat(part).Div(decimal.NewFromFloat(total)).Mul(decimal.NewFromInt(100))
	return pct.StringFixed(1) + "%"
}
