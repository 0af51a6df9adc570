package view

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money formats an amount the way the statements show it: "R$ 1.234,56".
// Digits come from the decimal itself, so large values keep every cent.
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	whole, cents, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	b.WriteString("R$ ")
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(cents)
	return b.String()
}
