package view

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gastos-dev/gastos/internal/category"
)

// Slice is one category's share of the chart.
type Slice struct {
	Category string
	Total    decimal.Decimal
	Color    string
	Share    decimal.Decimal // 0..1, rounded to 4 places
}

// Percent is Share scaled to 0..100 with one decimal, e.g. "42.5".
func (s Slice) Percent() string {
	return s.Share.Mul(decimal.NewFromInt(100)).StringFixed(1)
}

// ByCategory sums AbsoluteAmount per category, largest first. Ties keep
// the order in which categories first appear.
func ByCategory(rows []Row, palette category.Palette) []Slice {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, r := range rows {
		if _, ok := totals[r.Category]; !ok {
			order = append(order, r.Category)
			totals[r.Category] = decimal.Zero
		}
		totals[r.Category] = totals[r.Category].Add(r.AbsoluteAmount)
	}

	grand := Total(rows)
	slices := make([]Slice, len(order))
	for i, c := range order {
		s := Slice{Category: c, Total: totals[c], Color: palette.Color(c), Share: decimal.Zero}
		if grand.IsPositive() {
			s.Share = totals[c].DivRound(grand, 4)
		}
		slices[i] = s
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Total.GreaterThan(slices[j].Total)
	})
	return slices
}
