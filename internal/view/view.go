// Package view derives the presentation columns of categorized
// transactions and filters them by month and category.
package view

import (
	"github.com/shopspring/decimal"

	"github.com/gastos-dev/gastos/internal/model"
)

const (
	monthLayout   = "01/06"
	displayLayout = "02/01/2006"
)

// Row is a transaction plus its derived columns.
type Row struct {
	model.Transaction

	MonthBucket    string // "MM/YY"; empty when the date is unknown
	AbsoluteAmount decimal.Decimal
	SignedAmount   decimal.Decimal // shown as "Receita"
	DisplayDate    string          // "DD/MM/YYYY"
}

// HasMonth reports whether the row was assigned a month bucket.
func (r Row) HasMonth() bool { return r.MonthBucket != "" }

// Build computes the derived columns for every transaction. It is a pure
// function of its input.
func Build(txns []model.Transaction) []Row {
	rows := make([]Row, len(txns))
	for i, t := range txns {
		rows[i] = Row{
			Transaction:    t,
			AbsoluteAmount: t.Amount.Abs(),
			SignedAmount:   t.Amount,
		}
		if !t.Date.IsZero() {
			rows[i].MonthBucket = t.Date.Format(monthLayout)
			rows[i].DisplayDate = t.Date.Format(displayLayout)
		}
	}
	return rows
}

// Months returns the distinct month buckets in order of first appearance.
// Rows without a bucket are not listed.
func Months(rows []Row) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !r.HasMonth() || seen[r.MonthBucket] {
			continue
		}
		seen[r.MonthBucket] = true
		out = append(out, r.MonthBucket)
	}
	return out
}

// Categories returns the distinct categories in order of first appearance.
func Categories(rows []Row) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	return out
}

// Filter keeps rows whose month is in months and, when categories is not
// empty, whose category is in categories. An empty months selection
// therefore yields no rows while an empty categories selection keeps all.
func Filter(rows []Row, months, categories []string) []Row {
	monthSet := toSet(months)
	catSet := toSet(categories)

	out := []Row{}
	for _, r := range rows {
		if !r.HasMonth() || !monthSet[r.MonthBucket] {
			continue
		}
		if len(catSet) > 0 && !catSet[r.Category] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Total sums the absolute amounts of rows.
func Total(rows []Row) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.AbsoluteAmount)
	}
	return sum
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
