package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnclassifiedLabel marks a row whose classification call failed and was
// skipped in keep-going mode.
const UnclassifiedLabel = "Não classificado"

// Transaction is one debit or credit movement taken from a statement.
type Transaction struct {
	Date        time.Time       // calendar date, midnight UTC; zero if unknown
	Amount      decimal.Decimal // negative = debit, positive = credit
	Description string
	ExternalID  string // FITID from the statement, may be empty
	Category    string // empty until categorized

	// Unclassified is set when the classification call failed for this row.
	Unclassified bool
}

// IsDebit reports whether the transaction reduces the balance.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// Categorized reports whether a label has been assigned.
func (t Transaction) Categorized() bool {
	return t.Category != "" && !t.Unclassified
}

// Key identifies a transaction across runs: "2024-03-15|-45.90|MERCADO|id".
// Used to reuse labels from a previous export.
func (t Transaction) Key() string {
	date := ""
	if !t.Date.IsZero() {
		date = t.Date.Format("2006-01-02")
	}
	return strings.Join([]string{
		date,
		t.Amount.StringFixed(2),
		strings.TrimSpace(t.Description),
		t.ExternalID,
	}, "|")
}

// CalendarDate drops the time of day, keeping the date as written on the
// statement regardless of its zone.
func CalendarDate(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Time{}
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
