package pipeline

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gastos-dev/gastos/internal/model"
	"github.com/gastos-dev/gastos/internal/statement"
)

var errMissingDate = errors.New("missing posting date")

// Normalize concatenates the records of every file in order, coerces amount
// and date, and keeps only debits. Duplicate external IDs are kept.
func Normalize(batches ...[]statement.Record) ([]model.Transaction, error) {
	var txns []model.Transaction
	index := 0
	for _, recs := range batches {
		for _, rec := range recs {
			txn, err := convert(index, rec)
			if err != nil {
				return nil, err
			}
			index++
			if !txn.IsDebit() {
				continue
			}
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

func convert(index int, rec statement.Record) (model.Transaction, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(rec.Amount))
	if err != nil {
		return model.Transaction{}, &TypeConversionError{Index: index, Field: "amount", Value: rec.Amount, Err: err}
	}
	if rec.Posted.IsZero() {
		return model.Transaction{}, &TypeConversionError{Index: index, Field: "date", Err: errMissingDate}
	}
	return model.Transaction{
		Date:        model.CalendarDate(rec.Posted),
		Amount:      amount,
		Description: rec.Memo,
		ExternalID:  rec.ExternalID,
	}, nil
}
