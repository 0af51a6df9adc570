// Package export reads and writes the batch spreadsheet of categorized
// debits.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastos-dev/gastos/internal/category"
	"github.com/gastos-dev/gastos/internal/model"
)

// Header is the CSV header of the exported spreadsheet.
const Header = "Data,Valor,Descrição,ID,Categoria"

const (
	numFields  = 5
	dateFormat = "2006-01-02"
	colDate    = 0
	colAmount  = 1
	colDesc    = 2
	colID      = 3
	colCat     = 4
)

// ReadTransactions reads every row of an exported spreadsheet. Dates that
// do not parse are kept as the zero time; category cells are stripped of
// quoting left by older exports (['Alimentação']). Spreadsheets saved with a
// leading unnamed index column are accepted too.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	offset, err := headerOffset(records[0])
	if err != nil {
		return nil, err
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", i+2, len(records[0]), len(rec))
		}
		txn, err := UnmarshalTransaction(rec[offset:])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// headerOffset returns how many leading index columns precede the data.
func headerOffset(header []string) (int, error) {
	want := strings.Split(Header, ",")
	offset := len(header) - numFields
	if offset < 0 || offset > 1 || (offset == 1 && strings.TrimSpace(header[0]) != "") {
		return 0, fmt.Errorf("unexpected spreadsheet header %q", strings.Join(header, ","))
	}
	for i, name := range want {
		if strings.TrimSpace(strings.TrimPrefix(header[offset+i], "\ufeff")) != name {
			return 0, fmt.Errorf("unexpected spreadsheet column %q, want %q", header[offset+i], name)
		}
	}
	return offset, nil
}

// WriteTransactions writes txns to w, header included.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile replaces path with the spreadsheet, creating parent dirs.
func WriteFile(path string, txns []model.Transaction) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteTransactions(f, txns); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the spreadsheet at path.
func ReadFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadTransactions(f)
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	if !txn.Date.IsZero() {
		row[colDate] = txn.Date.Format(dateFormat)
	}
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colDesc] = txn.Description
	row[colID] = txn.ExternalID
	row[colCat] = txn.Category
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	txn := model.Transaction{
		Date:        parseDate(record[colDate]),
		Amount:      amount,
		Description: record[colDesc],
		ExternalID:  record[colID],
		Category:    category.Strip(record[colCat]),
	}
	if txn.Category == model.UnclassifiedLabel {
		txn.Unclassified = true
	}
	return txn, nil
}

// parseDate accepts a date with or without a time part. Anything else
// becomes the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateFormat, "2006-01-02 15:04:05", "2006-01-02 15:04:05-07:00", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return model.CalendarDate(ts)
		}
	}
	return time.Time{}
}
