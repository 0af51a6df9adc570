package statement

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aclindsa/ofxgo"
	"golang.org/x/text/encoding/charmap"
)

// OFXParser parses Open Financial Exchange statement exports (SGML 1.x and
// XML 2.x). Bank and credit-card statements of every account in the file
// are flattened into one sequence; the account is not kept.
type OFXParser struct{}

// Format returns the parser name.
func (p *OFXParser) Format() string { return "ofx" }

// Extensions returns the file extensions handled by the parser.
func (p *OFXParser) Extensions() []string { return []string{".ofx", ".qfx"} }

// Parse reads an OFX document and returns its transactions in file order.
func (p *OFXParser) Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading OFX: %w", err)
	}

	// Many banks export CHARSET:1252 with accented memos.
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding OFX as windows-1252: %w", err)
		}
		data = decoded
	}

	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading OFX: %w", err)
	}

	var recs []Record
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		recs = appendOFXTransactions(recs, stmt.BankTranList.Transactions)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		recs = appendOFXTransactions(recs, stmt.BankTranList.Transactions)
	}
	return recs, nil
}

func appendOFXTransactions(recs []Record, txns []ofxgo.Transaction) []Record {
	for _, t := range txns {
		memo := strings.TrimSpace(string(t.Memo))
		if memo == "" {
			memo = strings.TrimSpace(string(t.Name))
		}
		recs = append(recs, Record{
			Posted:     t.DtPosted.Time,
			Amount:     formatRat(t.TrnAmt.FloatString(4)),
			Memo:       memo,
			ExternalID: strings.TrimSpace(string(t.FiTID)),
		})
	}
	return recs
}

// formatRat trims "-45.9000" to "-45.9".
func formatRat(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}
