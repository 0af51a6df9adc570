package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastos-dev/gastos/internal/model"
)

func testTxn() model.Transaction {
	return model.Transaction{
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-45.9"),
		Description: "MERCADO BOM PRECO",
		ExternalID:  "TX-1001",
		Category:    "Alimentação",
	}
}

func TestMarshalTransaction(t *testing.T) {
	row := MarshalTransaction(testTxn())
	assert.Equal(t, []string{"2024-03-15", "-45.90", "MERCADO BOM PRECO", "TX-1001", "Alimentação"}, row)
}

func TestWriteTransactions(t *testing.T) {
	var buf bytes.Buffer
	txn2 := testTxn()
	txn2.Description = "PIX, MARIA"
	require.NoError(t, WriteTransactions(&buf, []model.Transaction{testTxn(), txn2}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "2024-03-15,-45.90,MERCADO BOM PRECO,TX-1001,Alimentação", lines[1])
	assert.Equal(t, `2024-03-15,-45.90,"PIX, MARIA",TX-1001,Alimentação`, lines[2])
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Planilha.csv")
	unclassified := testTxn()
	unclassified.Category = model.UnclassifiedLabel
	unclassified.Unclassified = true

	require.NoError(t, WriteFile(path, []model.Transaction{testTxn(), unclassified}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, testTxn().Key(), got[0].Key())
	assert.Equal(t, "Alimentação", got[0].Category)
	assert.True(t, got[1].Unclassified)
}

func TestReadTransactions_LegacyCells(t *testing.T) {
	in := Header + "\n" +
		"2024-03-15 10:22:00,-45.9,MERCADO,1,['Alimentação']\n" +
		"not-a-date,-12.5,UBER,2,Transporte.\n"

	got, err := ReadTransactions(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, "Alimentação", got[0].Category)
	assert.True(t, got[1].Date.IsZero())
	assert.Equal(t, "Transporte", got[1].Category)
}

func TestReadTransactions_IndexColumn(t *testing.T) {
	in := ",Data,Valor,Descrição,ID,Categoria\n" +
		"0,2024-03-15,-45.9,MERCADO,TX1,['Alimentação']\n" +
		"1,2024-03-20 18:30:00,-12.5,UBER TRIP,TX3,['Transporte']\n"

	got, err := ReadTransactions(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, "-45.9", got[0].Amount.String())
	assert.Equal(t, "MERCADO", got[0].Description)
	assert.Equal(t, "TX1", got[0].ExternalID)
	assert.Equal(t, "Alimentação", got[0].Category)
	assert.Equal(t, "Transporte", got[1].Category)
}

func TestReadTransactions_BadHeader(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader("Data,Valor,Descricao,ID,Categoria\n"))
	assert.Error(t, err)

	_, err = ReadTransactions(strings.NewReader("idx,Data,Valor,Descrição,ID,Categoria\n"))
	assert.Error(t, err)

	_, err = ReadTransactions(strings.NewReader(",Data,Valor,Descrição,ID,Categoria\n0,2024-03-15,-1,X,1\n"))
	assert.Error(t, err)
}

func TestReadTransactions_Errors(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader(Header + "\n2024-03-15,abc,X,1,Outros\n"))
	assert.Error(t, err)

	_, err = ReadTransactions(strings.NewReader(Header + "\n2024-03-15,-1,X\n"))
	assert.Error(t, err)

	got, err := ReadTransactions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "none.csv"))
	assert.Error(t, err)
}
