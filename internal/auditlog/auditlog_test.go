package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:   testTime,
		Description: "MERCADO BOM PRECO",
		RawResponse: "Alimentação.",
		Label:       "Alimentação",
		Outcome:     OutcomeExact,
		Attempts:    1,
	}
}

func TestAppend_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "classificacao.csv")
	require.NoError(t, Append(path, []Entry{testEntry()}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header+"\n"))
}

func TestAppend_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	require.NoError(t, Append(path, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Description = "UBER TRIP"
	e2.RawResponse = "Viagem"
	e2.Label = "Outros"
	e2.Outcome = OutcomeFallback
	require.NoError(t, Append(path, []Entry{e2}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, OutcomeExact, entries[0].Outcome)
	assert.Equal(t, OutcomeFallback, entries[1].Outcome)
}

func TestAppend_MultilineResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	e := testEntry()
	e.RawResponse = "Lazer\nPorque é um cinema, claro."
	require.NoError(t, Append(path, []Entry{e}))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.RawResponse, entries[0].RawResponse)
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "none.csv"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadEntries_BadRow(t *testing.T) {
	_, err := readEntries(strings.NewReader(Header + "\nnot-a-time,a,b,c,exact,1\n"))
	assert.Error(t, err)

	_, err = readEntries(strings.NewReader(Header + "\n2024-03-15T10:30:00Z,a,b,c,exact,x\n"))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	e := testEntry()
	f := testEntry()
	f.Outcome = OutcomeFailed
	counts := Summary([]Entry{e, e, f})
	assert.Equal(t, 2, counts[OutcomeExact])
	assert.Equal(t, 1, counts[OutcomeFailed])
	assert.Equal(t, 0, counts[OutcomeResumed])
}
