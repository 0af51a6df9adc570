package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Outcome records how a label was obtained for one transaction.
type Outcome string

const (
	OutcomeExact      Outcome = "exact"
	OutcomeNormalized Outcome = "normalized"
	OutcomeFallback   Outcome = "fallback"
	OutcomeResumed    Outcome = "resumed"
	OutcomeFailed     Outcome = "failed"
)

// Entry is one row in the classification log.
type Entry struct {
	Timestamp   time.Time
	Description string
	RawResponse string
	Label       string
	Outcome     Outcome
	Attempts    int
}

// Header is the CSV header of the classification log.
const Header = "timestamp,description,raw_response,label,outcome,attempts"

const (
	numFields      = 6
	colTimestamp   = 0
	colDescription = 1
	colRaw         = 2
	colLabel       = 3
	colOutcome     = 4
	colAttempts    = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colDescription] = e.Description
	row[colRaw] = e.RawResponse
	row[colLabel] = e.Label
	row[colOutcome] = string(e.Outcome)
	row[colAttempts] = strconv.Itoa(e.Attempts)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	attempts, err := strconv.Atoi(record[colAttempts])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing attempts %q: %w", record[colAttempts], err)
	}

	return Entry{
		Timestamp:   ts,
		Description: record[colDescription],
		RawResponse: record[colRaw],
		Label:       record[colLabel],
		Outcome:     Outcome(record[colOutcome]),
		Attempts:    attempts,
	}, nil
}

// Append writes entries to path, creating the file, its directory and the
// header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening classification log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries in path. A missing file yields no entries.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening classification log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading classification log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Summary counts entries per outcome.
func Summary(entries []Entry) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, e := range entries {
		counts[e.Outcome]++
	}
	return counts
}
