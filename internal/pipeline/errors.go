package pipeline

import "fmt"

// TypeConversionError reports a record whose amount or date cannot be
// coerced. Index is the record's position across all loaded files.
type TypeConversionError struct {
	Index int
	Field string // "amount" or "date"
	Value string
	Err   error
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("record %d: converting %s %q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *TypeConversionError) Unwrap() error { return e.Err }

// ClassificationServiceError reports a failed classification call for the
// row at Index after every attempt was used.
type ClassificationServiceError struct {
	Index       int
	Description string
	Attempts    int
	Err         error
}

func (e *ClassificationServiceError) Error() string {
	return fmt.Sprintf("classifying row %d (%q) after %d attempt(s): %v", e.Index, e.Description, e.Attempts, e.Err)
}

func (e *ClassificationServiceError) Unwrap() error { return e.Err }
