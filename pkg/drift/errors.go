// ABOUTME: Error taxonomy for the drift engine
// ABOUTME: Configuration and schema errors are fatal, computation warnings are not
package drift

import (
	"errors"
	"fmt"
)

// ErrEmptySequence is wrapped by the ConfigurationError returned for empty input
var ErrEmptySequence = errors.New("empty measurement sequence")

// ConfigurationError reports input that cannot be processed at all: a column
// missing for the selected clock, an empty sequence or invalid parameters.
type ConfigurationError struct {
	Column string // empty unless a column is missing
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// SchemaError reports a row that lacks a field or holds an unusable value.
// Rows are never skipped since that would desynchronize wraparound detection.
type SchemaError struct {
	Row    int // zero-based data row index
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ComputationWarning is a non-fatal condition met while deriving results
type ComputationWarning struct {
	Window int
	Reason string
}

func (w *ComputationWarning) Error() string {
	return fmt.Sprintf("window %d: %s", w.Window, w.Reason)
}

// MissingColumn builds the ConfigurationError for an absent log column
func MissingColumn(column string) error {
	return &ConfigurationError{Column: column, Reason: "missing for selected clock"}
}

func emptySequence() error {
	return &ConfigurationError{Reason: "cannot initialize time base", Err: ErrEmptySequence}
}
