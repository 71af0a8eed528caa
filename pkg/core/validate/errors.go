package validate

import (
	"errors"
	"fmt"
	"strings"
)

// FormatError means the model output could not be turned into a JSON object,
// even after every repair step.
type FormatError struct {
	Reason string
	// Attempts lists the repair steps that were tried, in order.
	Attempts []string
	Err      error
}

func (e *FormatError) Error() string {
	msg := "EXTRACTION_FORMAT_ERROR: " + e.Reason
	if len(e.Attempts) > 0 {
		msg += fmt.Sprintf(" (tried: %s)", strings.Join(e.Attempts, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// IncompleteError means the payload parsed but mandatory fields are missing.
// Missing holds section-qualified names such as "balance_end.total_equity".
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "EXTRACTION_INCOMPLETE: missing mandatory fields: " + strings.Join(e.Missing, ", ")
}

// IsFormatError reports whether err wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsIncompleteError reports whether err wraps an IncompleteError.
func IsIncompleteError(err error) bool {
	var ie *IncompleteError
	return errors.As(err, &ie)
}
