package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal pipeline error for callers.
type Kind string

const (
	KindExtractionIO         Kind = "extraction_io"
	KindInferenceUnavailable Kind = "inference_unavailable"
	KindExtractionFormat     Kind = "extraction_format"
	KindExtractionIncomplete Kind = "extraction_incomplete"
	KindInvalidInput         Kind = "invalid_input"
	KindInternal             Kind = "internal"
)

// Retry hints.
const (
	RetryResubmit = "resubmit"
	RetryLater    = "later"
)

// ErrTooLarge marks invalid input rejected for its size.
var ErrTooLarge = errors.New("request too large")

// Error is a fatal pipeline error with its kind and the stage that failed.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retry tells the caller whether better input or a later attempt can help.
func (e *Error) Retry() string {
	switch e.Kind {
	case KindInferenceUnavailable, KindInternal:
		return RetryLater
	default:
		return RetryResubmit
	}
}

func newError(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the kind of a pipeline error, KindInternal for anything else.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
