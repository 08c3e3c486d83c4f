package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested record or collection was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates that an external provider is not configured or unreachable
	ErrUnavailable = errors.New("provider unavailable")

	// ErrEmptyGeneration indicates the text generator returned nothing usable
	ErrEmptyGeneration = errors.New("empty generation")

	// ErrInvalidOutput indicates that model output failed to parse or validate
	ErrInvalidOutput = errors.New("invalid model output")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Kind classifies a Fault.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindRetrieval   Kind = "retrieval"
	KindGeneration  Kind = "generation"
	KindPersistence Kind = "persistence"
	KindSynthesis   Kind = "synthesis"
	KindStep        Kind = "step"
)

// Fault is a recoverable failure captured while answering a query.
// It never aborts a run; it is surfaced in the response's error list.
type Fault struct {
	Kind Kind
	Step string
	Err  error
}

func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	switch {
	case f.Step != "" && f.Err != nil:
		return fmt.Sprintf("%s error: %v", f.Step, f.Err)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	default:
		return string(f.Kind)
	}
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// NewFault builds a Fault attributed to a step.
func NewFault(kind Kind, step string, err error) *Fault {
	return &Fault{Kind: kind, Step: step, Err: err}
}

// Validation builds a validation Fault whose message is prefixed "validation: ".
func Validation(format string, args ...any) *Fault {
	return &Fault{Kind: KindValidation, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)}
}

// IsKind reports whether err carries a Fault of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}
