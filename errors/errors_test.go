package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFaultMessageAndUnwrap(t *testing.T) {
	f := NewFault(KindStep, "classify", ErrUnavailable)
	if got := f.Error(); got != "classify error: provider unavailable" {
		t.Fatalf("unexpected message %q", got)
	}
	wrapped := fmt.Errorf("outer: %w", f)
	if !errors.Is(wrapped, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable through the chain")
	}
	if !IsKind(wrapped, KindStep) {
		t.Fatalf("expected step kind")
	}
	if IsKind(wrapped, KindPersistence) {
		t.Fatalf("did not expect persistence kind")
	}
}

func TestValidationFault(t *testing.T) {
	f := Validation("query is empty")
	if got := f.Error(); got != "validation: invalid input: query is empty" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(f, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput")
	}
}
