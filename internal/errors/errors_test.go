package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{
			name:     "ErrNotFound is recognized",
			err:      ErrNotFound,
			checkFn:  IsNotFound,
			expected: true,
		},
		{
			name:     "Joined ErrNotFound is recognized",
			err:      errors.Join(ErrNotFound, errors.New("additional context")),
			checkFn:  IsNotFound,
			expected: true,
		},
		{
			name:     "Different error is not ErrNotFound",
			err:      ErrUnsupportedFormat,
			checkFn:  IsNotFound,
			expected: false,
		},
		{
			name:     "Wrapped ErrInvalidInput is recognized",
			err:      fmt.Errorf("roster: %w", ErrInvalidInput),
			checkFn:  IsInvalidInput,
			expected: true,
		},
		{
			name:     "ValidationError is invalid input",
			err:      NewValidationError("class_id", "required"),
			checkFn:  IsInvalidInput,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checkFn(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("email", "invalid format")

	if err.Field != "email" {
		t.Errorf("expected field 'email', got %q", err.Field)
	}
	if got := err.Error(); got != "validation failed on email: invalid format" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("corrupt xref table")
	err := NewExtractionError("data/syllabus.pdf", "pdf", cause)

	if !errors.Is(err, cause) {
		t.Error("ExtractionError should unwrap to its cause")
	}
	want := "extract data/syllabus.pdf (pdf): corrupt xref table"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
