package errors

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("slow down")

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := stdErrors.Join(err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry_VariousDurations(t *testing.T) {
	tests := []struct {
		name            string
		duration        time.Duration
		expectedMessage string
	}{
		{
			name:            "zero duration omits hint",
			duration:        0,
			expectedMessage: "rate limited",
		},
		{
			name:            "30 seconds",
			duration:        30 * time.Second,
			expectedMessage: "rate limited (retry after 30s)",
		},
		{
			name:            "1 hour",
			duration:        1 * time.Hour,
			expectedMessage: "rate limited (retry after 1h0m0s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRateLimitErrorWithRetry("rate limited", tt.duration)
			if err.Error() != tt.expectedMessage {
				t.Fatalf("Error message = %q, want %q", err.Error(), tt.expectedMessage)
			}
		})
	}
}

func TestLibraryErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", NewValidationError("rating", "must be between %.1f and %.1f", 0.0, 5.0), "invalid rating: must be between 0.0 and 5.0"},
		{"duplicate", NewDuplicateKeyError("9780241952702"), "book with ISBN 9780241952702 already exists"},
		{"not found", NewNotFoundError("9780241952702"), "book 9780241952702 not found"},
		{"capacity", NewCapacityExceededError(3), "catalog is full (maximum 3 books)"},
		{"invalid argument", NewInvalidArgumentError("limit", "must be positive, got %d", 0), "invalid argument limit: must be positive, got 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Fatalf("Error message = %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestLibraryErrorPredicates_Wrapped(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("title", "must not be empty"), IsValidationError},
		{"duplicate", NewDuplicateKeyError("x"), IsDuplicateKeyError},
		{"not found", NewNotFoundError("x"), IsNotFoundError},
		{"capacity", NewCapacityExceededError(1), IsCapacityExceededError},
		{"corrupt", NewCorruptStoreError("books.json", fs.ErrInvalid), IsCorruptStoreError},
		{"invalid argument", NewInvalidArgumentError("limit", "bad"), IsInvalidArgumentError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation failed: %w", tt.err)
			if !tt.check(wrapped) {
				t.Fatalf("predicate returned false for wrapped %T", tt.err)
			}
			if tt.check(stdErrors.New("unrelated")) {
				t.Fatalf("predicate returned true for unrelated error")
			}
		})
	}
}

func TestCorruptStoreError_Unwrap(t *testing.T) {
	cause := stdErrors.New("unexpected end of JSON input")
	err := NewCorruptStoreError("books.json", cause)

	if !stdErrors.Is(err, cause) {
		t.Fatalf("CorruptStoreError does not unwrap to its cause")
	}
	want := "catalog file books.json is corrupt: unexpected end of JSON input"
	if err.Error() != want {
		t.Fatalf("Error message = %q, want %q", err.Error(), want)
	}
}
