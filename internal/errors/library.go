package errors

import (
	stdErrors "errors"
	"fmt"
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the named field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError (even when wrapped).
func IsValidationError(err error) bool {
	var target *ValidationError
	return stdErrors.As(err, &target)
}

// DuplicateKeyError is returned when an ISBN is already present in the catalog.
type DuplicateKeyError struct {
	ISBN string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("book with ISBN %s already exists", e.ISBN)
}

// NewDuplicateKeyError creates a DuplicateKeyError for the canonical ISBN
func NewDuplicateKeyError(isbn string) *DuplicateKeyError {
	return &DuplicateKeyError{ISBN: isbn}
}

// IsDuplicateKeyError reports whether err is a DuplicateKeyError (even when wrapped).
func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return stdErrors.As(err, &target)
}

// NotFoundError is returned when a book cannot be found by the given key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %s not found", e.Key)
}

// NewNotFoundError creates a NotFoundError for the given ISBN or index
func NewNotFoundError(key string) *NotFoundError {
	return &NotFoundError{Key: key}
}

// IsNotFoundError reports whether err is a NotFoundError (even when wrapped).
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return stdErrors.As(err, &target)
}

// CapacityExceededError is returned when the catalog is at its configured maximum size.
type CapacityExceededError struct {
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("catalog is full (maximum %d books)", e.Limit)
}

// NewCapacityExceededError creates a CapacityExceededError
func NewCapacityExceededError(limit int) *CapacityExceededError {
	return &CapacityExceededError{Limit: limit}
}

// IsCapacityExceededError reports whether err is a CapacityExceededError (even when wrapped).
func IsCapacityExceededError(err error) bool {
	var target *CapacityExceededError
	return stdErrors.As(err, &target)
}

// CorruptStoreError is returned when the backing file exists but cannot be parsed.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("catalog file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

// NewCorruptStoreError creates a CorruptStoreError wrapping the underlying cause
func NewCorruptStoreError(path string, err error) *CorruptStoreError {
	return &CorruptStoreError{Path: path, Err: err}
}

// IsCorruptStoreError reports whether err is a CorruptStoreError (even when wrapped).
func IsCorruptStoreError(err error) bool {
	var target *CorruptStoreError
	return stdErrors.As(err, &target)
}

// InvalidArgumentError reports a bad query parameter such as a non-positive
// limit or an unknown search type.
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Argument, e.Message)
}

// NewInvalidArgumentError creates an InvalidArgumentError
func NewInvalidArgumentError(argument, format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgumentError reports whether err is an InvalidArgumentError (even when wrapped).
func IsInvalidArgumentError(err error) bool {
	var target *InvalidArgumentError
	return stdErrors.As(err, &target)
}
