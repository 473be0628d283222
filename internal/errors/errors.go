package errors

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	// Store errors
	ErrNoteNotFound  = errors.New("note not found")
	ErrDatabaseQuery = errors.New("database query failed")
	ErrTextChanged   = errors.New("note text changed since it was read")

	// Validation errors
	ErrEmptyText        = errors.New("text cannot be empty")
	ErrEmptyQuery       = errors.New("query cannot be empty")
	ErrInvalidBoolean   = errors.New("invalid boolean value (use true/false)")
	ErrUnknownConfigKey = errors.New("unknown configuration key")

	// Embedding errors
	ErrInvalidEmbeddingLength = errors.New("invalid embedding data length")
	ErrDimensionMismatch      = errors.New("embedding dimension mismatch")
	ErrMissingVector          = errors.New("embedding response has no vector")
)

// StoreError wraps a failure talking to the note store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err, leaving nil and not-found errors untouched.
func NewStoreError(op string, err error) error {
	if err == nil || errors.Is(err, ErrNoteNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// EmbeddingProviderError reports a network failure, a non-success status or a
// malformed payload from the embedding provider. Status is 0 when no HTTP
// response was received.
type EmbeddingProviderError struct {
	Status int
	Err    error
}

func (e *EmbeddingProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("embedding provider returned %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("embedding provider: %v", e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// ValidationError is returned for caller input the server refuses to act on.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoteNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsEmbeddingProvider(err error) bool {
	var pe *EmbeddingProviderError
	return errors.As(err, &pe)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
