package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing record. Absence is a normal outcome:
	// lookups translate it to an empty result or a 404, never a retry.
	ErrNotFound = errors.New("not found")
	// ErrConnection signals that the vector store is unreachable.
	ErrConnection = errors.New("store connection failed")
	// ErrValidation signals a malformed or incomplete record in an insert batch.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidWeight signals a negative fusion weight.
	ErrInvalidWeight = errors.New("invalid fusion weight")
	// ErrVectorDimMismatch signals a query vector of the wrong dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrImageSearchNotSupported signals image search against a collection
	// variant that carries no image vector.
	ErrImageSearchNotSupported = errors.New("image search not supported by collection")
	// ErrEmbedderNotConfigured signals a text query on a deployment without
	// an embedding provider.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
)

// ValidationError wraps ErrValidation with the offending record and field.
// An insert batch fails atomically on the first violation found.
type ValidationError struct {
	RecordID int64
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: record %d field %q: %s", ErrValidation.Error(), e.RecordID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for one record field.
func NewValidationError(recordID int64, field, reason string) error {
	return &ValidationError{RecordID: recordID, Field: field, Reason: reason}
}
