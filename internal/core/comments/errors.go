package comments

import (
	"errors"
	"fmt"

	"PicSphere/internal/core/docstore"
)

// ErrCommentNotFound is returned when no comment document exists for an id
var ErrCommentNotFound = fmt.Errorf("comment %w", docstore.ErrNotFound)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
