package posts

import (
	"errors"
	"fmt"

	"PicSphere/internal/core/docstore"
)

// Sentinel errors for post operations
var (
	// ErrPostNotFound is returned when no post document exists for an id
	ErrPostNotFound = fmt.Errorf("post %w", docstore.ErrNotFound)

	// ErrNotAuthorized is returned when the actor does not own the post
	ErrNotAuthorized = errors.New("not authorized to modify this post")
)

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
