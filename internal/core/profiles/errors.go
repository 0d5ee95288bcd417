package profiles

import (
	"errors"
	"fmt"

	"PicSphere/internal/core/docstore"
)

// Sentinel errors for profile operations
var (
	// ErrProfileNotFound is returned when no user document exists for an id
	ErrProfileNotFound = fmt.Errorf("profile %w", docstore.ErrNotFound)

	// ErrUsernameTaken is returned when another user already has the requested username
	ErrUsernameTaken = errors.New("username already taken")
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

// PropagationError reports that a profile edit was saved but copying it onto
// some posts, stories or comments failed. Err is the last failure seen.
type PropagationError struct {
	UserID string
	Failed int
	Err    error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("profile %s saved but %d denormalized copies failed to update: %v", e.UserID, e.Failed, e.Err)
}

func (e *PropagationError) Unwrap() error {
	return e.Err
}

// IsPropagationError checks if error is a partial propagation failure
func IsPropagationError(err error) bool {
	var pe *PropagationError
	return errors.As(err, &pe)
}
