package socialgraph

import (
	"errors"
	"fmt"
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

// PartialEdgeError reports a follow or unfollow where the follower side was
// written but the following side was not. Reconcile repairs the mismatch.
type PartialEdgeError struct {
	Op       string // "follow" or "unfollow"
	ActorID  string
	TargetID string
	// Applied names the list that was written, e.g. "users/{target}.followerUserId"
	Applied string
	Err     error
}

func (e *PartialEdgeError) Error() string {
	return fmt.Sprintf("%s %s -> %s partially applied (%s written): %v", e.Op, e.ActorID, e.TargetID, e.Applied, e.Err)
}

func (e *PartialEdgeError) Unwrap() error {
	return e.Err
}

// IsPartialEdgeError checks if err is a *PartialEdgeError
func IsPartialEdgeError(err error) bool {
	var pe *PartialEdgeError
	return errors.As(err, &pe)
}
