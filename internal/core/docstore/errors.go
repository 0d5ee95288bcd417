package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned by SetIfVersion when the document changed since it was read.
	// The write is known not to have been applied.
	ErrConflict = errors.New("document version conflict")
)

// RemoteStoreError wraps a failure reported by the underlying store
type RemoteStoreError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *RemoteStoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("remote store %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("remote store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

// Wrap turns a store failure into a *RemoteStoreError.
// nil, ErrNotFound, ErrConflict and errors that are already RemoteStoreErrors pass through unchanged.
func Wrap(op, collection, id string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	var rse *RemoteStoreError
	if errors.As(err, &rse) {
		return err
	}
	return &RemoteStoreError{Op: op, Collection: collection, ID: id, Err: err}
}

// IsRemoteStoreError reports whether err came from the store itself
func IsRemoteStoreError(err error) bool {
	var rse *RemoteStoreError
	return errors.As(err, &rse)
}
