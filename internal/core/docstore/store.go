package docstore

import (
	"context"
)

// PrefixSentinel is appended to a prefix to form the upper bound of a prefix
// range query. It sorts after every character a username can contain.
const PrefixSentinel = "\uf8ff"

// Document is a flat field map as stored in a collection.
// Values are JSON-shaped: strings, float64 numbers, bools, []interface{} and
// nested maps.
type Document map[string]interface{}

// Snapshot is a document together with its key.
type Snapshot struct {
	ID   string
	Data Document
}

// Store is the remote document store every repository talks to.
// Get returns ErrNotFound for a missing key. Any other failure is a
// *RemoteStoreError.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	// Update merges fields into the document, creating it if absent.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in the collection ordered by key.
	List(ctx context.Context, collection string) ([]Snapshot, error)
	// QueryEqual returns documents whose field equals value, ordered by key.
	QueryEqual(ctx context.Context, collection, field, value string) ([]Snapshot, error)
	// QueryRange returns documents whose field lies in [lo, hi], ordered by
	// field value (code point order) and then by key.
	QueryRange(ctx context.Context, collection, field, lo, hi string) ([]Snapshot, error)
}

// MutateFunc computes the next state of a document from its current state.
// current is nil when the document does not exist. Returning an error aborts
// the write and the error is passed through unchanged.
type MutateFunc func(current Document) (Document, error)

// Mutator is implemented by stores that can apply a read-modify-write to a
// single document atomically.
type Mutator interface {
	Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Document, error)
}

// Versioned is implemented by stores that expose a per-document version for
// optimistic concurrency. Version 0 means the document does not exist.
type Versioned interface {
	GetVersioned(ctx context.Context, collection, id string) (Document, int64, error)
	// SetIfVersion writes doc only if the stored version still equals
	// version, otherwise it returns ErrConflict and writes nothing.
	SetIfVersion(ctx context.Context, collection, id string, doc Document, version int64) error
}

// Key addresses one document.
type Key struct {
	Collection string
	ID         string
}

// MultiMutateFunc computes the next state of several documents at once.
// Missing documents are absent from current. Every key present in the
// returned map is written.
type MultiMutateFunc func(current map[Key]Document) (map[Key]Document, error)

// MultiMutator is implemented by stores that can read and write several
// documents in one atomic step.
type MultiMutator interface {
	MutateMany(ctx context.Context, keys []Key, fn MultiMutateFunc) error
}
