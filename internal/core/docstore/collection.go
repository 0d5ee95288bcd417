package docstore

import (
	"context"
)

// Collection is the shared repository scaffold: CRUD and queries over one
// collection, translating between documents and *T through T's json tags.
// Every call is a single round trip with no caching or retries.
type Collection[T any] struct {
	store Store
	name  string
}

// NewCollection binds a collection name to a store
func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the collection name
func (c *Collection[T]) Name() string {
	return c.name
}

// Store returns the underlying store
func (c *Collection[T]) Store() Store {
	return c.store
}

// Create writes the whole entity under id
func (c *Collection[T]) Create(ctx context.Context, id string, entity *T) error {
	doc, err := Encode(entity)
	if err != nil {
		return err
	}
	return Wrap("set", c.name, id, c.store.Set(ctx, c.name, id, doc))
}

// Get loads the entity stored under id
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, Wrap("get", c.name, id, err)
	}
	return c.decode(doc)
}

// QueryBy returns every entity whose field equals value
func (c *Collection[T]) QueryBy(ctx context.Context, field, value string) ([]*T, error) {
	snaps, err := c.store.QueryEqual(ctx, c.name, field, value)
	if err != nil {
		return nil, Wrap("query", c.name, "", err)
	}
	return c.decodeAll(snaps)
}

// QueryByRange returns every entity whose field lies in [lo, hi]
func (c *Collection[T]) QueryByRange(ctx context.Context, field, lo, hi string) ([]*T, error) {
	snaps, err := c.store.QueryRange(ctx, c.name, field, lo, hi)
	if err != nil {
		return nil, Wrap("query", c.name, "", err)
	}
	return c.decodeAll(snaps)
}

// All returns every entity in the collection
func (c *Collection[T]) All(ctx context.Context) ([]*T, error) {
	snaps, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, Wrap("list", c.name, "", err)
	}
	return c.decodeAll(snaps)
}

// Update merges the given fields into the stored document
func (c *Collection[T]) Update(ctx context.Context, id string, fields Document) error {
	return Wrap("update", c.name, id, c.store.Update(ctx, c.name, id, fields))
}

// Delete removes the document under id
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return Wrap("delete", c.name, id, c.store.Delete(ctx, c.name, id))
}

// Mutate applies fn to the stored document with the store's strongest primitive.
// Errors returned by fn come back unwrapped.
func (c *Collection[T]) Mutate(ctx context.Context, id string, fn MutateFunc) (*T, error) {
	doc, err := Mutate(ctx, c.store, c.name, id, fn)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

func (c *Collection[T]) decode(doc Document) (*T, error) {
	var entity T
	if err := Decode(doc, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (c *Collection[T]) decodeAll(snaps []Snapshot) ([]*T, error) {
	out := make([]*T, 0, len(snaps))
	for _, snap := range snaps {
		entity, err := c.decode(snap.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
