package memory

import (
	"context"
	"sort"
	"sync"

	"PicSphere/internal/core/docstore"
)

type entry struct {
	doc     docstore.Document
	version int64
}

// Store is an in-process document store used for local development and tests.
// Documents are normalised to their JSON shape on write so values read back
// have the same types a remote store would return.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*entry
}

var (
	_ docstore.Store        = (*Store)(nil)
	_ docstore.Mutator      = (*Store)(nil)
	_ docstore.Versioned    = (*Store)(nil)
	_ docstore.MultiMutator = (*Store)(nil)
)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]*entry)}
}

func (s *Store) lookup(collection, id string) (*entry, bool) {
	c, ok := s.collections[collection]
	if !ok {
		return nil, false
	}
	e, ok := c[id]
	return e, ok
}

// put assumes s.mu is held for writing
func (s *Store) put(collection, id string, doc docstore.Document) error {
	normalized, err := docstore.Normalize(doc)
	if err != nil {
		return docstore.Wrap("set", collection, id, err)
	}
	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]*entry)
		s.collections[collection] = c
	}
	if e, ok := c[id]; ok {
		e.doc = normalized
		e.version++
		return nil
	}
	c[id] = &entry{doc: normalized, version: 1}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(collection, id)
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return e.doc.Clone(), nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(collection, id, doc)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := docstore.Document{}
	if e, ok := s.lookup(collection, id); ok {
		merged = e.doc.Clone()
	}
	for k, v := range fields {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return s.put(collection, id, merged)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[collection]; ok {
		delete(c, id)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(collection, func(docstore.Document) bool { return true }), nil
}

func (s *Store) QueryEqual(ctx context.Context, collection, field, value string) ([]docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(collection, func(doc docstore.Document) bool {
		v, ok := doc[field].(string)
		return ok && v == value
	}), nil
}

func (s *Store) QueryRange(ctx context.Context, collection, field, lo, hi string) ([]docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.filter(collection, func(doc docstore.Document) bool {
		v, ok := doc[field].(string)
		// Go compares strings bytewise, which for UTF-8 is code point order
		return ok && v >= lo && v <= hi
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Data.GetString(field) < out[j].Data.GetString(field)
	})
	return out, nil
}

// filter returns matching snapshots ordered by key. Assumes s.mu is held.
func (s *Store) filter(collection string, match func(docstore.Document) bool) []docstore.Snapshot {
	c := s.collections[collection]
	ids := make([]string, 0, len(c))
	for id, e := range c {
		if match(e.doc) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]docstore.Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, docstore.Snapshot{ID: id, Data: c[id].doc.Clone()})
	}
	return out
}

// Mutate runs fn under the store lock
func (s *Store) Mutate(ctx context.Context, collection, id string, fn docstore.MutateFunc) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current docstore.Document
	if e, ok := s.lookup(collection, id); ok {
		current = e.doc.Clone()
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.put(collection, id, next); err != nil {
		return nil, err
	}
	e, _ := s.lookup(collection, id)
	return e.doc.Clone(), nil
}

func (s *Store) GetVersioned(ctx context.Context, collection, id string) (docstore.Document, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(collection, id)
	if !ok {
		return nil, 0, docstore.ErrNotFound
	}
	return e.doc.Clone(), e.version, nil
}

func (s *Store) SetIfVersion(ctx context.Context, collection, id string, doc docstore.Document, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if e, ok := s.lookup(collection, id); ok {
		current = e.version
	}
	if current != version {
		return docstore.ErrConflict
	}
	return s.put(collection, id, doc)
}

// MutateMany runs fn over every key under the store lock; nothing is written if fn fails
func (s *Store) MutateMany(ctx context.Context, keys []docstore.Key, fn docstore.MultiMutateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[docstore.Key]docstore.Document, len(keys))
	for _, k := range keys {
		if e, ok := s.lookup(k.Collection, k.ID); ok {
			current[k] = e.doc.Clone()
		}
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	staged := make(map[docstore.Key]docstore.Document, len(next))
	for k, doc := range next {
		normalized, err := docstore.Normalize(doc)
		if err != nil {
			return docstore.Wrap("set", k.Collection, k.ID, err)
		}
		staged[k] = normalized
	}
	for k, doc := range staged {
		if err := s.put(k.Collection, k.ID, doc); err != nil {
			return err
		}
	}
	return nil
}
