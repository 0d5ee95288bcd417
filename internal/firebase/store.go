package firebase

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/db"

	"PicSphere/internal/core/docstore"
)

// Store keeps documents in the Realtime Database at /{collection}/{id}.
// Queried fields need an ".indexOn" rule, e.g. users/username, posts/userId,
// stories/userId, comments/userId and comments/postId.
type Store struct {
	client *db.Client
}

var (
	_ docstore.Store   = (*Store)(nil)
	_ docstore.Mutator = (*Store)(nil)
)

// NewStore wraps a Realtime Database client
func NewStore(client *db.Client) *Store {
	return &Store{client: client}
}

func (s *Store) ref(collection, id string) *db.Ref {
	if id == "" {
		return s.client.NewRef(collection)
	}
	return s.client.NewRef(collection).Child(id)
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var doc docstore.Document
	if err := s.ref(collection, id).Get(ctx, &doc); err != nil {
		return nil, docstore.Wrap("get", collection, id, err)
	}
	if doc == nil {
		return nil, docstore.ErrNotFound
	}
	return doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	return docstore.Wrap("set", collection, id, s.ref(collection, id).Set(ctx, doc))
}

// Update merges fields; a nil value removes the field
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	if len(fields) == 0 {
		return nil
	}
	return docstore.Wrap("update", collection, id, s.ref(collection, id).Update(ctx, fields))
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return docstore.Wrap("delete", collection, id, s.ref(collection, id).Delete(ctx))
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	nodes, err := s.ref(collection, "").OrderByKey().GetOrdered(ctx)
	if err != nil {
		return nil, docstore.Wrap("list", collection, "", err)
	}
	return snapshots(collection, nodes)
}

func (s *Store) QueryEqual(ctx context.Context, collection, field, value string) ([]docstore.Snapshot, error) {
	nodes, err := s.ref(collection, "").OrderByChild(field).EqualTo(value).GetOrdered(ctx)
	if err != nil {
		return nil, docstore.Wrap("query", collection, "", err)
	}
	return snapshots(collection, nodes)
}

// QueryRange relies on the database's string ordering, which compares code points
func (s *Store) QueryRange(ctx context.Context, collection, field, lo, hi string) ([]docstore.Snapshot, error) {
	nodes, err := s.ref(collection, "").OrderByChild(field).StartAt(lo).EndAt(hi).GetOrdered(ctx)
	if err != nil {
		return nil, docstore.Wrap("query", collection, "", err)
	}
	return snapshots(collection, nodes)
}

// Mutate runs fn inside a database transaction. The SDK re-runs fn when the
// node changed concurrently; errors from fn abort the transaction unchanged.
func (s *Store) Mutate(ctx context.Context, collection, id string, fn docstore.MutateFunc) (docstore.Document, error) {
	var result docstore.Document
	var fnErr error

	err := s.ref(collection, id).Transaction(ctx, func(node db.TransactionNode) (interface{}, error) {
		var current docstore.Document
		if err := node.Unmarshal(&current); err != nil {
			return nil, err
		}
		next, err := fn(current)
		if err != nil {
			fnErr = err
			return nil, err
		}
		normalized, err := docstore.Normalize(next)
		if err != nil {
			return nil, err
		}
		result = normalized
		return normalized, nil
	})
	if err != nil {
		if fnErr != nil && errors.Is(err, fnErr) {
			return nil, fnErr
		}
		return nil, docstore.Wrap("transaction", collection, id, err)
	}
	return result, nil
}

func snapshots(collection string, nodes []db.QueryNode) ([]docstore.Snapshot, error) {
	out := make([]docstore.Snapshot, 0, len(nodes))
	for _, node := range nodes {
		var doc docstore.Document
		if err := node.Unmarshal(&doc); err != nil {
			return nil, docstore.Wrap("decode", collection, node.Key(), err)
		}
		if doc == nil {
			continue
		}
		out = append(out, docstore.Snapshot{ID: node.Key(), Data: doc})
	}
	return out, nil
}
