package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/lib/pq"

	"PicSphere/internal/core/docstore"
)

// DocumentStore keeps every collection in the documents table as JSONB.
// Read-modify-write runs inside a transaction holding an advisory lock on the
// document key, so it is atomic even when the row does not exist yet.
type DocumentStore struct {
	db *sql.DB
}

var (
	_ docstore.Store        = (*DocumentStore)(nil)
	_ docstore.Mutator      = (*DocumentStore)(nil)
	_ docstore.Versioned    = (*DocumentStore)(nil)
	_ docstore.MultiMutator = (*DocumentStore)(nil)
)

// NewDocumentStore creates a PostgreSQL-backed document store
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	doc, _, err := s.getVersioned(ctx, s.db, collection, id, false)
	return doc, err
}

func (s *DocumentStore) GetVersioned(ctx context.Context, collection, id string) (docstore.Document, int64, error) {
	return s.getVersioned(ctx, s.db, collection, id, false)
}

func (s *DocumentStore) getVersioned(ctx context.Context, q queryer, collection, id string, forUpdate bool) (docstore.Document, int64, error) {
	query := `SELECT data, version FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var raw []byte
	var version int64
	err := q.QueryRowContext(ctx, query, collection, id).Scan(&raw, &version)
	if err == sql.ErrNoRows {
		return nil, 0, docstore.ErrNotFound
	}
	if err != nil {
		return nil, 0, docstore.Wrap("get", collection, id, err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, 0, docstore.Wrap("get", collection, id, err)
	}
	return doc, version, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	return s.upsert(ctx, s.db, collection, id, doc)
}

func (s *DocumentStore) upsert(ctx context.Context, q queryer, collection, id string, doc docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return docstore.Wrap("set", collection, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data,
		    version = documents.version + 1,
		    updated_at = NOW()`

	if _, err := q.ExecContext(ctx, query, collection, id, string(raw)); err != nil {
		return docstore.Wrap("set", collection, id, err)
	}
	return nil
}

// Update merges fields into the stored JSONB. nil values remove the key.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	set := make(docstore.Document, len(fields))
	remove := []string{}
	for k, v := range fields {
		if v == nil {
			remove = append(remove, k)
			continue
		}
		set[k] = v
	}

	raw, err := json.Marshal(set)
	if err != nil {
		return docstore.Wrap("update", collection, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb - $4::text[])
		ON CONFLICT (collection, id) DO UPDATE
		SET data = (documents.data || $3::jsonb) - $4::text[],
		    version = documents.version + 1,
		    updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, collection, id, string(raw), pq.Array(remove)); err != nil {
		return docstore.Wrap("update", collection, id, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return docstore.Wrap("delete", collection, id, err)
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 ORDER BY id COLLATE "C"`
	return s.query(ctx, collection, query, collection)
}

func (s *DocumentStore) QueryEqual(ctx context.Context, collection, field, value string) ([]docstore.Snapshot, error) {
	query := `
		SELECT id, data FROM documents
		WHERE collection = $1 AND data->>$2 = $3
		ORDER BY id COLLATE "C"`
	return s.query(ctx, collection, query, collection, field, value)
}

// QueryRange compares with the C collation so UTF-8 strings order by code point,
// which keeps the prefix sentinel above every suffix.
func (s *DocumentStore) QueryRange(ctx context.Context, collection, field, lo, hi string) ([]docstore.Snapshot, error) {
	query := `
		SELECT id, data FROM documents
		WHERE collection = $1
		  AND (data->>$2) COLLATE "C" >= $3
		  AND (data->>$2) COLLATE "C" <= $4
		ORDER BY (data->>$2) COLLATE "C", id COLLATE "C"`
	return s.query(ctx, collection, query, collection, field, lo, hi)
}

func (s *DocumentStore) query(ctx context.Context, collection, query string, args ...interface{}) ([]docstore.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, docstore.Wrap("query", collection, "", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Warning: failed to close rows: %v", closeErr)
		}
	}()

	var out []docstore.Snapshot
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, docstore.Wrap("query", collection, "", err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, docstore.Wrap("query", collection, id, err)
		}
		out = append(out, docstore.Snapshot{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, docstore.Wrap("query", collection, "", err)
	}
	return out, nil
}

// SetIfVersion inserts when version is 0, otherwise updates only a row still at version
func (s *DocumentStore) SetIfVersion(ctx context.Context, collection, id string, doc docstore.Document, version int64) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return docstore.Wrap("set", collection, id, err)
	}

	var result sql.Result
	if version == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
			ON CONFLICT (collection, id) DO NOTHING`,
			collection, id, string(raw))
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE documents
			SET data = $3, version = version + 1, updated_at = NOW()
			WHERE collection = $1 AND id = $2 AND version = $4`,
			collection, id, string(raw), version)
	}
	if err != nil {
		return docstore.Wrap("set", collection, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return docstore.Wrap("set", collection, id, err)
	}
	if affected == 0 {
		return docstore.ErrConflict
	}
	return nil
}

func (s *DocumentStore) Mutate(ctx context.Context, collection, id string, fn docstore.MutateFunc) (docstore.Document, error) {
	var next docstore.Document
	err := s.withTx(ctx, []docstore.Key{{Collection: collection, ID: id}}, func(tx *sql.Tx) error {
		current, _, err := s.getVersioned(ctx, tx, collection, id, true)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		next, err = fn(current)
		if err != nil {
			return err
		}
		return s.upsert(ctx, tx, collection, id, next)
	})
	if err != nil {
		return nil, err
	}
	return docstore.Normalize(next)
}

func (s *DocumentStore) MutateMany(ctx context.Context, keys []docstore.Key, fn docstore.MultiMutateFunc) error {
	return s.withTx(ctx, keys, func(tx *sql.Tx) error {
		current := make(map[docstore.Key]docstore.Document, len(keys))
		for _, k := range keys {
			doc, _, err := s.getVersioned(ctx, tx, k.Collection, k.ID, true)
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			current[k] = doc
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		for k, doc := range next {
			if err := s.upsert(ctx, tx, k.Collection, k.ID, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction after taking advisory locks on keys in a
// fixed order, so two multi-key mutations cannot deadlock.
func (s *DocumentStore) withTx(ctx context.Context, keys []docstore.Key, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return docstore.Wrap("begin", "", "", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			log.Printf("Warning: failed to rollback transaction: %v", rollbackErr)
		}
	}()

	lockKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		lockKeys = append(lockKeys, k.Collection+"/"+k.ID)
	}
	sort.Strings(lockKeys)
	for _, lk := range lockKeys {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lk); err != nil {
			return docstore.Wrap("lock", lk, "", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return docstore.Wrap("commit", "", "", err)
	}
	return nil
}

func decodeDocument(raw []byte) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}
