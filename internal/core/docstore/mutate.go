package docstore

import (
	"context"
	"errors"
	"fmt"
)

// MaxConflictRetries bounds the optimistic loop used for Versioned stores.
const MaxConflictRetries = 8

// Strategy names how Mutate applied a read-modify-write.
type Strategy string

const (
	StrategyAtomic      Strategy = "atomic"
	StrategyOptimistic  Strategy = "optimistic"
	StrategyReadThenSet Strategy = "read-then-set"
)

// StrategyFor reports which strategy Mutate will use for store.
func StrategyFor(store Store) Strategy {
	switch store.(type) {
	case Mutator:
		return StrategyAtomic
	case Versioned:
		return StrategyOptimistic
	default:
		return StrategyReadThenSet
	}
}

// Mutate applies fn to one document using the strongest primitive the store offers:
//   - Mutator: the store's own atomic read-modify-write
//   - Versioned: read with version, conditional write, retried only on ErrConflict
//   - otherwise: a single read followed by a whole-document Set, never retried
//
// fn may be called more than once under the optimistic strategy and must be free of side effects.
func Mutate(ctx context.Context, store Store, collection, id string, fn MutateFunc) (Document, error) {
	switch s := store.(type) {
	case Mutator:
		doc, err := s.Mutate(ctx, collection, id, fn)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case Versioned:
		return mutateOptimistic(ctx, s, collection, id, fn)
	default:
		current, err := store.Get(ctx, collection, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if err := store.Set(ctx, collection, id, next); err != nil {
			return nil, err
		}
		return next, nil
	}
}

func mutateOptimistic(ctx context.Context, store Versioned, collection, id string, fn MutateFunc) (Document, error) {
	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, version, err := store.GetVersioned(ctx, collection, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		next, err := fn(current.Clone())
		if err != nil {
			return nil, err
		}

		err = store.SetIfVersion(ctx, collection, id, next, version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s/%s: gave up after %d attempts: %w", collection, id, MaxConflictRetries, ErrConflict)
}
