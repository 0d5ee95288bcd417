package counters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"PicSphere/internal/core/docstore"
)

// Counter fields maintained on documents
const (
	FieldPostCount    = "postCount"
	FieldLikeCount    = "likeCount"
	FieldCommentCount = "commentCount"
)

// Adjuster is the counter operation services depend on
type Adjuster interface {
	Adjust(ctx context.Context, collection, id, field string, delta int) (int, error)
}

// Maintainer adjusts denormalized integer counters stored on documents.
//
// Adjust is not safe to retry blindly: when the store only offers a plain
// read-then-write, an unacknowledged write may already have been applied.
// The only retries happen inside the optimistic loop, on version conflicts.
type Maintainer struct {
	store  docstore.Store
	logger *slog.Logger
}

// NewMaintainer creates a counter maintainer over store
func NewMaintainer(store docstore.Store, logger *slog.Logger) *Maintainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintainer{store: store, logger: logger}
}

// Strategy reports how adjustments are applied against the configured store
func (m *Maintainer) Strategy() docstore.Strategy {
	return docstore.StrategyFor(m.store)
}

// Adjust adds delta to an integer field on collection/id and returns the new value.
// A missing field counts as 0. Decrements clamp at 0.
// On error the stored counter is left at its previous value.
func (m *Maintainer) Adjust(ctx context.Context, collection, id, field string, delta int) (int, error) {
	if id == "" {
		return 0, fmt.Errorf("%s: empty document id: %w", collection, docstore.ErrNotFound)
	}

	var next int
	_, err := docstore.Mutate(ctx, m.store, collection, id, func(current docstore.Document) (docstore.Document, error) {
		if current == nil {
			return nil, docstore.ErrNotFound
		}
		next = Apply(current.GetInt(field), delta)
		current[field] = next
		return current, nil
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return 0, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		m.logger.Warn("counter adjustment failed",
			slog.String("collection", collection),
			slog.String("id", id),
			slog.String("field", field),
			slog.Int("delta", delta),
			slog.String("error", err.Error()),
		)
		return 0, docstore.Wrap("adjust", collection, id, err)
	}
	return next, nil
}

// Increment is Adjust with delta +1
func (m *Maintainer) Increment(ctx context.Context, collection, id, field string) (int, error) {
	return m.Adjust(ctx, collection, id, field, 1)
}

// Decrement is Adjust with delta -1
func (m *Maintainer) Decrement(ctx context.Context, collection, id, field string) (int, error) {
	return m.Adjust(ctx, collection, id, field, -1)
}

// Apply computes the next counter value: decrements clamp at zero.
func Apply(current, delta int) int {
	next := current + delta
	if delta < 0 && next < 0 {
		return 0
	}
	return next
}
