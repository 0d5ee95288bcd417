package documents

import (
	"context"
	"errors"

	"PicSphere/internal/core/docstore"
)

// ownerFields are the profile fields copied onto content
var ownerFields = map[string]bool{
	"username":          true,
	"profilePictureURL": true,
}

// rewriteOwner copies the allowed owner fields onto every document of userID in c.
// It keeps going after a failed write and returns the failure count with the last error.
// Documents deleted after the query are skipped rather than recreated.
func rewriteOwner[T any](ctx context.Context, c *docstore.Collection[T], userID string, fields map[string]interface{}, idOf func(*T) string) (int, error) {
	update := docstore.Document{}
	for k, v := range fields {
		if ownerFields[k] {
			update[k] = v
		}
	}
	if len(update) == 0 || userID == "" {
		return 0, nil
	}

	items, err := c.QueryBy(ctx, "userId", userID)
	if err != nil {
		return 0, err
	}

	failed := 0
	var lastErr error
	for _, item := range items {
		id := idOf(item)
		_, err := c.Mutate(ctx, id, func(current docstore.Document) (docstore.Document, error) {
			if current == nil {
				return nil, docstore.ErrNotFound
			}
			for k, v := range update {
				current[k] = v
			}
			return current, nil
		})
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			failed++
			lastErr = docstore.Wrap("mutate", c.Name(), id, err)
		}
	}
	return failed, lastErr
}
