package documents

import (
	"context"
	"sort"

	"PicSphere/internal/core/comments"
	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/profiles"
)

// CommentRepository stores comments keyed by commentId
type CommentRepository struct {
	c *docstore.Collection[comments.Comment]
}

var (
	_ comments.Repository      = (*CommentRepository)(nil)
	_ profiles.SnapshotUpdater = (*CommentRepository)(nil)
)

// NewCommentRepository creates a comment repository over store
func NewCommentRepository(store docstore.Store) *CommentRepository {
	return &CommentRepository{c: docstore.NewCollection[comments.Comment](store, comments.Collection)}
}

func (r *CommentRepository) Create(ctx context.Context, comment *comments.Comment) error {
	return r.c.Create(ctx, comment.CommentID, comment)
}

func (r *CommentRepository) GetByID(ctx context.Context, commentID string) (*comments.Comment, error) {
	comment, err := r.c.Get(ctx, commentID)
	if err != nil {
		return nil, notFound(err, comments.ErrCommentNotFound)
	}
	return comment, nil
}

// ListByPost returns the comments on postID oldest first. Comments without
// createdAt keep the store's key order ahead of dated ones.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*comments.Comment, error) {
	items, err := r.c.QueryBy(ctx, comments.FieldPostID, postID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt < items[j].CreatedAt
	})
	return items, nil
}

func (r *CommentRepository) Delete(ctx context.Context, commentID string) error {
	return r.c.Delete(ctx, commentID)
}

func (r *CommentRepository) UpdateOwnerSnapshot(ctx context.Context, userID string, fields map[string]interface{}) (int, error) {
	return rewriteOwner(ctx, r.c, userID, fields, func(c *comments.Comment) string { return c.CommentID })
}
