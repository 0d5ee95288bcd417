package documents

import (
	"context"

	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/profiles"
)

// PostRepository stores posts keyed by postId
type PostRepository struct {
	c *docstore.Collection[posts.Post]
}

var (
	_ posts.Repository         = (*PostRepository)(nil)
	_ profiles.SnapshotUpdater = (*PostRepository)(nil)
)

// NewPostRepository creates a post repository over store
func NewPostRepository(store docstore.Store) *PostRepository {
	return &PostRepository{c: docstore.NewCollection[posts.Post](store, posts.Collection)}
}

func (r *PostRepository) Create(ctx context.Context, post *posts.Post) error {
	if post.PostURL == nil {
		post.PostURL = []string{}
	}
	return r.c.Create(ctx, post.PostID, post)
}

func (r *PostRepository) GetByID(ctx context.Context, postID string) (*posts.Post, error) {
	post, err := r.c.Get(ctx, postID)
	if err != nil {
		return nil, notFound(err, posts.ErrPostNotFound)
	}
	return post, nil
}

func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]*posts.Post, error) {
	return r.c.QueryBy(ctx, posts.FieldUserID, userID)
}

func (r *PostRepository) Update(ctx context.Context, postID string, fields map[string]interface{}) error {
	return r.c.Update(ctx, postID, fields)
}

func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	return r.c.Delete(ctx, postID)
}

func (r *PostRepository) UpdateOwnerSnapshot(ctx context.Context, userID string, fields map[string]interface{}) (int, error) {
	return rewriteOwner(ctx, r.c, userID, fields, func(p *posts.Post) string { return p.PostID })
}
