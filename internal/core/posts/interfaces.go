package posts

import (
	"context"
	"io"
)

// Repository defines data access for post documents
type Repository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, postID string) (*Post, error)
	ListByUser(ctx context.Context, userID string) ([]*Post, error)
	Update(ctx context.Context, postID string, fields map[string]interface{}) error
	Delete(ctx context.Context, postID string) error
}

// Service defines the business logic for posts
type Service interface {
	// Upload stores one or more images as a new post owned by actorID
	Upload(ctx context.Context, actorID string, images []io.Reader) (*Post, error)
	// Delete removes the post, its media, and decrements the owner's post count
	Delete(ctx context.Context, actorID, postID string) error
	Get(ctx context.Context, postID string) (*Post, error)
	ListByUser(ctx context.Context, userID string) ([]*Post, error)
	// Like and Unlike adjust the post's like counter and return the new value
	Like(ctx context.Context, actorID, postID string) (int, error)
	Unlike(ctx context.Context, actorID, postID string) (int, error)
}

// Invalidator drops cached copies of a user's profile
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}
