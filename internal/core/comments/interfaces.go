package comments

import (
	"context"

	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/profiles"
)

// Repository defines data access for comment documents
type Repository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, commentID string) (*Comment, error)
	// ListByPost returns the post's comments oldest first
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)
	Delete(ctx context.Context, commentID string) error
}

// PostReader checks the post a comment is added to
type PostReader interface {
	GetByID(ctx context.Context, postID string) (*posts.Post, error)
}

// OwnerReader loads the author of a new comment
type OwnerReader interface {
	GetByID(ctx context.Context, userID string) (*profiles.Profile, error)
}

// Service defines the business logic for comments
type Service interface {
	Add(ctx context.Context, actorID, postID, text string) (*Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*Comment, error)
}
