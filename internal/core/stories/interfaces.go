package stories

import (
	"context"
	"io"
)

// Repository defines data access for story documents
type Repository interface {
	GetByID(ctx context.Context, storyID string) (*Story, error)
	ListByUser(ctx context.Context, userID string) ([]*Story, error)
	// AppendURL atomically adds url to the story stored under storyID.
	// When no such document exists, seed is written with url as its only item.
	AppendURL(ctx context.Context, storyID string, seed *Story, url string, now int64) (*Story, error)
	Delete(ctx context.Context, storyID string) error
}

// Service defines the business logic for stories
type Service interface {
	Upload(ctx context.Context, actorID string, image io.Reader) (*Story, error)
	ListByUser(ctx context.Context, userID string) ([]*Story, error)
}
