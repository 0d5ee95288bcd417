package stories

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"PicSphere/internal/core/media"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/session"
)

// OwnerReader loads the profile a story is attributed to
type OwnerReader interface {
	GetByID(ctx context.Context, userID string) (*profiles.Profile, error)
}

type storyService struct {
	repo   Repository
	owners OwnerReader
	media  media.Service
	now    func() time.Time
}

// NewStoryService creates a story service
func NewStoryService(repo Repository, owners OwnerReader, mediaService media.Service) Service {
	return &storyService{
		repo:   repo,
		owners: owners,
		media:  mediaService,
		now:    time.Now,
	}
}

// Upload stores the image under stories/{uuid}.png and adds it to the actor's story.
// An existing story document is appended to; otherwise one is created keyed by
// the actor's id, so concurrent first uploads land in the same document.
func (s *storyService) Upload(ctx context.Context, actorID string, image io.Reader) (*Story, error) {
	if actorID == "" {
		return nil, session.ErrNotAuthenticated
	}
	if image == nil {
		return nil, NewValidationError("image", "image is required")
	}

	owner, err := s.owners.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing story: %w", err)
	}

	url, err := s.media.UploadImage(ctx, media.FolderStories, uuid.NewString(), image)
	if err != nil {
		return nil, err
	}

	storyID := actorID
	if len(existing) > 0 {
		storyID = existing[0].StoryPostID
	}

	now := s.now().UnixMilli()
	snap := owner.Snapshot()
	seed := &Story{
		StoryPostID:       storyID,
		UserID:            actorID,
		Username:          snap.Username,
		ProfilePictureURL: snap.ProfilePictureURL,
		CreatedAt:         now,
	}

	story, err := s.repo.AppendURL(ctx, storyID, seed, url, now)
	if err != nil {
		if derr := s.media.Delete(ctx, url); derr != nil {
			log.Printf("[STORY] Failed to remove orphaned story image %s: %v", url, derr)
		}
		return nil, fmt.Errorf("failed to save story: %w", err)
	}

	log.Printf("[STORY] Added item %d to story %s", len(story.StoryPostURL), storyID)
	return story, nil
}

func (s *storyService) ListByUser(ctx context.Context, userID string) ([]*Story, error) {
	if userID == "" {
		return nil, NewValidationError("userId", "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}
