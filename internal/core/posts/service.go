package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"PicSphere/internal/core/counters"
	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/events"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/session"
)

// OwnerReader loads the profile a new post is attributed to
type OwnerReader interface {
	GetByID(ctx context.Context, userID string) (*profiles.Profile, error)
}

type postService struct {
	repo     Repository
	owners   OwnerReader
	media    media.Service
	counters counters.Adjuster
	events   events.Publisher
	cache    Invalidator
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the post service
type Option func(*postService)

// WithCache sets the profile cache invalidated when an owner's postCount changes
func WithCache(c Invalidator) Option {
	return func(s *postService) { s.cache = c }
}

// NewPostService creates a post service. publisher may be nil.
func NewPostService(repo Repository, owners OwnerReader, mediaService media.Service, adjuster counters.Adjuster, publisher events.Publisher, logger *slog.Logger, opts ...Option) Service {
	if publisher == nil {
		publisher = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &postService{
		repo:     repo,
		owners:   owners,
		media:    mediaService,
		counters: adjuster,
		events:   publisher,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload creates a post from one or more images.
//
// Flow:
//  1. Store every image as PNG under posts/{postId}.png, posts/{postId}_1.png, ...
//  2. Write the post document with the owner snapshot and zeroed counters
//  3. Increment the owner's postCount
//
// If the counter update fails the post is kept and returned together with the error.
func (s *postService) Upload(ctx context.Context, actorID string, images []io.Reader) (*Post, error) {
	if actorID == "" {
		return nil, session.ErrNotAuthenticated
	}
	if len(images) == 0 {
		return nil, NewValidationError("image", "at least one image is required")
	}

	owner, err := s.owners.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	postID := uuid.NewString()
	urls := make([]string, 0, len(images))
	for i, img := range images {
		url, err := s.media.UploadImage(ctx, media.FolderPosts, imageName(postID, i), img)
		if err != nil {
			s.discardMedia(ctx, urls)
			return nil, err
		}
		urls = append(urls, url)
	}

	snap := owner.Snapshot()
	post := &Post{
		PostID:            postID,
		UserID:            actorID,
		Username:          snap.Username,
		ProfilePictureURL: snap.ProfilePictureURL,
		PostURL:           urls,
		CommentCount:      0,
		LikeCount:         0,
		CreatedAt:         s.now().UnixMilli(),
	}
	if err := s.repo.Create(ctx, post); err != nil {
		s.discardMedia(ctx, urls)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if _, err := s.counters.Adjust(ctx, profiles.Collection, actorID, profiles.FieldPostCount, 1); err != nil {
		log.Printf("[POST] Post %s created but postCount update for %s failed: %v", postID, actorID, err)
		return post, fmt.Errorf("failed to update post count: %w", err)
	}
	s.invalidate(ctx, actorID)

	log.Printf("[POST] Created post %s for %s with %d image(s)", postID, actorID, len(urls))
	return post, nil
}

// Delete removes a post owned by actorID.
//
// Media is deleted first; objects that are already gone are skipped, any other
// failure aborts before the document is touched. The owner's postCount is
// decremented last.
func (s *postService) Delete(ctx context.Context, actorID, postID string) error {
	if actorID == "" {
		return session.ErrNotAuthenticated
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		log.Printf("[SECURITY] User %s attempted to delete post %s owned by %s", actorID, postID, post.UserID)
		return ErrNotAuthorized
	}

	for _, url := range post.PostURL {
		if err := s.media.Delete(ctx, url); err != nil {
			if errors.Is(err, media.ErrBlobNotFound) {
				s.logger.Info("post media already removed",
					slog.String("post_id", postID),
					slog.String("url", url),
				)
				continue
			}
			return fmt.Errorf("failed to delete post media: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if _, err := s.counters.Adjust(ctx, profiles.Collection, post.UserID, profiles.FieldPostCount, -1); err != nil {
		return fmt.Errorf("post deleted but post count update failed: %w", err)
	}
	s.invalidate(ctx, post.UserID)
	return nil
}

func (s *postService) Get(ctx context.Context, postID string) (*Post, error) {
	if postID == "" {
		return nil, NewValidationError("postId", "post id is required")
	}
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) ListByUser(ctx context.Context, userID string) ([]*Post, error) {
	if userID == "" {
		return nil, NewValidationError("userId", "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Like increments likeCount. There is no per-user like record, so repeated likes all count.
func (s *postService) Like(ctx context.Context, actorID, postID string) (int, error) {
	return s.adjustLikes(ctx, actorID, postID, 1)
}

// Unlike decrements likeCount, stopping at zero
func (s *postService) Unlike(ctx context.Context, actorID, postID string) (int, error) {
	return s.adjustLikes(ctx, actorID, postID, -1)
}

func (s *postService) adjustLikes(ctx context.Context, actorID, postID string, delta int) (int, error) {
	if actorID == "" {
		return 0, session.ErrNotAuthenticated
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return 0, err
	}

	count, err := s.counters.Adjust(ctx, Collection, postID, FieldLikeCount, delta)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, fmt.Errorf("failed to update like count: %w", err)
	}

	if delta > 0 && post.UserID != actorID {
		s.events.Publish(ctx, post.UserID, events.New(events.TypeLike, actorID, postID))
	}
	return count, nil
}

func (s *postService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

func (s *postService) discardMedia(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.media.Delete(ctx, url); err != nil && !errors.Is(err, media.ErrBlobNotFound) {
			s.logger.Warn("failed to remove orphaned post media",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
		}
	}
}

// imageName is the object name of the i-th image of a post
func imageName(postID string, i int) string {
	if i == 0 {
		return postID
	}
	return fmt.Sprintf("%s_%d", postID, i)
}
