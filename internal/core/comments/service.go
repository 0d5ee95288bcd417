package comments

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"PicSphere/internal/core/counters"
	"PicSphere/internal/core/events"
	"PicSphere/internal/core/notify"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/session"
)

type commentService struct {
	repo     Repository
	posts    PostReader
	owners   OwnerReader
	counters counters.Adjuster
	events   events.Publisher
	notifier notify.Notifier
	now      func() time.Time
}

// NewCommentService creates a comment service. publisher and notifier may be nil.
func NewCommentService(repo Repository, postReader PostReader, owners OwnerReader, adjuster counters.Adjuster, publisher events.Publisher, notifier notify.Notifier) Service {
	if publisher == nil {
		publisher = events.Discard
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &commentService{
		repo:     repo,
		posts:    postReader,
		owners:   owners,
		counters: adjuster,
		events:   publisher,
		notifier: notifier,
		now:      time.Now,
	}
}

// Add writes a comment on postID and increments the post's commentCount.
// If the counter update fails the comment is kept and returned with the error.
func (s *commentService) Add(ctx context.Context, actorID, postID, text string) (*Comment, error) {
	if actorID == "" {
		return nil, session.ErrNotAuthenticated
	}
	if postID == "" {
		return nil, NewValidationError("postId", "post id is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("commentText", "comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, NewValidationError("commentText", fmt.Sprintf("comment must be at most %d characters", MaxTextLength))
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := s.owners.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	snap := author.Snapshot()
	comment := &Comment{
		CommentID:         uuid.NewString(),
		PostID:            postID,
		UserID:            actorID,
		Username:          snap.Username,
		ProfilePictureURL: snap.ProfilePictureURL,
		CommentText:       text,
		CreatedAt:         s.now().UnixMilli(),
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if _, err := s.counters.Adjust(ctx, posts.Collection, postID, posts.FieldCommentCount, 1); err != nil {
		log.Printf("[COMMENT] Comment %s created but commentCount update on %s failed: %v", comment.CommentID, postID, err)
		return comment, fmt.Errorf("failed to update comment count: %w", err)
	}

	if post.UserID != actorID {
		ev := events.New(events.TypeComment, actorID, postID)
		ev.Text = text
		s.events.Publish(ctx, post.UserID, ev)
		notify.Detached(ctx, s.notifier, post.UserID, notify.Message{
			Title: "New comment",
			Body:  fmt.Sprintf("%s commented: %s", snap.Username, text),
			Data:  map[string]string{"postId": postID, "commentId": comment.CommentID},
		})
	}
	return comment, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID string) ([]*Comment, error) {
	if postID == "" {
		return nil, NewValidationError("postId", "post id is required")
	}
	return s.repo.ListByPost(ctx, postID)
}
