package comments_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/core/comments"
	"PicSphere/internal/core/counters"
	"PicSphere/internal/core/events"
	"PicSphere/internal/core/notify"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/session"
	"PicSphere/internal/db/documents"
	"PicSphere/internal/db/memory"
)

type recordingPublisher struct {
	recipients []string
	types      []events.Type
}

func (r *recordingPublisher) Publish(_ context.Context, recipientID string, ev events.Event) {
	r.recipients = append(r.recipients, recipientID)
	r.types = append(r.types, ev.Type)
}

type pushNotifier struct {
	sent chan string
}

func (p *pushNotifier) Send(_ context.Context, userID string, msg notify.Message) error {
	p.sent <- userID
	return nil
}

type fixture struct {
	svc    comments.Service
	posts  *documents.PostRepository
	pub    *recordingPublisher
	pusher *pushNotifier
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	users := documents.NewUserRepository(store)
	postRepo := documents.NewPostRepository(store)

	require.NoError(t, users.Create(ctx, &profiles.Profile{UID: "owner", Username: "nina"}))
	require.NoError(t, users.Create(ctx, &profiles.Profile{UID: "fan", Username: "omar", ProfilePictureURL: "http://media.test/p.png"}))
	require.NoError(t, postRepo.Create(ctx, &posts.Post{PostID: "p1", UserID: "owner", CommentCount: 4}))

	f := &fixture{
		posts:  postRepo,
		pub:    &recordingPublisher{},
		pusher: &pushNotifier{sent: make(chan string, 4)},
	}
	f.svc = comments.NewCommentService(
		documents.NewCommentRepository(store),
		postRepo,
		users,
		counters.NewMaintainer(store, nil),
		f.pub,
		f.pusher,
	)
	return f
}

func TestAdd_CreatesCommentAndIncrementsCount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Add(ctx, "fan", "p1", "  lovely shot  ")
	require.NoError(t, err)

	assert.NotEmpty(t, c.CommentID)
	assert.Equal(t, "lovely shot", c.CommentText)
	assert.Equal(t, "omar", c.Username)
	assert.Equal(t, "http://media.test/p.png", c.ProfilePictureURL)
	assert.NotZero(t, c.CreatedAt)

	post, err := f.posts.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, post.CommentCount)

	assert.Equal(t, []string{"owner"}, f.pub.recipients)
	assert.Equal(t, []events.Type{events.TypeComment}, f.pub.types)

	select {
	case to := <-f.pusher.sent:
		assert.Equal(t, "owner", to)
	case <-time.After(time.Second):
		t.Fatal("expected push notification")
	}
}

func TestAdd_OwnCommentNotifiesNobody(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Add(context.Background(), "owner", "p1", "thanks all")
	require.NoError(t, err)
	assert.Empty(t, f.pub.recipients)
}

func TestAdd_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "", "p1", "hi")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	_, err = f.svc.Add(ctx, "fan", "p1", "   ")
	assert.True(t, comments.IsValidationError(err))

	_, err = f.svc.Add(ctx, "fan", "", "hi")
	assert.True(t, comments.IsValidationError(err))

	_, err = f.svc.Add(ctx, "fan", "p1", strings.Repeat("a", comments.MaxTextLength+1))
	assert.True(t, comments.IsValidationError(err))

	_, err = f.svc.Add(ctx, "fan", "missing", "hi")
	assert.ErrorIs(t, err, posts.ErrPostNotFound)

	post, err := f.posts.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, post.CommentCount)
}

func TestListByPost_OldestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "fan", "p1", "one")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = f.svc.Add(ctx, "owner", "p1", "two")
	require.NoError(t, err)

	list, err := f.svc.ListByPost(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].CommentText)
	assert.Equal(t, "two", list[1].CommentText)

	_, err = f.svc.ListByPost(ctx, "")
	assert.True(t, comments.IsValidationError(err))
}
