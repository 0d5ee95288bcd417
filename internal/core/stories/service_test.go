package stories_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/core/media"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/session"
	"PicSphere/internal/core/stories"
	"PicSphere/internal/db/documents"
	"PicSphere/internal/db/memory"
)

func pngImage(t *testing.T) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return &buf
}

func setup(t *testing.T) (stories.Service, *documents.StoryRepository, *memory.BlobStore) {
	t.Helper()
	store := memory.NewStore()
	blobs := memory.NewBlobStore("http://media.test")
	users := documents.NewUserRepository(store)
	repo := documents.NewStoryRepository(store)
	require.NoError(t, users.Create(context.Background(), &profiles.Profile{UID: "u1", Username: "nina"}))

	svc := stories.NewStoryService(repo, users, media.NewService(blobs, media.NewProcessor(0, 0), 0))
	return svc, repo, blobs
}

func TestUpload_FirstStoryIsKeyedByOwner(t *testing.T) {
	svc, _, blobs := setup(t)

	story, err := svc.Upload(context.Background(), "u1", pngImage(t))
	require.NoError(t, err)

	assert.Equal(t, "u1", story.StoryPostID)
	assert.Equal(t, "u1", story.UserID)
	assert.Equal(t, "nina", story.Username)
	require.Len(t, story.StoryPostURL, 1)
	assert.Contains(t, story.StoryPostURL[0], "http://media.test/stories/")

	path := story.StoryPostURL[0][len("http://media.test/"):]
	assert.True(t, blobs.Has(path))
}

func TestUpload_AppendsToExistingStory(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", pngImage(t))
	require.NoError(t, err)
	story, err := svc.Upload(ctx, "u1", pngImage(t))
	require.NoError(t, err)

	assert.Len(t, story.StoryPostURL, 2)
	assert.NotEqual(t, story.StoryPostURL[0], story.StoryPostURL[1])

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpload_AppendsToLegacyStoryID(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	seed := &stories.Story{StoryPostID: "legacy-id", UserID: "u1", Username: "nina"}
	_, err := repo.AppendURL(ctx, "legacy-id", seed, "http://media.test/stories/old.png", 1)
	require.NoError(t, err)

	story, err := svc.Upload(ctx, "u1", pngImage(t))
	require.NoError(t, err)
	assert.Equal(t, "legacy-id", story.StoryPostID)
	assert.Len(t, story.StoryPostURL, 2)

	_, err = repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, stories.ErrStoryNotFound)
}

func TestUpload_ConcurrentFirstUploadsShareOneDocument(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		img := pngImage(t)
		go func() {
			defer wg.Done()
			_, err := svc.Upload(ctx, "u1", img)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].StoryPostURL, 5)
}

func TestUpload_Validation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "", pngImage(t))
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	_, err = svc.Upload(ctx, "u1", nil)
	assert.True(t, stories.IsValidationError(err))

	_, err = svc.Upload(ctx, "ghost", pngImage(t))
	assert.ErrorIs(t, err, profiles.ErrProfileNotFound)

	_, err = svc.ListByUser(ctx, "")
	assert.True(t, stories.IsValidationError(err))
}

func TestLastActivity(t *testing.T) {
	assert.Equal(t, int64(5), (&stories.Story{CreatedAt: 2, UpdatedAt: 5}).LastActivity())
	assert.Equal(t, int64(2), (&stories.Story{CreatedAt: 2}).LastActivity())
}
