package profiles_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/cache"
	"PicSphere/internal/core/counters"
	"PicSphere/internal/core/identity"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/session"
	"PicSphere/internal/db/documents"
	"PicSphere/internal/db/memory"
)

// ================================================================================
// Fixtures
// ================================================================================

type fixture struct {
	store *memory.Store
	blobs *memory.BlobStore
	users *documents.UserRepository
	posts *documents.PostRepository
	auth  *identity.LocalProvider
	cache *cache.ProfileLRU
	svc   profiles.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store: store,
		blobs: memory.NewBlobStore("http://media.test"),
		users: documents.NewUserRepository(store),
		posts: documents.NewPostRepository(store),
		auth:  identity.NewLocalProvider(store, "test-secret", time.Hour),
		cache: cache.NewProfileLRU(16, time.Minute),
	}
	mediaSvc := media.NewService(f.blobs, media.NewProcessor(0, 0), 0)
	updaters := []profiles.SnapshotUpdater{
		f.posts,
		documents.NewStoryRepository(store),
		documents.NewCommentRepository(store),
	}
	f.svc = profiles.NewProfileService(f.users, f.auth, mediaSvc, f.cache, updaters, nil)
	return f
}

func (f *fixture) register(t *testing.T, email, username string) *profiles.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), profiles.RegisterRequest{
		Email:           email,
		Username:        username,
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	return res
}

func pngImage(t *testing.T) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return &buf
}

// ================================================================================
// Register / Login / Logout
// ================================================================================

func TestRegister_CreatesProfileAndSignsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "Nina@Example.com", "nina")
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "nina", res.Profile.Username)
	assert.Equal(t, "nina@example.com", res.Profile.Email)
	assert.Empty(t, res.Profile.FollowerUserID)
	assert.Empty(t, res.Profile.FollowingUserID)
	assert.Equal(t, 0, res.Profile.PostCount)

	uid, err := f.auth.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Profile.UID, uid)

	stored, err := f.users.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "nina", stored.Username)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  profiles.RegisterRequest
	}{
		{"missing email", profiles.RegisterRequest{Username: "a", Password: "password1", ConfirmPassword: "password1"}},
		{"missing username", profiles.RegisterRequest{Email: "a@b.com", Password: "password1", ConfirmPassword: "password1"}},
		{"username with space", profiles.RegisterRequest{Email: "a@b.com", Username: "a b", Password: "password1", ConfirmPassword: "password1"}},
		{"username with emoji", profiles.RegisterRequest{Email: "a@b.com", Username: "ni\U0001F600", Password: "password1", ConfirmPassword: "password1"}},
		{"username with fullwidth letter", profiles.RegisterRequest{Email: "a@b.com", Username: "ni\uff21", Password: "password1", ConfirmPassword: "password1"}},
		{"username with search sentinel", profiles.RegisterRequest{Email: "a@b.com", Username: "ni\uf8ff", Password: "password1", ConfirmPassword: "password1"}},
		{"username too long", profiles.RegisterRequest{Email: "a@b.com", Username: strings.Repeat("x", 31), Password: "password1", ConfirmPassword: "password1"}},
		{"password mismatch", profiles.RegisterRequest{Email: "a@b.com", Username: "a", Password: "password1", ConfirmPassword: "password2"}},
		{"password too short", profiles.RegisterRequest{Email: "a@b.com", Username: "a", Password: "12345", ConfirmPassword: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.req)
			assert.True(t, profiles.IsValidationError(err), "got %v", err)
		})
	}
}

func TestRegister_DuplicateUsernameAndEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "nina@example.com", "nina")

	_, err := f.svc.Register(ctx, profiles.RegisterRequest{
		Email: "other@example.com", Username: "nina", Password: "password123", ConfirmPassword: "password123",
	})
	assert.ErrorIs(t, err, profiles.ErrUsernameTaken)

	_, err = f.svc.Register(ctx, profiles.RegisterRequest{
		Email: "nina@example.com", Username: "nina2", Password: "password123", ConfirmPassword: "password123",
	})
	assert.ErrorIs(t, err, identity.ErrEmailInUse)
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")

	_, err := f.svc.Login(ctx, profiles.LoginRequest{Email: "nina@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)

	res, err := f.svc.Login(ctx, profiles.LoginRequest{Email: "nina@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.Profile.UID, res.Profile.UID)

	require.NoError(t, f.svc.Logout(ctx, res.Profile.UID))
	_, err = f.auth.VerifyToken(ctx, res.Token)
	assert.Error(t, err)

	assert.ErrorIs(t, f.svc.Logout(ctx, ""), session.ErrNotAuthenticated)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")

	err := f.svc.ChangePassword(ctx, reg.Profile.UID, profiles.ChangePasswordRequest{NewPassword: "newpass1", ConfirmPassword: "other"})
	assert.True(t, profiles.IsValidationError(err))

	require.NoError(t, f.svc.ChangePassword(ctx, reg.Profile.UID, profiles.ChangePasswordRequest{NewPassword: "newpass1", ConfirmPassword: "newpass1"}))
	_, err = f.svc.Login(ctx, profiles.LoginRequest{Email: "nina@example.com", Password: "newpass1"})
	require.NoError(t, err)
}

// ================================================================================
// Reads
// ================================================================================

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")

	p, err := f.svc.GetProfile(ctx, reg.Profile.UID)
	require.NoError(t, err)
	assert.Equal(t, "nina", p.Username)

	_, err = f.svc.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, profiles.ErrProfileNotFound)
	assert.True(t, profiles.IsNotFound(err))

	_, err = f.svc.GetProfile(ctx, "")
	assert.True(t, profiles.IsValidationError(err))
}

func TestGetProfile_SeesPostCountAfterUploadAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")

	p, err := f.svc.GetProfile(ctx, reg.Profile.UID)
	require.NoError(t, err)
	require.Equal(t, 0, p.PostCount)

	mediaSvc := media.NewService(f.blobs, media.NewProcessor(0, 0), 0)
	postSvc := posts.NewPostService(f.posts, f.users, mediaSvc, counters.NewMaintainer(f.store, nil), nil, nil,
		posts.WithCache(f.cache))

	post, err := postSvc.Upload(ctx, reg.Profile.UID, []io.Reader{pngImage(t)})
	require.NoError(t, err)

	p, err = f.svc.GetProfile(ctx, reg.Profile.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.PostCount)

	require.NoError(t, postSvc.Delete(ctx, reg.Profile.UID, post.PostID))

	p, err = f.svc.GetProfile(ctx, reg.Profile.UID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PostCount)
}

func TestSearchByUsernamePrefix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@example.com", "nikhil")
	reg := f.register(t, "b@example.com", "nina")
	f.register(t, "c@example.com", "omar")
	f.register(t, "d@example.com", "Nino")
	f.register(t, "e@example.com", "ni\u00f1o")
	f.register(t, "f@example.com", "ni\u4e2d")

	got, err := f.svc.SearchByUsernamePrefix(ctx, "ni")
	require.NoError(t, err)
	var names []string
	for _, p := range got {
		names = append(names, p.Username)
	}
	assert.Equal(t, []string{"nikhil", "nina", "ni\u00f1o", "ni\u4e2d"}, names)

	_, err = f.svc.UpdateUsername(ctx, reg.Profile.UID, "ni\U0001F600")
	assert.True(t, profiles.IsValidationError(err), "got %v", err)

	got, err = f.svc.SearchByUsernamePrefix(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ================================================================================
// Edits and propagation
// ================================================================================

func TestUpdateUsername_PropagatesToPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")
	uid := reg.Profile.UID

	require.NoError(t, f.posts.Create(ctx, &posts.Post{PostID: "p1", UserID: uid, Username: "nina", PostURL: []string{"x"}}))
	require.NoError(t, f.posts.Create(ctx, &posts.Post{PostID: "p2", UserID: "other", Username: "omar", PostURL: []string{"y"}}))

	// prime the cache with the old name
	_, err := f.svc.GetProfile(ctx, uid)
	require.NoError(t, err)

	p, err := f.svc.UpdateUsername(ctx, uid, " nina_k ")
	require.NoError(t, err)
	assert.Equal(t, "nina_k", p.Username)

	cached, err := f.svc.GetProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "nina_k", cached.Username)

	p1, err := f.posts.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "nina_k", p1.Username)
	p2, err := f.posts.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "omar", p2.Username)
}

func TestUpdateUsername_Taken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")
	f.register(t, "omar@example.com", "omar")

	_, err := f.svc.UpdateUsername(ctx, reg.Profile.UID, "omar")
	assert.ErrorIs(t, err, profiles.ErrUsernameTaken)

	// keeping your own name is not a conflict
	_, err = f.svc.UpdateUsername(ctx, reg.Profile.UID, "nina")
	require.NoError(t, err)
}

func TestUpdateBio_MissingUserDoesNotCreateStub(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateBio(ctx, "ghost", "hello")
	assert.ErrorIs(t, err, profiles.ErrProfileNotFound)

	_, err = f.users.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, profiles.ErrProfileNotFound)
}

func TestUpdateProfilePicture_ReplacesOldImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "nina@example.com", "nina")
	uid := reg.Profile.UID
	require.NoError(t, f.posts.Create(ctx, &posts.Post{PostID: "p1", UserID: uid, Username: "nina", PostURL: []string{"x"}}))

	first, err := f.svc.UpdateProfilePicture(ctx, uid, pngImage(t))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first.ProfilePictureURL, "http://media.test/"+media.FolderProfilePictures+"/"))

	second, err := f.svc.UpdateProfilePicture(ctx, uid, pngImage(t))
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfilePictureURL, second.ProfilePictureURL)

	oldPath := strings.TrimPrefix(first.ProfilePictureURL, "http://media.test/")
	newPath := strings.TrimPrefix(second.ProfilePictureURL, "http://media.test/")
	assert.False(t, f.blobs.Has(oldPath))
	assert.True(t, f.blobs.Has(newPath))

	p1, err := f.posts.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, second.ProfilePictureURL, p1.ProfilePictureURL)
}

func TestUpdates_RequireActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateUsername(ctx, "", "x")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = f.svc.UpdateBio(ctx, "", "x")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = f.svc.UpdateProfilePicture(ctx, "", pngImage(t))
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}
