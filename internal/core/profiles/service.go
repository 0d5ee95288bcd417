package profiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"PicSphere/internal/core/identity"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/session"
)

const maxUsernameLength = 30

type profileService struct {
	repo     Repository
	auth     identity.Provider
	media    media.Service
	cache    Cache
	updaters []SnapshotUpdater
	logger   *slog.Logger
}

// NewProfileService creates a profile service. cache may be nil.
// updaters receive username and avatar changes so denormalized copies stay in step.
func NewProfileService(repo Repository, auth identity.Provider, mediaService media.Service, cache Cache, updaters []SnapshotUpdater, logger *slog.Logger) Service {
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &profileService{
		repo:     repo,
		auth:     auth,
		media:    mediaService,
		cache:    cache,
		updaters: updaters,
		logger:   logger,
	}
}

// Register creates the auth account and the user document, then signs the user in
func (s *profileService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" {
		return nil, NewValidationError("email", "email is required")
	}
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validatePasswordPair(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	if err := s.ensureUsernameAvailable(ctx, req.Username, ""); err != nil {
		return nil, err
	}

	uid, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		UID:             uid,
		Username:        req.Username,
		Email:           strings.ToLower(req.Email),
		FollowerUserID:  []string{},
		FollowingUserID: []string{},
		PostCount:       0,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		log.Printf("[REGISTER] Account %s created but profile write failed: %v", uid, err)
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	creds, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("account created but sign-in failed: %w", err)
	}

	s.cache.Set(ctx, profile)
	log.Printf("[REGISTER] Created user %s (%s)", uid, profile.Username)
	return &AuthResult{Token: creds.Token, Profile: profile}, nil
}

// Login signs in and loads the profile into the cache
func (s *profileService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, NewValidationError("email", "email and password are required")
	}

	creds, err := s.auth.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: creds.Token, Profile: profile}, nil
}

// Logout revokes the user's tokens and drops the cached profile
func (s *profileService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return session.ErrNotAuthenticated
	}
	defer s.cache.Invalidate(ctx, userID)

	if err := s.auth.SignOut(ctx, userID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (s *profileService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if userID == "" {
		return session.ErrNotAuthenticated
	}
	if err := validatePasswordPair(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return s.auth.ChangePassword(ctx, userID, req.NewPassword)
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, NewValidationError("userId", "user id is required")
	}
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return cached, nil
	}
	return s.loadProfile(ctx, userID)
}

// SearchByUsernamePrefix matches case-sensitively. An empty prefix matches nothing.
func (s *profileService) SearchByUsernamePrefix(ctx context.Context, prefix string) ([]*Profile, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*Profile{}, nil
	}
	return s.repo.SearchByUsernamePrefix(ctx, prefix)
}

// UpdateUsername renames the user and rewrites the username copied onto their content.
// The profile is returned even when propagation partly fails; err is then a *PropagationError.
func (s *profileService) UpdateUsername(ctx context.Context, userID, username string) (*Profile, error) {
	if userID == "" {
		return nil, session.ErrNotAuthenticated
	}
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameAvailable(ctx, username, userID); err != nil {
		return nil, err
	}

	if err := s.update(ctx, userID, map[string]interface{}{FieldUsername: username}); err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile, s.propagate(ctx, userID, map[string]interface{}{"username": username})
}

func (s *profileService) UpdateBio(ctx context.Context, userID, bio string) (*Profile, error) {
	if userID == "" {
		return nil, session.ErrNotAuthenticated
	}
	if err := s.update(ctx, userID, map[string]interface{}{FieldBio: bio}); err != nil {
		return nil, err
	}
	return s.loadProfile(ctx, userID)
}

// UpdateProfilePicture stores the new avatar, points the profile at it and
// deletes the previous one. A failed delete of the old picture is logged, not returned.
func (s *profileService) UpdateProfilePicture(ctx context.Context, userID string, image io.Reader) (*Profile, error) {
	if userID == "" {
		return nil, session.ErrNotAuthenticated
	}

	current, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.media.UploadImage(ctx, media.FolderProfilePictures, uuid.NewString(), image)
	if err != nil {
		return nil, err
	}

	if err := s.update(ctx, userID, map[string]interface{}{FieldProfilePictureURL: url}); err != nil {
		return nil, err
	}

	if old := current.ProfilePictureURL; old != "" && old != url {
		if err := s.media.Delete(ctx, old); err != nil {
			s.logger.Warn("failed to delete old profile picture",
				slog.String("user_id", userID),
				slog.String("url", old),
				slog.String("error", err.Error()),
			)
		}
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile, s.propagate(ctx, userID, map[string]interface{}{"profilePictureURL": url})
}

func (s *profileService) loadProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, profile)
	return profile, nil
}

func (s *profileService) update(ctx context.Context, userID string, fields map[string]interface{}) error {
	// Update merges and would create a stub document, so check existence first
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}
	defer s.cache.Invalidate(ctx, userID)
	if err := s.repo.Update(ctx, userID, fields); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// propagate copies changed owner fields onto every piece of content.
// It keeps going after failures and reports the last one.
func (s *profileService) propagate(ctx context.Context, userID string, fields map[string]interface{}) error {
	var lastErr error
	failed := 0
	for _, u := range s.updaters {
		n, err := u.UpdateOwnerSnapshot(ctx, userID, fields)
		if err != nil {
			failed += n
			lastErr = err
			s.logger.Warn("owner snapshot propagation failed",
				slog.String("user_id", userID),
				slog.Int("failed", n),
				slog.String("error", err.Error()),
			)
		}
	}
	if lastErr != nil {
		return &PropagationError{UserID: userID, Failed: failed, Err: lastErr}
	}
	return nil
}

func (s *profileService) ensureUsernameAvailable(ctx context.Context, username, selfID string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	for _, p := range existing {
		if p.UID != selfID {
			return ErrUsernameTaken
		}
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return NewValidationError("username", "username is required")
	}
	if len([]rune(username)) > maxUsernameLength {
		return NewValidationError("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLength))
	}
	// prefix search bounds ranges with docstore.PrefixSentinel, so every
	// rune must sort below it
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r >= '\uf8ff' {
			return NewValidationError("username", "username contains invalid characters")
		}
	}
	return nil
}

func validatePasswordPair(password, confirm string) error {
	if password == "" {
		return NewValidationError("password", "password is required")
	}
	if password != confirm {
		return NewValidationError("confirmPassword", "passwords do not match")
	}
	if len(password) < identity.MinPasswordLength {
		return NewValidationError("password", fmt.Sprintf("password must be at least %d characters", identity.MinPasswordLength))
	}
	return nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*Profile, bool) { return nil, false }
func (noopCache) Set(context.Context, *Profile)                {}
func (noopCache) Invalidate(context.Context, string)           {}

// IsNotFound reports whether err means the profile does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound)
}
