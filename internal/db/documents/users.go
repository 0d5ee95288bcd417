package documents

import (
	"context"
	"errors"

	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/profiles"
)

// UserRepository stores profiles in the users collection keyed by uid
type UserRepository struct {
	c *docstore.Collection[profiles.Profile]
}

var _ profiles.Repository = (*UserRepository)(nil)

// NewUserRepository creates a user repository over store
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{c: docstore.NewCollection[profiles.Profile](store, profiles.Collection)}
}

func (r *UserRepository) Create(ctx context.Context, profile *profiles.Profile) error {
	if profile.UID == "" {
		return profiles.NewValidationError("uid", "uid is required")
	}
	if profile.FollowerUserID == nil {
		profile.FollowerUserID = []string{}
	}
	if profile.FollowingUserID == nil {
		profile.FollowingUserID = []string{}
	}
	return r.c.Create(ctx, profile.UID, profile)
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*profiles.Profile, error) {
	profile, err := r.c.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, profiles.ErrProfileNotFound)
	}
	if profile.UID == "" {
		profile.UID = userID
	}
	return profile, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) ([]*profiles.Profile, error) {
	return r.c.QueryBy(ctx, profiles.FieldUsername, username)
}

// SearchByUsernamePrefix runs the range [prefix, prefix+sentinel] on username
func (r *UserRepository) SearchByUsernamePrefix(ctx context.Context, prefix string) ([]*profiles.Profile, error) {
	return r.c.QueryByRange(ctx, profiles.FieldUsername, prefix, prefix+docstore.PrefixSentinel)
}

func (r *UserRepository) Update(ctx context.Context, userID string, fields map[string]interface{}) error {
	return r.c.Update(ctx, userID, fields)
}

func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	return r.c.Delete(ctx, userID)
}

func (r *UserRepository) List(ctx context.Context) ([]*profiles.Profile, error) {
	return r.c.All(ctx)
}

// notFound maps the store's ErrNotFound to a domain sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return sentinel
	}
	return err
}
