package profiles

import (
	"context"
	"io"
)

// Repository defines data access for user documents
type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, userID string) (*Profile, error)
	// FindByUsername returns profiles whose username equals username exactly
	FindByUsername(ctx context.Context, username string) ([]*Profile, error)
	// SearchByUsernamePrefix returns profiles whose username starts with prefix, in code point order
	SearchByUsernamePrefix(ctx context.Context, prefix string) ([]*Profile, error)
	Update(ctx context.Context, userID string, fields map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*Profile, error)
}

// Cache holds recently read profiles. It is a soft mirror: the store stays authoritative.
type Cache interface {
	Get(ctx context.Context, userID string) (*Profile, bool)
	Set(ctx context.Context, profile *Profile)
	Invalidate(ctx context.Context, userID string)
}

// SnapshotUpdater rewrites the owner fields copied onto one kind of content.
// Implementations continue past individual failures and return the number of
// failed documents together with the last error.
type SnapshotUpdater interface {
	UpdateOwnerSnapshot(ctx context.Context, userID string, fields map[string]interface{}) (failed int, err error)
}

// Service defines the business logic for accounts and profiles
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error

	GetProfile(ctx context.Context, userID string) (*Profile, error)
	SearchByUsernamePrefix(ctx context.Context, prefix string) ([]*Profile, error)

	UpdateUsername(ctx context.Context, userID, username string) (*Profile, error)
	UpdateBio(ctx context.Context, userID, bio string) (*Profile, error)
	UpdateProfilePicture(ctx context.Context, userID string, image io.Reader) (*Profile, error)
}

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the sign-in form
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the password change form
type ChangePasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token   string   `json:"token"`
	Profile *Profile `json:"-"`
}
