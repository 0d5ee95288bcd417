package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredential is returned when an email/password pair does not match
	ErrInvalidCredential = errors.New("invalid email or password")

	// ErrEmailInUse is returned when signing up with an email that already has an account
	ErrEmailInUse = errors.New("email already in use")

	// ErrWeakPassword is returned when a password does not meet the minimum requirements
	ErrWeakPassword = errors.New("password is too weak")

	// ErrInvalidEmail is returned when an email address is malformed
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidToken is returned when a bearer token is malformed, expired or revoked
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrAccountNotFound is returned when no account exists for a user id
	ErrAccountNotFound = errors.New("account not found")
)

// MinPasswordLength matches the auth provider's minimum
const MinPasswordLength = 6

// Credentials is the result of a successful sign-in
type Credentials struct {
	UserID string
	Token  string
}

// TokenVerifier resolves a bearer token to the user id it was issued for
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Provider is the authentication backend accounts are created and signed in against
type Provider interface {
	TokenVerifier

	// SignUp creates an account and returns its stable user id
	SignUp(ctx context.Context, email, password string) (string, error)

	// SignIn checks the password and issues a token
	SignIn(ctx context.Context, email, password string) (*Credentials, error)

	// SignOut revokes every token issued to userID so far
	SignOut(ctx context.Context, userID string) error

	// ChangePassword replaces the account password
	ChangePassword(ctx context.Context, userID, newPassword string) error
}
