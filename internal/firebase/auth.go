package firebase

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"

	"PicSphere/internal/core/identity"
)

// AuthProvider implements identity.Provider with Firebase Authentication.
// Accounts are managed through the Admin SDK; password sign-in goes through
// the Identity Toolkit API with the project's web API key.
type AuthProvider struct {
	admin   *auth.Client
	toolkit *identitytoolkit.Service
}

var _ identity.Provider = (*AuthProvider)(nil)

// NewAuthProvider creates the provider
func NewAuthProvider(admin *auth.Client, toolkit *identitytoolkit.Service) *AuthProvider {
	return &AuthProvider{admin: admin, toolkit: toolkit}
}

func (p *AuthProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	if len(password) < identity.MinPasswordLength {
		return "", identity.ErrWeakPassword
	}
	user, err := p.admin.CreateUser(ctx, (&auth.UserToCreate{}).Email(email).Password(password))
	if err != nil {
		switch {
		case auth.IsEmailAlreadyExists(err):
			return "", identity.ErrEmailInUse
		case strings.Contains(err.Error(), "email"):
			return "", fmt.Errorf("%w: %v", identity.ErrInvalidEmail, err)
		}
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	return user.UID, nil
}

func (p *AuthProvider) SignIn(ctx context.Context, email, password string) (*identity.Credentials, error) {
	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		if isCredentialError(err) {
			return nil, identity.ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return &identity.Credentials{UserID: resp.LocalId, Token: resp.IdToken}, nil
}

// SignOut revokes the user's refresh tokens; VerifyToken then rejects ID tokens issued before now
func (p *AuthProvider) SignOut(ctx context.Context, userID string) error {
	if err := p.admin.RevokeRefreshTokens(ctx, userID); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.ErrAccountNotFound
		}
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func (p *AuthProvider) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < identity.MinPasswordLength {
		return identity.ErrWeakPassword
	}
	if _, err := p.admin.UpdateUser(ctx, userID, (&auth.UserToUpdate{}).Password(newPassword)); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.ErrAccountNotFound
		}
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

func (p *AuthProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	tok, err := p.admin.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	return tok.UID, nil
}

var credentialErrors = []string{
	"INVALID_PASSWORD",
	"EMAIL_NOT_FOUND",
	"INVALID_LOGIN_CREDENTIALS",
	"INVALID_EMAIL",
	"USER_DISABLED",
}

func isCredentialError(err error) bool {
	msg := err.Error()
	for _, code := range credentialErrors {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
