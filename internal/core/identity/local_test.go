package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/db/memory"
)

func newTestProvider() *LocalProvider {
	return NewLocalProvider(memory.NewStore(), "test-secret", time.Hour)
}

func TestLocalProvider_SignUpSignInVerify(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()

	uid, err := p.SignUp(ctx, "Nina@Example.com ", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	creds, err := p.SignIn(ctx, "nina@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, uid, creds.UserID)

	got, err := p.VerifyToken(ctx, creds.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, got)
}

func TestLocalProvider_SignUpErrors(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()

	_, err := p.SignUp(ctx, "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = p.SignUp(ctx, "nina@example.com", "12345")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = p.SignUp(ctx, "nina@example.com", "password123")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "NINA@example.com", "other-password")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestLocalProvider_SignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()
	_, err := p.SignUp(ctx, "nina@example.com", "password123")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "nina@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = p.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLocalProvider_SignOutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()
	uid, err := p.SignUp(ctx, "nina@example.com", "password123")
	require.NoError(t, err)

	creds, err := p.SignIn(ctx, "nina@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, uid))

	_, err = p.VerifyToken(ctx, creds.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := p.SignIn(ctx, "nina@example.com", "password123")
	require.NoError(t, err)
	got, err := p.VerifyToken(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, got)
}

func TestLocalProvider_ChangePassword(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()
	uid, err := p.SignUp(ctx, "nina@example.com", "password123")
	require.NoError(t, err)
	before, err := p.SignIn(ctx, "nina@example.com", "password123")
	require.NoError(t, err)

	assert.ErrorIs(t, p.ChangePassword(ctx, uid, "short"), ErrWeakPassword)
	assert.ErrorIs(t, p.ChangePassword(ctx, "unknown", "new-password"), ErrAccountNotFound)

	require.NoError(t, p.ChangePassword(ctx, uid, "new-password"))

	_, err = p.SignIn(ctx, "nina@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	after, err := p.SignIn(ctx, "nina@example.com", "new-password")
	require.NoError(t, err)

	_, err = p.VerifyToken(ctx, before.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	got, err := p.VerifyToken(ctx, after.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, got)
}

func TestLocalProvider_VerifyTokenRejectsTampering(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()
	_, err := p.SignUp(ctx, "nina@example.com", "password123")
	require.NoError(t, err)
	creds, err := p.SignIn(ctx, "nina@example.com", "password123")
	require.NoError(t, err)

	other := NewLocalProvider(memory.NewStore(), "different-secret", time.Hour)
	_, err = other.VerifyToken(ctx, creds.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// none-alg tokens are refused
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: creds.UserID}})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = p.VerifyToken(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalProvider_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider()
	_, err := p.SignUp(ctx, "nina@example.com", "password123")
	require.NoError(t, err)
	creds, err := p.SignIn(ctx, "nina@example.com", "password123")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = p.VerifyToken(ctx, creds.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
