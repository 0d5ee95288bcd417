package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"PicSphere/internal/core/docstore"
)

// CredentialsCollection holds one document per account, keyed by a
// deterministic id derived from the normalised email
const CredentialsCollection = "credentials"

const defaultTokenTTL = 24 * time.Hour

var credentialNamespace = uuid.MustParse("0f8f6a52-8f0c-4c5e-9d8e-5b0f3c6b2a11")

// Claims are the JWT claims issued by LocalProvider.
// Epoch is bumped on sign-out, which invalidates every earlier token.
type Claims struct {
	CredentialID string `json:"cid"`
	Epoch        int    `json:"epoch"`
	jwt.RegisteredClaims
}

type credential struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Epoch        int    `json:"epoch"`
	CreatedAt    int64  `json:"createdAt"`
}

// LocalProvider authenticates against bcrypt hashes kept in the document
// store and issues HS256 tokens.
type LocalProvider struct {
	credentials *docstore.Collection[credential]
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider storing credentials in store
func NewLocalProvider(store docstore.Store, secret string, ttl time.Duration) *LocalProvider {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &LocalProvider{
		credentials: docstore.NewCollection[credential](store, CredentialsCollection),
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
	}
}

func credentialID(email string) string {
	return uuid.NewSHA1(credentialNamespace, []byte(email)).String()
}

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return "", err
	}
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	uid := uuid.NewString()
	_, err = p.credentials.Mutate(ctx, credentialID(email), func(current docstore.Document) (docstore.Document, error) {
		if current != nil {
			return nil, ErrEmailInUse
		}
		return docstore.Encode(&credential{
			UID:          uid,
			Email:        email,
			PasswordHash: string(hash),
			CreatedAt:    p.now().UnixMilli(),
		})
	})
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	cid := credentialID(email)
	cred, err := p.credentials.Get(ctx, cid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := p.signToken(cid, cred)
	if err != nil {
		return nil, err
	}
	return &Credentials{UserID: cred.UID, Token: token}, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, userID string) error {
	return p.mutateByUID(ctx, userID, func(doc docstore.Document) error {
		doc["epoch"] = doc.GetInt("epoch") + 1
		return nil
	})
}

func (p *LocalProvider) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	// bumping the epoch revokes every token issued under the old password
	return p.mutateByUID(ctx, userID, func(doc docstore.Document) error {
		doc["passwordHash"] = string(hash)
		doc["epoch"] = doc.GetInt("epoch") + 1
		return nil
	})
}

func (p *LocalProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := p.parseToken(token)
	if err != nil {
		return "", ErrInvalidToken
	}

	cred, err := p.credentials.Get(ctx, claims.CredentialID)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if cred.UID != claims.Subject || cred.Epoch != claims.Epoch {
		return "", ErrInvalidToken
	}
	return cred.UID, nil
}

func (p *LocalProvider) mutateByUID(ctx context.Context, userID string, apply func(docstore.Document) error) error {
	if userID == "" {
		return ErrAccountNotFound
	}
	found, err := p.credentials.QueryBy(ctx, "uid", userID)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return ErrAccountNotFound
	}

	_, err = p.credentials.Mutate(ctx, credentialID(found[0].Email), func(current docstore.Document) (docstore.Document, error) {
		if current == nil {
			return nil, ErrAccountNotFound
		}
		if err := apply(current); err != nil {
			return nil, err
		}
		return current, nil
	})
	return err
}

func (p *LocalProvider) signToken(cid string, cred *credential) (string, error) {
	now := p.now()
	claims := Claims{
		CredentialID: cid,
		Epoch:        cred.Epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (p *LocalProvider) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}
