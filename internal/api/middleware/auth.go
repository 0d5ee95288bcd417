package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"PicSphere/internal/core/identity"
	"PicSphere/internal/core/session"
)

const (
	// SessionName is the cookie carrying the token for browser clients
	SessionName     = "picsphere_session"
	sessionTokenKey = "token"
)

// AuthMiddleware resolves the caller from a bearer token, falling back to the
// token stored in the session cookie
type AuthMiddleware struct {
	verifier identity.TokenVerifier
	cookies  sessions.Store
}

// NewAuthMiddleware creates the middleware. cookies may be nil to accept bearer tokens only.
func NewAuthMiddleware(verifier identity.TokenVerifier, cookies sessions.Store) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		cookies:  cookies,
	}
}

// NewCookieStore creates the session cookie store
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// RequireAuth ensures the request carries a valid token.
// If not authenticated, returns 401. Otherwise the actor is put in the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, source := m.tokenFromRequest(r)
		if token == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}

		userID, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			log.Printf("[AUTH_FAILURE] type=verification_failed source=%s ip=%s method=%s path=%s error=%v",
				source, r.RemoteAddr, r.Method, r.URL.Path, err)
			writeAuthError(w, "Invalid or expired token")
			return
		}
		if userID == "" {
			writeAuthError(w, "Missing user id in token")
			return
		}

		ctx := session.WithActor(r.Context(), session.Actor{UserID: userID, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth loads the actor if a valid token is present, but doesn't require it
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := m.tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			log.Printf("Optional auth failed: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		ctx := session.WithActor(r.Context(), session.Actor{UserID: userID, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SaveSession stores token in the session cookie
func (m *AuthMiddleware) SaveSession(w http.ResponseWriter, r *http.Request, token string) error {
	if m.cookies == nil {
		return nil
	}
	s, err := m.cookies.Get(r, SessionName)
	if err != nil && s == nil {
		return err
	}
	s.Values[sessionTokenKey] = token
	return s.Save(r, w)
}

// ClearSession expires the session cookie
func (m *AuthMiddleware) ClearSession(w http.ResponseWriter, r *http.Request) error {
	if m.cookies == nil {
		return nil
	}
	s, err := m.cookies.Get(r, SessionName)
	if err != nil && s == nil {
		return err
	}
	delete(s.Values, sessionTokenKey)
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

func (m *AuthMiddleware) tokenFromRequest(r *http.Request) (token, source string) {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), "bearer"
	}
	if m.cookies == nil {
		return "", ""
	}
	s, err := m.cookies.Get(r, SessionName)
	if err != nil || s == nil {
		return "", ""
	}
	token, _ = s.Values[sessionTokenKey].(string)
	return token, "cookie"
}

// GetUserID extracts the signed-in user's id from the request context.
// Returns empty string if not authenticated
func GetUserID(r *http.Request) string {
	return session.UserID(r.Context())
}

// SetTestUserID sets the actor in the context for testing purposes
// This function should ONLY be used in tests to mock authenticated users
func SetTestUserID(ctx context.Context, userID string) context.Context {
	return session.WithActor(ctx, session.Actor{UserID: userID, Token: "test-token"})
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	response := `{"error":"AuthenticationRequired","message":"` + message + `"}`
	if _, err := w.Write([]byte(response)); err != nil {
		log.Printf("Failed to write auth error response: %v", err)
	}
}
