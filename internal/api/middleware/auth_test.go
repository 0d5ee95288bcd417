package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/core/session"
)

// fakeVerifier accepts tokens of the form "tok-<uid>"
type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if len(token) > 4 && token[:4] == "tok-" {
		return token[4:], nil
	}
	return "", errors.New("bad token")
}

func echoActor(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := session.ActorFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(actor.UserID + "|" + actor.Token))
	})
}

func TestRequireAuth_Bearer(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{}, nil)
	handler := m.RequireAuth(echoActor(t))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer tok-u1", http.StatusOK, "u1|tok-u1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "AuthenticationRequired")
			}
		})
	}
}

func TestRequireAuth_CookieFallback(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{}, NewCookieStore("0123456789abcdef0123456789abcdef", false))

	// Log in: store the token in the cookie
	loginReq := httptest.NewRequest(http.MethodPost, "/login", nil)
	loginRec := httptest.NewRecorder()
	require.NoError(t, m.SaveSession(loginRec, loginReq, "tok-u7"))
	cookies := loginRec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	m.RequireAuth(echoActor(t)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u7|tok-u7", w.Body.String())

	// Bearer wins over the cookie
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer tok-u9")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	m.RequireAuth(echoActor(t)).ServeHTTP(w, req)
	assert.Equal(t, "u9|tok-u9", w.Body.String())
}

func TestClearSession_ExpiresCookie(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{}, NewCookieStore("0123456789abcdef0123456789abcdef", false))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()
	require.NoError(t, m.ClearSession(w, req))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestOptionalAuth(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{}, nil)
	handler := m.OptionalAuth(echoActor(t))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer tok-u2")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "u2|tok-u2", w.Body.String())
}

func TestGetUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetUserID(req))

	req = req.WithContext(SetTestUserID(req.Context(), "u3"))
	assert.Equal(t, "u3", GetUserID(req))
}
