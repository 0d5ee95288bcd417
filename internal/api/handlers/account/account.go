package account

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/identity"
	"PicSphere/internal/core/profiles"
)

// SessionWriter persists the token for cookie-based clients
type SessionWriter interface {
	SaveSession(w http.ResponseWriter, r *http.Request, token string) error
	ClearSession(w http.ResponseWriter, r *http.Request) error
}

// Handler serves registration, sign-in, sign-out and password changes
type Handler struct {
	service  profiles.Service
	sessions SessionWriter
}

// NewHandler creates a new account handler
func NewHandler(service profiles.Service, sessions SessionWriter) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
	}
}

type authResponse struct {
	Token string         `json:"token"`
	User  *profiles.View `json:"user"`
}

// HandleRegister creates an account
// POST /api/auth/register
//
// Request body: { "email", "username", "password", "confirmPassword" }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req profiles.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.saveSession(w, r, result.Token)

	handlers.WriteJSON(w, http.StatusCreated, authResponse{Token: result.Token, User: result.Profile.ToView()})
}

// HandleLogin signs in
// POST /api/auth/login
//
// Request body: { "email", "password" }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req profiles.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.saveSession(w, r, result.Token)

	handlers.WriteJSON(w, http.StatusOK, authResponse{Token: result.Token, User: result.Profile.ToView()})
}

// HandleLogout revokes the caller's tokens and clears the cookie
// POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetUserID(r)); err != nil {
		handleServiceError(w, err)
		return
	}
	if h.sessions != nil {
		if err := h.sessions.ClearSession(w, r); err != nil {
			log.Printf("[AUTH] Failed to clear session cookie: %v", err)
		}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleChangePassword replaces the caller's password. Every token issued
// before the change, the caller's included, stops verifying.
// POST /api/auth/password
//
// Request body: { "newPassword", "confirmPassword" }
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req profiles.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(r.Context(), middleware.GetUserID(r), req); err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, token string) {
	if h.sessions == nil {
		return
	}
	if err := h.sessions.SaveSession(w, r, token); err != nil {
		log.Printf("[AUTH] Failed to save session cookie: %v", err)
	}
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *profiles.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.Is(err, identity.ErrInvalidCredential):
		handlers.WriteError(w, http.StatusUnauthorized, "InvalidCredentials", "Invalid email or password")
	case errors.Is(err, identity.ErrEmailInUse):
		handlers.WriteError(w, http.StatusConflict, "EmailInUse", "An account with this email already exists")
	case errors.Is(err, profiles.ErrUsernameTaken):
		handlers.WriteError(w, http.StatusConflict, "UsernameTaken", "Username is already taken")
	case errors.Is(err, identity.ErrWeakPassword):
		handlers.WriteError(w, http.StatusBadRequest, "WeakPassword", "Password must be at least 6 characters")
	case errors.Is(err, identity.ErrInvalidEmail):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidEmail", "Email address is invalid")
	case errors.Is(err, identity.ErrAccountNotFound):
		handlers.WriteError(w, http.StatusNotFound, "AccountNotFound", "Account not found")
	default:
		handlers.WriteCommonError(w, err)
	}
}
