package profile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/profiles"
)

// Handler serves profile reads, search and edits
type Handler struct {
	service profiles.Service
}

// NewHandler creates a new profile handler
func NewHandler(service profiles.Service) *Handler {
	return &Handler{service: service}
}

type profileResponse struct {
	User    *profiles.View `json:"user"`
	Partial bool           `json:"partial,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

// HandleGet returns a public profile
// GET /api/users/{userID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, profileResponse{User: p.ToView()})
}

// HandleSearch lists profiles whose username starts with the prefix query parameter
// GET /api/users/search?prefix=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.SearchByUsernamePrefix(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	views := make([]*profiles.View, 0, len(results))
	for _, p := range results {
		views = append(views, p.ToView())
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

// HandleUpdateUsername renames the caller
// PATCH /api/users/me/username
//
// Request body: { "username": "..." }
func (h *Handler) HandleUpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	p, err := h.service.UpdateUsername(r.Context(), middleware.GetUserID(r), req.Username)
	writeEditResult(w, p, err)
}

// HandleUpdateBio replaces the caller's bio
// PATCH /api/users/me/bio
//
// Request body: { "bio": "..." }
func (h *Handler) HandleUpdateBio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bio string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	p, err := h.service.UpdateBio(r.Context(), middleware.GetUserID(r), req.Bio)
	writeEditResult(w, p, err)
}

// HandleUpdateAvatar replaces the caller's profile picture
// PUT /api/users/me/avatar (multipart field "image")
func (h *Handler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(handlers.MaxMultipartMemory); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Expected a multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "image is required")
		return
	}
	defer file.Close()

	p, err := h.service.UpdateProfilePicture(r.Context(), middleware.GetUserID(r), file)
	writeEditResult(w, p, err)
}

// writeEditResult reports a saved edit as success even when copying it onto
// the user's content partly failed
func writeEditResult(w http.ResponseWriter, p *profiles.Profile, err error) {
	if err != nil && !(profiles.IsPropagationError(err) && p != nil) {
		handleServiceError(w, err)
		return
	}
	resp := profileResponse{User: p.ToView()}
	if err != nil {
		log.Printf("[PROFILE] %v", err)
		resp.Partial = true
		resp.Warning = "Profile saved; some posts, stories or comments still show the old value"
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *profiles.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.Is(err, profiles.ErrProfileNotFound):
		handlers.WriteError(w, http.StatusNotFound, "ProfileNotFound", "Profile not found")
	case errors.Is(err, profiles.ErrUsernameTaken):
		handlers.WriteError(w, http.StatusConflict, "UsernameTaken", "Username is already taken")
	case errors.Is(err, media.ErrImageTooLarge):
		handlers.WriteError(w, http.StatusRequestEntityTooLarge, "ImageTooLarge", "Image is too large")
	case errors.Is(err, media.ErrUnsupportedFormat):
		handlers.WriteError(w, http.StatusUnsupportedMediaType, "UnsupportedImage", "Image must be JPEG, PNG or WebP")
	default:
		handlers.WriteCommonError(w, err)
	}
}
