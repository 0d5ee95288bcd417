package story

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/stories"
)

// Handler serves stories
type Handler struct {
	service stories.Service
}

// NewHandler creates a new story handler
func NewHandler(service stories.Service) *Handler {
	return &Handler{service: service}
}

// HandleUpload adds an image to the caller's story
// POST /api/stories (multipart field "image")
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
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

	s, err := h.service.Upload(r.Context(), middleware.GetUserID(r), file)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, map[string]interface{}{"story": s})
}

// HandleListByUser returns a user's stories
// GET /api/users/{userID}/stories
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []*stories.Story{}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"stories": list})
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *stories.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.Is(err, media.ErrImageTooLarge):
		handlers.WriteError(w, http.StatusRequestEntityTooLarge, "ImageTooLarge", "Image is too large")
	case errors.Is(err, media.ErrUnsupportedFormat):
		handlers.WriteError(w, http.StatusUnsupportedMediaType, "UnsupportedImage", "Image must be JPEG, PNG or WebP")
	default:
		handlers.WriteCommonError(w, err)
	}
}
