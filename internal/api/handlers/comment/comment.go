package comment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/comments"
	"PicSphere/internal/core/posts"
)

// Handler serves comments on posts
type Handler struct {
	service comments.Service
}

// NewHandler creates a new comment handler
func NewHandler(service comments.Service) *Handler {
	return &Handler{service: service}
}

// HandleAdd comments on a post
// POST /api/posts/{postID}/comments
//
// Request body: { "text": "..." }
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	c, err := h.service.Add(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "postID"), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, map[string]interface{}{"comment": c})
}

// HandleList returns a post's comments, oldest first
// GET /api/posts/{postID}/comments
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []*comments.Comment{}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"comments": list})
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *comments.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.Is(err, posts.ErrPostNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	default:
		handlers.WriteCommonError(w, err)
	}
}
