package post

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/media"
	"PicSphere/internal/core/posts"
)

// Handler serves posts and likes
type Handler struct {
	service posts.Service
}

// NewHandler creates a new post handler
func NewHandler(service posts.Service) *Handler {
	return &Handler{service: service}
}

// HandleUpload creates a post from one or more images
// POST /api/posts (multipart, repeated field "image")
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(handlers.MaxMultipartMemory); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Expected a multipart form")
		return
	}
	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "at least one image is required")
		return
	}

	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	readers := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "could not read uploaded image")
			return
		}
		files = append(files, f)
		readers = append(readers, f)
	}

	post, err := h.service.Upload(r.Context(), middleware.GetUserID(r), readers)
	if err != nil && post == nil {
		handleServiceError(w, err)
		return
	}
	resp := map[string]interface{}{"post": post}
	if err != nil {
		log.Printf("[POST] Created %s with error: %v", post.PostID, err)
		resp["warning"] = "Post created; the post count may be out of date"
	}
	handlers.WriteJSON(w, http.StatusCreated, resp)
}

// HandleGet returns one post
// GET /api/posts/{postID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"post": post})
}

// HandleListByUser returns a user's posts
// GET /api/users/{userID}/posts
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []*posts.Post{}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": list})
}

// HandleDelete removes one of the caller's posts
// DELETE /api/posts/{postID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "postID")); err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleLike increments the like counter
// POST /api/posts/{postID}/like
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Like(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"likeCount": n})
}

// HandleUnlike decrements the like counter
// DELETE /api/posts/{postID}/like
func (h *Handler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Unlike(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"likeCount": n})
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *posts.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.Is(err, posts.ErrPostNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, posts.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "You can only delete your own posts")
	case errors.Is(err, media.ErrImageTooLarge):
		handlers.WriteError(w, http.StatusRequestEntityTooLarge, "ImageTooLarge", "Image is too large")
	case errors.Is(err, media.ErrUnsupportedFormat):
		handlers.WriteError(w, http.StatusUnsupportedMediaType, "UnsupportedImage", "Image must be JPEG, PNG or WebP")
	default:
		handlers.WriteCommonError(w, err)
	}
}
