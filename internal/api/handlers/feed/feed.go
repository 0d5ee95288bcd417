package feed

import (
	"net/http"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/feed"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/stories"
)

// Handler serves the home feed
type Handler struct {
	service feed.Service
}

// NewHandler creates a new feed handler
func NewHandler(service feed.Service) *Handler {
	return &Handler{service: service}
}

// Response is the home feed body. Partial is set when some followed users
// could not be loaded; the content of the others is still returned.
type Response struct {
	Posts   []*posts.Post    `json:"posts"`
	Stories []*stories.Story `json:"stories"`
	Partial bool             `json:"partial,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

// HandleGetHomeFeed returns posts and stories of everyone the caller follows
// GET /api/feed
func (h *Handler) HandleGetHomeFeed(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetHomeFeed(r.Context(), middleware.GetUserID(r))
	if f == nil {
		handlers.WriteCommonError(w, err)
		return
	}

	resp := Response{Posts: f.Posts, Stories: f.Stories}
	if resp.Posts == nil {
		resp.Posts = []*posts.Post{}
	}
	if resp.Stories == nil {
		resp.Stories = []*stories.Story{}
	}
	if err != nil {
		resp.Partial = true
		resp.Warning = "Some accounts you follow could not be loaded"
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}
