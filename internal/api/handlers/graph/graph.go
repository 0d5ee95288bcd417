package graph

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/socialgraph"
)

// Handler serves follow edges
type Handler struct {
	service socialgraph.Service
}

// NewHandler creates a new graph handler
func NewHandler(service socialgraph.Service) *Handler {
	return &Handler{service: service}
}

// HandleFollow makes the caller follow {userID}
// POST /api/users/{userID}/follow
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "userID")
	if err := h.service.Follow(r.Context(), middleware.GetUserID(r), target); err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"following": true})
}

// HandleUnfollow removes the caller's follow of {userID}
// DELETE /api/users/{userID}/follow
func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "userID")
	if err := h.service.Unfollow(r.Context(), middleware.GetUserID(r), target); err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"following": false})
}

// HandleIsFollowing reports whether the caller follows {userID}
// GET /api/users/{userID}/follow
func (h *Handler) HandleIsFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.service.IsFollowing(r.Context(), middleware.GetUserID(r), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"following": following})
}

// HandleListFollowing returns the ids {userID} follows
// GET /api/users/{userID}/following
func (h *Handler) HandleListFollowing(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListFollowedIDs(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeIDs(w, ids)
}

// HandleListFollowers returns the ids following {userID}
// GET /api/users/{userID}/followers
func (h *Handler) HandleListFollowers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListFollowerIDs(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeIDs(w, ids)
}

func writeIDs(w http.ResponseWriter, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]interface{}{"userIds": ids, "count": len(ids)})
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *socialgraph.ValidationError
	var partial *socialgraph.PartialEdgeError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)
	case errors.As(err, &partial):
		log.Printf("[FOLLOW] %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "PartialEdge",
			"The "+partial.Op+" was only partly saved and will be repaired")
	case errors.Is(err, profiles.ErrProfileNotFound):
		handlers.WriteError(w, http.StatusNotFound, "ProfileNotFound", "User not found")
	default:
		handlers.WriteCommonError(w, err)
	}
}
