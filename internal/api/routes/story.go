package routes

import (
	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers/story"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/stories"
)

// RegisterStoryRoutes registers story endpoints
func RegisterStoryRoutes(r chi.Router, service stories.Service, authMiddleware *middleware.AuthMiddleware) {
	h := story.NewHandler(service)

	r.Get("/api/users/{userID}/stories", h.HandleListByUser)
	r.With(authMiddleware.RequireAuth).Post("/api/stories", h.HandleUpload)
}
