package routes

import (
	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers/graph"
	"PicSphere/internal/api/handlers/profile"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/socialgraph"
)

// RegisterUserRoutes registers profile and follow endpoints
func RegisterUserRoutes(r chi.Router, profileService profiles.Service, graphService socialgraph.Service, authMiddleware *middleware.AuthMiddleware) {
	profileHandler := profile.NewHandler(profileService)
	graphHandler := graph.NewHandler(graphService)

	// Static segments ("search", "me") win over {userID} in chi
	r.Get("/api/users/search", profileHandler.HandleSearch)
	r.Get("/api/users/{userID}", profileHandler.HandleGet)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Patch("/api/users/me/username", profileHandler.HandleUpdateUsername)
		r.Patch("/api/users/me/bio", profileHandler.HandleUpdateBio)
		r.Put("/api/users/me/avatar", profileHandler.HandleUpdateAvatar)

		r.Post("/api/users/{userID}/follow", graphHandler.HandleFollow)
		r.Delete("/api/users/{userID}/follow", graphHandler.HandleUnfollow)
		r.Get("/api/users/{userID}/follow", graphHandler.HandleIsFollowing)
	})

	r.Get("/api/users/{userID}/following", graphHandler.HandleListFollowing)
	r.Get("/api/users/{userID}/followers", graphHandler.HandleListFollowers)
}
