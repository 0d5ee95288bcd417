package routes

import (
	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers/account"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/profiles"
)

// RegisterAuthRoutes registers account endpoints
func RegisterAuthRoutes(r chi.Router, service profiles.Service, authMiddleware *middleware.AuthMiddleware) {
	h := account.NewHandler(service, authMiddleware)

	// Public: create an account or sign in
	r.Post("/api/auth/register", h.HandleRegister)
	r.Post("/api/auth/login", h.HandleLogin)

	r.With(authMiddleware.RequireAuth).Post("/api/auth/logout", h.HandleLogout)
	r.With(authMiddleware.RequireAuth).Post("/api/auth/password", h.HandleChangePassword)
}
