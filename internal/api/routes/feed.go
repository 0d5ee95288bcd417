package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers/feed"
	"PicSphere/internal/api/handlers/stream"
	"PicSphere/internal/api/middleware"
	feeds "PicSphere/internal/core/feed"
)

// RegisterFeedRoutes registers the home feed and the event stream
func RegisterFeedRoutes(r chi.Router, service feeds.Service, hub stream.Registry, checkOrigin func(*http.Request) bool, authMiddleware *middleware.AuthMiddleware) {
	feedHandler := feed.NewHandler(service)
	streamHandler := stream.NewHandler(hub, checkOrigin)

	r.With(authMiddleware.RequireAuth).Get("/api/feed", feedHandler.HandleGetHomeFeed)
	r.With(authMiddleware.RequireAuth).Get("/api/stream", streamHandler.HandleStream)
}
