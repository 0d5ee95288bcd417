package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"PicSphere/internal/api/handlers"
	"PicSphere/internal/api/handlers/stream"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/comments"
	feeds "PicSphere/internal/core/feed"
	"PicSphere/internal/core/posts"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/socialgraph"
	"PicSphere/internal/core/stories"
)

// Services are the domain services behind the API
type Services struct {
	Profiles profiles.Service
	Graph    socialgraph.Service
	Posts    posts.Service
	Stories  stories.Service
	Comments comments.Service
	Feed     feeds.Service
	Hub      stream.Registry
}

// RouterOptions configures the cross-cutting middleware
type RouterOptions struct {
	Auth        *middleware.AuthMiddleware
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
	CORSOrigins []string
	// Media serves locally stored uploads under /media. nil when blobs live elsewhere.
	Media http.Handler
}

// NewRouter builds the HTTP API
func NewRouter(svc Services, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !allowsAnyOrigin(opts.CORSOrigins),
		MaxAge:           300,
	}))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", opts.Media))
	}

	RegisterAuthRoutes(r, svc.Profiles, opts.Auth)
	RegisterUserRoutes(r, svc.Profiles, svc.Graph, opts.Auth)
	RegisterPostRoutes(r, svc.Posts, svc.Comments, opts.Auth)
	RegisterStoryRoutes(r, svc.Stories, opts.Auth)
	RegisterFeedRoutes(r, svc.Feed, svc.Hub, OriginChecker(opts.CORSOrigins), opts.Auth)

	return r
}

// OriginChecker accepts websocket upgrades from the configured CORS origins.
// Requests without an Origin header (non-browser clients) are accepted.
func OriginChecker(origins []string) func(*http.Request) bool {
	if allowsAnyOrigin(origins) {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
