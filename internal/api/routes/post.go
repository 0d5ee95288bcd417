package routes

import (
	"github.com/go-chi/chi/v5"

	"PicSphere/internal/api/handlers/comment"
	"PicSphere/internal/api/handlers/post"
	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/comments"
	"PicSphere/internal/core/posts"
)

// RegisterPostRoutes registers post, like and comment endpoints
func RegisterPostRoutes(r chi.Router, postService posts.Service, commentService comments.Service, authMiddleware *middleware.AuthMiddleware) {
	postHandler := post.NewHandler(postService)
	commentHandler := comment.NewHandler(commentService)

	r.Get("/api/posts/{postID}", postHandler.HandleGet)
	r.Get("/api/users/{userID}/posts", postHandler.HandleListByUser)
	r.Get("/api/posts/{postID}/comments", commentHandler.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/api/posts", postHandler.HandleUpload)
		r.Delete("/api/posts/{postID}", postHandler.HandleDelete)
		r.Post("/api/posts/{postID}/like", postHandler.HandleLike)
		r.Delete("/api/posts/{postID}/like", postHandler.HandleUnlike)
		r.Post("/api/posts/{postID}/comments", commentHandler.HandleAdd)
	})
}
