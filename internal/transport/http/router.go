package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"swamptok/internal/handler"
	"swamptok/internal/httputil"
	"swamptok/internal/transport/http/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	User       *handler.UserHandler
	Follow     *handler.FollowHandler
	Post       *handler.PostHandler
	Feed       *handler.FeedHandler
	Engagement *handler.EngagementHandler
	Media      *handler.MediaHandler
}

// NewRouter wires all routes. Mutations identify their actor in the request
// body; reads personalize from the optional bearer token. Media endpoints
// are the only ones that hard-require a token, since they mint storage
// credentials.
func NewRouter(h Handlers, authSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.OptionalAuth(authSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/sync", h.User.Sync)
		r.Get("/{uid}", h.User.Get)
		r.Put("/{uid}", h.User.Update)
		r.Get("/{uid}/followers", h.Follow.GetFollowers)
		r.Get("/{uid}/following", h.Follow.GetFollowing)
	})

	r.Route("/follow", func(r chi.Router) {
		r.Put("/unfollow/{targetId}", h.Follow.Unfollow)
		r.Put("/{targetId}", h.Follow.Follow)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.Feed.GlobalFeed)
		r.Post("/", h.Post.Create)
		r.Get("/user/{authorId}", h.Feed.AuthorFeed)
		r.Get("/following/{callerId}", h.Feed.FollowingFeed)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Post.Get)
			r.Put("/", h.Post.Update)
			r.Delete("/", h.Post.Delete)
			r.Post("/like", h.Engagement.Like)
			r.Post("/unlike", h.Engagement.Unlike)
			r.Get("/comments", h.Engagement.ListComments)
			r.Post("/comment", h.Engagement.AddComment)
			r.Delete("/comment/{commentId}", h.Engagement.DeleteComment)
		})
	})

	if h.Media != nil {
		r.Route("/media", func(r chi.Router) {
			r.Use(middleware.RequireAuth(authSecret))
			r.Post("/videos/presign", h.Media.PresignVideoUpload)
			r.Post("/avatars", h.Media.UploadAvatar)
		})
	}

	return r
}
