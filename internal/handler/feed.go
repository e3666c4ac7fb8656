package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"swamptok/internal/httputil"
	"swamptok/internal/model"
	"swamptok/internal/service"
	"swamptok/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// parsePagination reads page and limit query params; unparsable values fall
// back to defaults and the service clamps the range.
func parsePagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = service.FeedDefaultLimit
	}
	return page, limit
}

// GlobalFeed handles GET /posts?page&limit.
func (h *FeedHandler) GlobalFeed(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	callerUID, _ := middleware.GetUserUIDFromContext(r.Context())

	feed, err := h.feedService.GlobalFeed(r.Context(), page, limit, callerUID)
	if err != nil {
		log.Printf("[ERROR] GlobalFeed handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// AuthorFeed handles GET /posts/user/{authorId}.
func (h *FeedHandler) AuthorFeed(w http.ResponseWriter, r *http.Request) {
	authorUID := chi.URLParam(r, "authorId")
	page, limit := parsePagination(r)
	callerUID, _ := middleware.GetUserUIDFromContext(r.Context())

	feed, err := h.feedService.AuthorFeed(r.Context(), authorUID, page, limit, callerUID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] AuthorFeed handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// FollowingFeed handles GET /posts/following/{callerId}.
func (h *FeedHandler) FollowingFeed(w http.ResponseWriter, r *http.Request) {
	callerUID := chi.URLParam(r, "callerId")
	page, limit := parsePagination(r)

	feed, err := h.feedService.FollowingFeed(r.Context(), callerUID, page, limit)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] FollowingFeed handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}
