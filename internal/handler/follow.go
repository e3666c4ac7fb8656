package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"swamptok/internal/httputil"
	"swamptok/internal/model"
	"swamptok/internal/service"
	"swamptok/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	targetUID := chi.URLParam(r, "targetId")

	var req model.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
		httputil.WriteBadRequest(w, "actorId is required")
		return
	}

	if err := h.followService.Follow(r.Context(), req.ActorID, targetUID); err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] Follow handler: %v", err)
			httputil.WriteInternalError(w, "Failed to follow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully followed user",
	})
}

func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	targetUID := chi.URLParam(r, "targetId")

	var req model.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
		httputil.WriteBadRequest(w, "actorId is required")
		return
	}

	if err := h.followService.Unfollow(r.Context(), req.ActorID, targetUID); err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] Unfollow handler: %v", err)
			httputil.WriteInternalError(w, "Failed to unfollow user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully unfollowed user",
	})
}

func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	callerUID, _ := middleware.GetUserUIDFromContext(r.Context())

	resp, err := h.followService.Followers(r.Context(), uid, callerUID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] GetFollowers handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list followers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	callerUID, _ := middleware.GetUserUIDFromContext(r.Context())

	resp, err := h.followService.Following(r.Context(), uid, callerUID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] GetFollowing handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list following")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
