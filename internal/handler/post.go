package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"swamptok/internal/httputil"
	"swamptok/internal/model"
	"swamptok/internal/service"
	"swamptok/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
		httputil.WriteBadRequest(w, "actorId is required")
		return
	}

	post, err := h.postService.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVideoURLRequired), errors.Is(err, model.ErrCaptionTooLong):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] CreatePost handler: %v", err)
			httputil.WriteInternalError(w, "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	callerUID, _ := middleware.GetUserUIDFromContext(r.Context())

	post, err := h.postService.GetByID(r.Context(), postID, callerUID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] GetPost handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req model.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
		httputil.WriteBadRequest(w, "actorId is required")
		return
	}

	post, err := h.postService.Update(r.Context(), postID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCaptionTooLong):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, err.Error())
		case errors.Is(err, model.ErrPostNotFound), errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] UpdatePost handler: %v", err)
			httputil.WriteInternalError(w, "Failed to update post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	var req struct {
		ActorID string `json:"actorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorID == "" {
		httputil.WriteBadRequest(w, "actorId is required")
		return
	}

	if err := h.postService.Delete(r.Context(), postID, req.ActorID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotPostOwner):
			httputil.WriteForbidden(w, err.Error())
		case errors.Is(err, model.ErrPostNotFound), errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] DeletePost handler: %v", err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted",
	})
}
