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
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Sync handles POST /users/sync: upsert the user from the identity
// provider's claims after sign-in.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req model.SyncUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Sync(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrExternalUIDRequired), errors.Is(err, model.ErrEmailRequired):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] SyncUser handler: %v", err)
			httputil.WriteInternalError(w, "Failed to sync user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Get handles GET /users/{uid}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	profile, err := h.userService.Get(r.Context(), uid)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] GetUser handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Update handles PUT /users/{uid}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Update(r.Context(), uid, req)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, err.Error())
			return
		}
		log.Printf("[ERROR] UpdateUser handler: %v", err)
		httputil.WriteInternalError(w, "Failed to update user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
