package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"swamptok/internal/httputil"
	"swamptok/internal/model"
	"swamptok/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// PresignVideoUpload handles POST /media/videos/presign.
func (h *MediaHandler) PresignVideoUpload(w http.ResponseWriter, r *http.Request) {
	var req model.PresignVideoUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.mediaService.PresignVideoUpload(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge), errors.Is(err, model.ErrInvalidVideoType):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] PresignVideoUpload handler: %v", err)
			httputil.WriteInternalError(w, "Failed to presign upload")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// UploadAvatar handles POST /media/avatars with multipart form field "file".
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(model.MaxAvatarSizeBytes); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge), errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequest(w, err.Error())
		default:
			log.Printf("[ERROR] UploadAvatar handler: %v", err)
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
