package model

import "errors"

// UploadResult is returned after a server-side upload to blob storage.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignVideoUploadRequest asks for a presigned PUT URL so the client can
// upload the video directly to blob storage.
type PresignVideoUploadRequest struct {
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

// PresignVideoUploadResponse carries the presigned upload URL and the public
// URL the client should store on the post once the upload completes.
type PresignVideoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// Media constraints
const (
	MaxVideoSizeBytes  = 200 * 1024 * 1024
	MaxAvatarSizeBytes = 5 * 1024 * 1024

	AvatarWidth  = 200
	AvatarHeight = 200
	AvatarFolder = "avatars"
	AvatarExt    = ".jpg"
	VideoFolder  = "videos"

	ContentTypeJPEG    = "image/jpeg"
	AvatarCacheControl = "public, max-age=86400"
)

// Media errors
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidVideoType = errors.New("unsupported video type")
	ErrInvalidImageType = errors.New("unsupported image type")
)

// IsAllowedVideoType reports whether the content type may be uploaded as a
// post video.
func IsAllowedVideoType(contentType string) bool {
	switch contentType {
	case "video/mp4", "video/quicktime", "video/webm":
		return true
	}
	return false
}

// IsAllowedImageType reports whether the content type may be uploaded as an
// avatar image.
func IsAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
