package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post represents a short-video post. The video URL comes from the blob
// storage provider and is stored verbatim as an opaque string.
type Post struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"userId"`
	VideoURL     string         `db:"video_url" json:"videoUrl"`
	Caption      string         `db:"caption" json:"caption"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	LikeCount    int            `db:"like_count" json:"likesCount"`
	CommentCount int            `db:"comment_count" json:"commentsCount"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`

	// Joined fields (not in posts table)
	Author   *UserSummary `json:"author,omitempty"`
	Comments []Comment    `json:"comments,omitempty"`
	IsLiked  bool         `json:"isLiked"`
}

// FeedPost is a post enriched with its author for feed display.
type FeedPost struct {
	Post
	Author UserSummary `json:"author"`
}

// FeedPage is the paginated feed response for the global, author and
// following feeds.
type FeedPage struct {
	Posts       []FeedPost `json:"posts"`
	HasMore     bool       `json:"hasMore"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	Count       int        `json:"count"`
}

// CreatePostRequest is the request body for creating a post. Tags arrive as a
// comma-separated string, matching the upload form.
type CreatePostRequest struct {
	ActorID  string `json:"actorId"`
	VideoURL string `json:"videoUrl"`
	Caption  string `json:"caption"`
	Tags     string `json:"tags"`
}

// LikeRequest identifies the user liking or unliking a post.
type LikeRequest struct {
	ActorID string `json:"userId"`
}

// LikeResponse carries the post's like count after the mutation.
type LikeResponse struct {
	LikesCount int `json:"likesCount"`
}

// UpdatePostRequest carries a partial post update; nil fields are untouched.
type UpdatePostRequest struct {
	ActorID string  `json:"actorId"`
	Caption *string `json:"caption"`
	Tags    *string `json:"tags"`
}

// Post constraints
const (
	MaxCaptionLength = 2200
	MaxTagCount      = 20
)

// Post errors
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("not the owner of this post")
	ErrVideoURLRequired = errors.New("video url is required")
	ErrCaptionTooLong   = errors.New("caption too long")
)
