package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. Ordering is total: createdAt first,
// ID as tiebreak for comments landing within the same clock tick.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"postId"`
	UserID    int64        `db:"user_id" json:"-"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// AddCommentRequest is the request body for commenting on a post.
type AddCommentRequest struct {
	ActorID string `json:"userId"`
	Text    string `json:"text"`
}

// CommentListResponse wraps the ordered comment list for a post.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Count    int       `json:"count"`
}

// Comment constraints
const (
	MaxCommentLength = 2200
)

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrTextRequired    = errors.New("comment text is required")
	ErrTextTooLong     = errors.New("comment text too long")
)
