package model

import (
	"errors"
	"time"
)

// Follow is one directed edge of the social graph. Both "sides" of the
// relationship derive from this single row, so follower/following symmetry
// holds by construction.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"followerId"`
	FolloweeID int64     `db:"followee_id" json:"followeeId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FollowRequest is the request body for follow/unfollow; the actor is the
// external uid of the user performing the action.
type FollowRequest struct {
	ActorID string `json:"actorId"`
}

// FollowListResponse is the follower/following list response.
type FollowListResponse struct {
	Users []UserSummary `json:"users"`
	Count int           `json:"count"`
}

var (
	// ErrCannotFollowSelf is returned for self-follow attempts. Repeated
	// follow/unfollow calls are no-ops, not errors.
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
