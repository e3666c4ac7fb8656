package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// User represents a user in the system. Users are created on first sync from
// the external identity provider; the provider uid is stored once and every
// internal reference (edges, likes, comments) uses the serial ID.
type User struct {
	ID             int64          `db:"id" json:"id"`
	ExternalUID    string         `db:"external_uid" json:"externalUid"`
	Email          string         `db:"email" json:"email"`
	DisplayName    *string        `db:"display_name" json:"displayName"`
	PhotoURL       *string        `db:"photo_url" json:"photoUrl"`
	Bio            *string        `db:"bio" json:"bio"`
	Interests      pq.StringArray `db:"interests" json:"interests"`
	DateOfBirth    *time.Time     `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	FollowerCount  int            `db:"follower_count" json:"followerCount"`
	FollowingCount int            `db:"following_count" json:"followingCount"`
	PostCount      int            `db:"post_count" json:"postCount"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	LastLogin      time.Time      `db:"last_login" json:"lastLogin"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the minimal author representation denormalized onto posts,
// comments and follow lists at read time.
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	ExternalUID string  `db:"external_uid" json:"externalUid"`
	DisplayName *string `db:"display_name" json:"displayName"`
	PhotoURL    *string `db:"photo_url" json:"photoUrl"`
	IsFollowing bool    `json:"isFollowing"`
}

// UserProfile is the full profile response: the user record plus the external
// uids of both sides of the follow relation, kept for API compatibility with
// clients that render follower lists from the profile payload.
type UserProfile struct {
	User
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

// SyncUserRequest is the upsert payload sent after the identity provider
// authenticates a user.
type SyncUserRequest struct {
	ExternalUID string     `json:"externalUid"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"displayName"`
	PhotoURL    *string    `json:"photoUrl"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// UpdateUserRequest carries a partial profile update; nil fields are left
// untouched.
type UpdateUserRequest struct {
	DisplayName *string  `json:"displayName"`
	Bio         *string  `json:"bio"`
	Interests   []string `json:"interests"`
	PhotoURL    *string  `json:"photoUrl"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrExternalUIDRequired is returned when a sync request omits the provider uid
	ErrExternalUIDRequired = errors.New("external uid is required")

	// ErrEmailRequired is returned when a sync request omits the email
	ErrEmailRequired = errors.New("email is required")
)
