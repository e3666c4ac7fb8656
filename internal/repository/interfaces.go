package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"swamptok/internal/cache"
	"swamptok/internal/model"
)

type UserRepository interface {
	// Upsert creates the user on first sync and refreshes provider-owned
	// fields on subsequent syncs, keyed by the external uid.
	Upsert(ctx context.Context, u *model.User) error
	GetByExternalUID(ctx context.Context, uid string) (*model.User, error)
	// GetSummaries batch-loads author display attributes for feed hydration.
	GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int64, req model.UpdateUserRequest) (*model.User, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

// FollowRepository persists the follow relation as a normalized edge table.
// Create/Delete report whether a row was actually affected so callers can
// keep follow/unfollow idempotent without surfacing conflicts.
type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFollowerUIDs(ctx context.Context, userID int64) ([]string, error)
	GetFolloweeUIDs(ctx context.Context, userID int64) ([]string, error)
	GetFollowers(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	// CheckFollows batch-checks which of followeeIDs the follower follows.
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, userID int64, videoURL, caption string, tags []string) (*model.Post, error)
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	Update(ctx context.Context, postID, userID int64, caption string, tags []string) (*model.Post, error)
	Delete(ctx context.Context, postID, userID int64) error
	// ListPage returns one offset page of posts, newest first. A nil/empty
	// authorIDs means the global feed.
	ListPage(ctx context.Context, authorIDs []int64, offset, limit int) ([]model.Post, error)
	// CountByAuthors returns the live total the pagination contract is
	// computed against.
	CountByAuthors(ctx context.Context, authorIDs []int64) (int64, error)
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
	GetFeedPostScores(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	// CheckLikes checks which posts the user has liked
	CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	// Like/Unlike are set mutations; the bool reports whether membership
	// actually changed.
	Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	// IncrementLikeCount atomically adjusts the counter and returns the
	// resulting count.
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error)
	GetLikeCount(ctx context.Context, postID int64) (int, error)
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error)
	// Delete removes the comment scoped to its post; false means no such
	// comment existed.
	Delete(ctx context.Context, tx *sqlx.Tx, postID, commentID int64) (bool, error)
	ListByPost(ctx context.Context, postID int64, limit int) ([]model.Comment, error)
}
