package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"swamptok/internal/redis"
)

const (
	// FeedCachePrefix is the key prefix for per-user following feeds.
	FeedCachePrefix = "feed:user:"

	// MaxFeedSize caps each cached feed; older entries are trimmed away.
	MaxFeedSize = 500

	// FeedTTL expires feeds of users who stop reading them.
	FeedTTL = 7 * 24 * time.Hour
)

// PostScore pairs a post id with its creation time for ZSET scoring.
type PostScore struct {
	PostID    int64
	Timestamp int64
}

// FeedCache maintains per-user following feeds as Redis sorted sets keyed by
// creation time.
type FeedCache interface {
	AddPost(ctx context.Context, userID, postID, timestamp int64) error
	RemovePost(ctx context.Context, userID, postID int64) error
	GetPage(ctx context.Context, userID int64, offset, count int) ([]int64, error)
	Size(ctx context.Context, userID int64) (int64, error)
	WarmCache(ctx context.Context, userID int64, posts []PostScore) error
	Exists(ctx context.Context, userID int64) (bool, error)
}

type feedCache struct {
	client *redis.Client
}

func NewFeedCache(client *redis.Client) FeedCache {
	return &feedCache{client: client}
}

func feedKey(userID int64) string {
	return FeedCachePrefix + strconv.FormatInt(userID, 10)
}

// AddPost pushes a post into a user's feed and trims past the cap.
func (c *feedCache) AddPost(ctx context.Context, userID, postID, timestamp int64) error {
	key := feedKey(userID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(timestamp),
		Member: postID,
	})
	pipe.ZRemRangeByRank(ctx, key, 0, -(MaxFeedSize + 1))
	pipe.Expire(ctx, key, FeedTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add post to feed %d: %w", userID, err)
	}
	return nil
}

func (c *feedCache) RemovePost(ctx context.Context, userID, postID int64) error {
	err := c.client.ZRem(ctx, feedKey(userID), postID).Err()
	if err != nil {
		return fmt.Errorf("remove post from feed %d: %w", userID, err)
	}
	return nil
}

// GetPage reads one offset page, newest first.
func (c *feedCache) GetPage(ctx context.Context, userID int64, offset, count int) ([]int64, error) {
	key := feedKey(userID)

	values, err := c.client.ZRevRange(ctx, key, int64(offset), int64(offset+count-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read feed page %d: %w", userID, err)
	}

	postIDs := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		postIDs = append(postIDs, id)
	}
	return postIDs, nil
}

func (c *feedCache) Size(ctx context.Context, userID int64) (int64, error) {
	size, err := c.client.ZCard(ctx, feedKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("feed size %d: %w", userID, err)
	}
	return size, nil
}

// WarmCache rebuilds a feed from scratch in one pipeline.
func (c *feedCache) WarmCache(ctx context.Context, userID int64, posts []PostScore) error {
	key := feedKey(userID)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	if len(posts) > 0 {
		members := make([]goredis.Z, len(posts))
		for i, p := range posts {
			members[i] = goredis.Z{
				Score:  float64(p.Timestamp),
				Member: p.PostID,
			}
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.ZRemRangeByRank(ctx, key, 0, -(MaxFeedSize + 1))
	}
	pipe.Expire(ctx, key, FeedTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warm feed %d: %w", userID, err)
	}
	return nil
}

func (c *feedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := c.client.Exists(ctx, feedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check feed exists %d: %w", userID, err)
	}
	return n > 0, nil
}
