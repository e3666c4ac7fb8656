package worker

import (
	"context"
	"fmt"
	"log"

	"swamptok/internal/cache"
	"swamptok/internal/queue"
)

// Backfill depth when a new follow edge appears. Enough posts to fill the
// first pages without rebuilding the whole feed.
const followBackfillLimit = 20

// FollowerProvider lists the followers of a user for fan-out.
type FollowerProvider interface {
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecentPostsProvider lists a user's recent posts for backfill on follow.
type RecentPostsProvider interface {
	GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
}

// EventHandler applies feed events to the per-user feed caches.
type EventHandler struct {
	feedCache cache.FeedCache
	followers FollowerProvider
	posts     RecentPostsProvider
}

func NewEventHandler(feedCache cache.FeedCache, followers FollowerProvider, posts RecentPostsProvider) *EventHandler {
	return &EventHandler{
		feedCache: feedCache,
		followers: followers,
		posts:     posts,
	}
}

// Handle dispatches an event to its cache mutation. Unknown event types are
// logged and dropped so old workers survive new producers.
func (h *EventHandler) Handle(ctx context.Context, event queue.FeedEvent) error {
	switch event.Type {
	case queue.EventPostCreated:
		return h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		return h.handlePostDeleted(ctx, event)
	case queue.EventUserFollowed:
		return h.handleUserFollowed(ctx, event)
	case queue.EventUserUnfollowed:
		return h.handleUserUnfollowed(ctx, event)
	default:
		log.Printf("[Worker] unknown event type dropped: type=%s", event.Type)
		return nil
	}
}

// handlePostCreated fans the new post out to every follower's feed. The
// author's own feed is left alone: the following feed shows followees only.
func (h *EventHandler) handlePostCreated(ctx context.Context, event queue.FeedEvent) error {
	followerIDs, err := h.followers.GetFollowerIDs(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("get followers of %d: %w", event.ActorID, err)
	}

	var failed int
	for _, followerID := range followerIDs {
		if err := h.feedCache.AddPost(ctx, followerID, event.PostID, event.Timestamp); err != nil {
			log.Printf("[Worker] fan-out FAILED: post=%d follower=%d err=%v", event.PostID, followerID, err)
			failed++
		}
	}

	log.Printf("[Worker] fan-out OK: post=%d followers=%d failed=%d", event.PostID, len(followerIDs), failed)
	return nil
}

// handlePostDeleted withdraws the post from every follower's feed so deleted
// posts stop surfacing as soon as the event lands.
func (h *EventHandler) handlePostDeleted(ctx context.Context, event queue.FeedEvent) error {
	followerIDs, err := h.followers.GetFollowerIDs(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("get followers of %d: %w", event.ActorID, err)
	}

	for _, followerID := range followerIDs {
		if err := h.feedCache.RemovePost(ctx, followerID, event.PostID); err != nil {
			log.Printf("[Worker] withdraw FAILED: post=%d follower=%d err=%v", event.PostID, followerID, err)
		}
	}

	log.Printf("[Worker] withdraw OK: post=%d followers=%d", event.PostID, len(followerIDs))
	return nil
}

// handleUserFollowed backfills the follower's feed with the followee's
// recent posts. Only applied when the feed already exists; a cold feed gets
// rebuilt wholesale on the next read anyway.
func (h *EventHandler) handleUserFollowed(ctx context.Context, event queue.FeedEvent) error {
	exists, err := h.feedCache.Exists(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("check feed of %d: %w", event.ActorID, err)
	}
	if !exists {
		return nil
	}

	posts, err := h.posts.GetRecentPostsByUser(ctx, event.TargetID, followBackfillLimit)
	if err != nil {
		return fmt.Errorf("recent posts of %d: %w", event.TargetID, err)
	}

	for _, p := range posts {
		if err := h.feedCache.AddPost(ctx, event.ActorID, p.PostID, p.Timestamp); err != nil {
			log.Printf("[Worker] backfill FAILED: follower=%d post=%d err=%v", event.ActorID, p.PostID, err)
		}
	}

	log.Printf("[Worker] backfill OK: follower=%d followee=%d posts=%d", event.ActorID, event.TargetID, len(posts))
	return nil
}

// handleUserUnfollowed removes the ex-followee's posts from the follower's
// feed so the next page read reflects the new graph.
func (h *EventHandler) handleUserUnfollowed(ctx context.Context, event queue.FeedEvent) error {
	exists, err := h.feedCache.Exists(ctx, event.ActorID)
	if err != nil {
		return fmt.Errorf("check feed of %d: %w", event.ActorID, err)
	}
	if !exists {
		return nil
	}

	posts, err := h.posts.GetRecentPostsByUser(ctx, event.TargetID, cache.MaxFeedSize)
	if err != nil {
		return fmt.Errorf("recent posts of %d: %w", event.TargetID, err)
	}

	for _, p := range posts {
		if err := h.feedCache.RemovePost(ctx, event.ActorID, p.PostID); err != nil {
			log.Printf("[Worker] unfollow scrub FAILED: follower=%d post=%d err=%v", event.ActorID, p.PostID, err)
		}
	}

	log.Printf("[Worker] unfollow scrub OK: follower=%d followee=%d posts=%d", event.ActorID, event.TargetID, len(posts))
	return nil
}
