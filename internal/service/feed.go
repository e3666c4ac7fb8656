package service

import (
	"context"
	"log"
	"time"

	"swamptok/internal/cache"
	"swamptok/internal/model"
	"swamptok/internal/repository"
)

// Feed pagination bounds. Limits outside [1, FeedMaxLimit] are clamped, not
// rejected.
const (
	FeedDefaultLimit = 10
	FeedMaxLimit     = 50

	// FeedMaxPage bounds the page number so page*limit arithmetic can never
	// overflow into a negative OFFSET.
	FeedMaxPage = 1_000_000

	// CacheWarmLimit caps how many posts a cold feed rebuild pulls from the
	// database.
	CacheWarmLimit = 500
)

// FeedService assembles the global, per-author and following feeds. The
// following feed reads from the per-user cache when it can and falls back to
// the database when it cannot.
type FeedService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	feedCache  cache.FeedCache
}

func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository, followRepo repository.FollowRepository, feedCache cache.FeedCache) *FeedService {
	return &FeedService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		feedCache:  feedCache,
	}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > FeedMaxPage {
		page = FeedMaxPage
	}
	if limit < 1 {
		limit = FeedDefaultLimit
	}
	if limit > FeedMaxLimit {
		limit = FeedMaxLimit
	}
	return page, limit
}

// GlobalFeed returns one page of all posts, newest first.
func (s *FeedService) GlobalFeed(ctx context.Context, page, limit int, callerUID string) (*model.FeedPage, error) {
	page, limit = clampPage(page, limit)
	offset := (page - 1) * limit

	posts, err := s.postRepo.ListPage(ctx, nil, offset, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.CountByAuthors(ctx, nil)
	if err != nil {
		return nil, err
	}

	return s.buildPage(ctx, posts, total, page, limit, callerUID)
}

// AuthorFeed returns one page of a single user's posts, newest first.
func (s *FeedService) AuthorFeed(ctx context.Context, authorUID string, page, limit int, callerUID string) (*model.FeedPage, error) {
	page, limit = clampPage(page, limit)

	author, err := s.userRepo.GetByExternalUID(ctx, authorUID)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	authorIDs := []int64{author.ID}

	posts, err := s.postRepo.ListPage(ctx, authorIDs, offset, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.CountByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	return s.buildPage(ctx, posts, total, page, limit, callerUID)
}

// FollowingFeed returns one page of posts authored by the users the caller
// follows. The caller's own posts are not included. Served from the cached
// feed when possible; on any cache trouble it degrades to a direct database
// page so reads keep working without Redis.
func (s *FeedService) FollowingFeed(ctx context.Context, callerUID string, page, limit int) (*model.FeedPage, error) {
	page, limit = clampPage(page, limit)

	caller, err := s.userRepo.GetByExternalUID(ctx, callerUID)
	if err != nil {
		return nil, err
	}

	followeeIDs, err := s.followRepo.GetFolloweeIDs(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if len(followeeIDs) == 0 {
		return &model.FeedPage{
			Posts:       []model.FeedPost{},
			HasMore:     false,
			TotalPages:  0,
			CurrentPage: page,
			Count:       0,
		}, nil
	}

	total, err := s.postRepo.CountByAuthors(ctx, followeeIDs)
	if err != nil {
		return nil, err
	}

	posts, err := s.followingPagePosts(ctx, caller.ID, followeeIDs, page, limit)
	if err != nil {
		return nil, err
	}

	return s.buildPage(ctx, posts, total, page, limit, callerUID)
}

// followingPagePosts reads the page ids from the cache, warming it first if
// cold. Any cache failure falls back to the database.
func (s *FeedService) followingPagePosts(ctx context.Context, callerID int64, followeeIDs []int64, page, limit int) ([]model.Post, error) {
	offset := (page - 1) * limit

	dbFallback := func(cause error) ([]model.Post, error) {
		log.Printf("[Feed] cache unavailable, serving from db: user=%d err=%v", callerID, cause)
		return s.postRepo.ListPage(ctx, followeeIDs, offset, limit)
	}

	exists, err := s.feedCache.Exists(ctx, callerID)
	if err != nil {
		return dbFallback(err)
	}

	if !exists {
		scores, err := s.postRepo.GetFeedPostScores(ctx, followeeIDs, CacheWarmLimit)
		if err != nil {
			return nil, err
		}
		if err := s.feedCache.WarmCache(ctx, callerID, scores); err != nil {
			return dbFallback(err)
		}
		log.Printf("[Feed] cache warmed: user=%d posts=%d", callerID, len(scores))
	}

	// Pages past the cached window come straight from the database.
	size, err := s.feedCache.Size(ctx, callerID)
	if err != nil {
		return dbFallback(err)
	}
	if int64(offset) >= size && size >= cache.MaxFeedSize {
		return s.postRepo.ListPage(ctx, followeeIDs, offset, limit)
	}

	postIDs, err := s.feedCache.GetPage(ctx, callerID, offset, limit)
	if err != nil {
		return dbFallback(err)
	}
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	return s.postRepo.GetByIDs(ctx, postIDs)
}

// buildPage enriches posts with author summaries and caller-relative state
// and computes the pagination envelope against the live total.
func (s *FeedService) buildPage(ctx context.Context, posts []model.Post, total int64, page, limit int, callerUID string) (*model.FeedPage, error) {
	feedPosts, err := s.enrichPosts(ctx, posts, callerUID)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &model.FeedPage{
		Posts:       feedPosts,
		HasMore:     int64(page*limit) < total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Count:       len(feedPosts),
	}, nil
}

// enrichPosts batch-loads author summaries, caller follow edges and caller
// likes, then stamps them onto each post. Three queries per page regardless
// of page size.
func (s *FeedService) enrichPosts(ctx context.Context, posts []model.Post, callerUID string) ([]model.FeedPost, error) {
	if len(posts) == 0 {
		return []model.FeedPost{}, nil
	}

	authorIDs := make([]int64, 0, len(posts))
	postIDs := make([]int64, 0, len(posts))
	seen := make(map[int64]bool)
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	authors, err := s.userRepo.GetSummaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	var follows map[int64]bool
	var likes map[int64]bool
	if callerUID != "" {
		caller, err := s.userRepo.GetByExternalUID(ctx, callerUID)
		if err == nil {
			follows, err = s.followRepo.CheckFollows(ctx, caller.ID, authorIDs)
			if err != nil {
				return nil, err
			}
			likes, err = s.postRepo.CheckLikes(ctx, caller.ID, postIDs)
			if err != nil {
				return nil, err
			}
		} else if err != model.ErrUserNotFound {
			return nil, err
		}
	}

	feedPosts := make([]model.FeedPost, 0, len(posts))
	for _, p := range posts {
		author := authors[p.UserID]
		if follows != nil {
			author.IsFollowing = follows[p.UserID]
		}
		if likes != nil {
			p.IsLiked = likes[p.ID]
		}
		feedPosts = append(feedPosts, model.FeedPost{Post: p, Author: author})
	}

	return feedPosts, nil
}

// postTimestamp exposes the cache scoring convention in one place.
func postTimestamp(t time.Time) int64 {
	return t.Unix()
}
