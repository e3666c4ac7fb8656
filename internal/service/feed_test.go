package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"swamptok/internal/cache"
	"swamptok/internal/model"
)

// feedFixture seeds posts into the mock post repo with descending recency
// and wires ListPage/CountByAuthors/GetFeedPostScores to behave like the
// real queries over that data.
type feedFixture struct {
	svc       *FeedService
	postRepo  *mockPostRepo
	feedCache *mockFeedCache
	follow    *mockFollowRepo
}

func newFeedFixture(t *testing.T, posts []model.Post) *feedFixture {
	postRepo := newMockPostRepo()
	for i := range posts {
		p := posts[i]
		postRepo.posts[p.ID] = &p
	}

	matches := func(authorIDs []int64, p *model.Post) bool {
		if len(authorIDs) == 0 {
			return true
		}
		for _, id := range authorIDs {
			if p.UserID == id {
				return true
			}
		}
		return false
	}
	sorted := func(authorIDs []int64) []model.Post {
		var out []model.Post
		for _, p := range postRepo.posts {
			if matches(authorIDs, p) {
				out = append(out, *p)
			}
		}
		// Newest first, id tiebreak.
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if out[j].CreatedAt.After(out[i].CreatedAt) ||
					(out[j].CreatedAt.Equal(out[i].CreatedAt) && out[j].ID > out[i].ID) {
					out[i], out[j] = out[j], out[i]
				}
			}
		}
		return out
	}

	postRepo.listPageFn = func(ctx context.Context, authorIDs []int64, offset, limit int) ([]model.Post, error) {
		all := sorted(authorIDs)
		if offset >= len(all) {
			return []model.Post{}, nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}
	postRepo.countByAuthorsFn = func(ctx context.Context, authorIDs []int64) (int64, error) {
		return int64(len(sorted(authorIDs))), nil
	}
	postRepo.getFeedPostScoresFn = func(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
		all := sorted(followeeIDs)
		if len(all) > limit {
			all = all[:limit]
		}
		out := make([]cache.PostScore, len(all))
		for i, p := range all {
			out[i] = cache.PostScore{PostID: p.ID, Timestamp: p.CreatedAt.Unix()}
		}
		return out, nil
	}

	userRepo := &mockUserRepo{
		getByExternalUIDFn: usersByUID(testUser(1, "alice"), testUser(2, "bob"), testUser(3, "carol")),
	}
	followRepo := newMockFollowRepo()
	feedCache := newMockFeedCache()

	return &feedFixture{
		svc:       NewFeedService(postRepo, userRepo, followRepo, feedCache),
		postRepo:  postRepo,
		feedCache: feedCache,
		follow:    followRepo,
	}
}

func seedPosts(authorID int64, ids ...int64) []model.Post {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Post, len(ids))
	for i, id := range ids {
		out[i] = model.Post{
			ID:        id,
			UserID:    authorID,
			VideoURL:  "https://cdn.example.com/v.mp4",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestFeedService_GlobalFeed_PaginationComplete(t *testing.T) {
	// 7 posts, page size 3: pages 1..3 cover everything exactly once and
	// hasMore flips off only on the last page.
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3, 4, 5, 6, 7))

	seen := make(map[int64]bool)
	for page := 1; page <= 3; page++ {
		feed, err := f.svc.GlobalFeed(context.Background(), page, 3, "")
		if err != nil {
			t.Fatalf("GlobalFeed page %d: %v", page, err)
		}
		if feed.CurrentPage != page {
			t.Errorf("currentPage = %d, want %d", feed.CurrentPage, page)
		}
		if feed.TotalPages != 3 {
			t.Errorf("totalPages = %d, want 3", feed.TotalPages)
		}
		wantMore := page < 3
		if feed.HasMore != wantMore {
			t.Errorf("page %d hasMore = %t, want %t", page, feed.HasMore, wantMore)
		}
		for _, p := range feed.Posts {
			if seen[p.ID] {
				t.Errorf("post %d appeared on more than one page", p.ID)
			}
			seen[p.ID] = true
		}
	}
	if len(seen) != 7 {
		t.Errorf("union of pages = %d posts, want 7", len(seen))
	}
}

func TestFeedService_GlobalFeed_OrderNewestFirst(t *testing.T) {
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3))

	feed, err := f.svc.GlobalFeed(context.Background(), 1, 10, "")
	if err != nil {
		t.Fatalf("GlobalFeed: %v", err)
	}
	want := []int64{3, 2, 1}
	for i, id := range want {
		if feed.Posts[i].ID != id {
			t.Errorf("posts[%d].ID = %d, want %d", i, feed.Posts[i].ID, id)
		}
	}
}

func TestFeedService_LimitClamped(t *testing.T) {
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3))

	feed, err := f.svc.GlobalFeed(context.Background(), 0, FeedMaxLimit+100, "")
	if err != nil {
		t.Fatalf("GlobalFeed: %v", err)
	}
	if feed.CurrentPage != 1 {
		t.Errorf("currentPage = %d, want clamped 1", feed.CurrentPage)
	}
	// Limit was clamped to the maximum, so all 3 fit on one page.
	if feed.HasMore {
		t.Error("hasMore = true, want false")
	}
}

func TestFeedService_PageClampedAgainstOverflow(t *testing.T) {
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3))

	var gotOffset int
	inner := f.postRepo.listPageFn
	f.postRepo.listPageFn = func(ctx context.Context, authorIDs []int64, offset, limit int) ([]model.Post, error) {
		gotOffset = offset
		return inner(ctx, authorIDs, offset, limit)
	}

	// A parseable but absurd page number must not overflow into a negative
	// offset; it clamps and returns an empty page past the data.
	feed, err := f.svc.GlobalFeed(context.Background(), math.MaxInt, 10, "")
	if err != nil {
		t.Fatalf("GlobalFeed with huge page: %v", err)
	}
	if gotOffset < 0 {
		t.Errorf("offset = %d, want non-negative", gotOffset)
	}
	if feed.CurrentPage != FeedMaxPage {
		t.Errorf("currentPage = %d, want clamped %d", feed.CurrentPage, FeedMaxPage)
	}
	if len(feed.Posts) != 0 || feed.HasMore {
		t.Errorf("page past the data = %+v, want empty with hasMore=false", pageIDs(feed))
	}
}

func TestFeedService_AuthorFeed_FiltersByAuthor(t *testing.T) {
	posts := append(seedPosts(2, 1, 2), seedPosts(3, 10, 11, 12)...)
	f := newFeedFixture(t, posts)

	feed, err := f.svc.AuthorFeed(context.Background(), "bob", 1, 10, "")
	if err != nil {
		t.Fatalf("AuthorFeed: %v", err)
	}
	if feed.Count != 2 {
		t.Fatalf("count = %d, want 2", feed.Count)
	}
	for _, p := range feed.Posts {
		if p.UserID != 2 {
			t.Errorf("post %d authored by %d, want 2", p.ID, p.UserID)
		}
	}

	if _, err := f.svc.AuthorFeed(context.Background(), "ghost", 1, 10, ""); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("unknown author err = %v, want ErrUserNotFound", err)
	}
}

func TestFeedService_FollowingFeed_EmptyWithoutFollows(t *testing.T) {
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3))

	feed, err := f.svc.FollowingFeed(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("FollowingFeed: %v", err)
	}
	if len(feed.Posts) != 0 {
		t.Errorf("posts = %d, want 0", len(feed.Posts))
	}
	if feed.HasMore {
		t.Error("hasMore = true, want false")
	}
}

func TestFeedService_FollowingFeed_PagedScenario(t *testing.T) {
	// Alice follows bob; bob has 3 posts. limit=2 returns the 2 most recent
	// with hasMore, the second page returns the remaining one.
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3))
	f.follow.edges[[2]int64{1, 2}] = true

	page1, err := f.svc.FollowingFeed(context.Background(), "alice", 1, 2)
	if err != nil {
		t.Fatalf("FollowingFeed page 1: %v", err)
	}
	if len(page1.Posts) != 2 || page1.Posts[0].ID != 3 || page1.Posts[1].ID != 2 {
		t.Fatalf("page 1 = %+v, want posts [3 2]", pageIDs(page1))
	}
	if !page1.HasMore {
		t.Error("page 1 hasMore = false, want true")
	}

	page2, err := f.svc.FollowingFeed(context.Background(), "alice", 2, 2)
	if err != nil {
		t.Fatalf("FollowingFeed page 2: %v", err)
	}
	if len(page2.Posts) != 1 || page2.Posts[0].ID != 1 {
		t.Fatalf("page 2 = %+v, want posts [1]", pageIDs(page2))
	}
	if page2.HasMore {
		t.Error("page 2 hasMore = true, want false")
	}
}

func TestFeedService_FollowingFeed_ExcludesOwnPosts(t *testing.T) {
	posts := append(seedPosts(2, 1, 2), seedPosts(1, 10)...)
	f := newFeedFixture(t, posts)
	f.follow.edges[[2]int64{1, 2}] = true

	feed, err := f.svc.FollowingFeed(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("FollowingFeed: %v", err)
	}
	for _, p := range feed.Posts {
		if p.UserID == 1 {
			t.Errorf("own post %d leaked into the following feed", p.ID)
		}
	}
	if len(feed.Posts) != 2 {
		t.Errorf("posts = %d, want 2", len(feed.Posts))
	}
}

func TestFeedService_FollowingFeed_CacheFailureFallsBackToDB(t *testing.T) {
	f := newFeedFixture(t, seedPosts(2, 1, 2, 3))
	f.follow.edges[[2]int64{1, 2}] = true
	f.feedCache.existsErr = errors.New("redis down")

	feed, err := f.svc.FollowingFeed(context.Background(), "alice", 1, 2)
	if err != nil {
		t.Fatalf("FollowingFeed with broken cache: %v", err)
	}
	if len(feed.Posts) != 2 || feed.Posts[0].ID != 3 {
		t.Fatalf("fallback page = %+v, want posts [3 2]", pageIDs(feed))
	}
}

func TestFeedService_FollowingFeed_EnrichesCallerState(t *testing.T) {
	f := newFeedFixture(t, seedPosts(2, 1, 2))
	f.follow.edges[[2]int64{1, 2}] = true
	f.postRepo.likes[[2]int64{2, 1}] = true // alice liked post 2

	feed, err := f.svc.FollowingFeed(context.Background(), "alice", 1, 10)
	if err != nil {
		t.Fatalf("FollowingFeed: %v", err)
	}
	for _, p := range feed.Posts {
		if !p.Author.IsFollowing {
			t.Errorf("post %d author not marked as followed", p.ID)
		}
		wantLiked := p.ID == 2
		if p.IsLiked != wantLiked {
			t.Errorf("post %d isLiked = %t, want %t", p.ID, p.IsLiked, wantLiked)
		}
	}
}

func pageIDs(p *model.FeedPage) []int64 {
	out := make([]int64, len(p.Posts))
	for i, post := range p.Posts {
		out[i] = post.ID
	}
	return out
}
