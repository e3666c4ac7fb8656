package service

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"

	"swamptok/internal/cache"
	"swamptok/internal/model"
	"swamptok/internal/queue"
)

// newTestDB returns a sqlx.DB backed by sqlmock so services can open and
// commit transactions without a real database. Expectations are unordered
// because some tests run transactions concurrently.
func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)
	return sqlx.NewDb(db, "sqlmock"), mock
}

// expectTxs registers n begin/commit pairs on the mock.
func expectTxs(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

// -----------------------------------------------------------------------------
// Mock repositories. Each method delegates to a function field so every test
// defines exactly the behavior it needs.
// -----------------------------------------------------------------------------

type mockUserRepo struct {
	upsertFn           func(ctx context.Context, u *model.User) error
	getByExternalUIDFn func(ctx context.Context, uid string) (*model.User, error)
	getSummariesFn     func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	updateProfileFn    func(ctx context.Context, id int64, req model.UpdateUserRequest) (*model.User, error)

	mu                 sync.Mutex
	followerCountDelta map[int64]int
	followingCountDelta map[int64]int
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *model.User) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) GetByExternalUID(ctx context.Context, uid string) (*model.User, error) {
	if m.getByExternalUIDFn != nil {
		return m.getByExternalUIDFn(ctx, uid)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepo) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getSummariesFn != nil {
		return m.getSummariesFn(ctx, ids)
	}
	out := make(map[int64]model.UserSummary)
	for _, id := range ids {
		out[id] = model.UserSummary{ID: id}
	}
	return out, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, req model.UpdateUserRequest) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, req)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepo) IncrementFollowerCount(ctx context.Context, _ *sqlx.Tx, userID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.followerCountDelta == nil {
		m.followerCountDelta = make(map[int64]int)
	}
	m.followerCountDelta[userID] += delta
	return nil
}

func (m *mockUserRepo) IncrementFollowingCount(ctx context.Context, _ *sqlx.Tx, userID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.followingCountDelta == nil {
		m.followingCountDelta = make(map[int64]int)
	}
	m.followingCountDelta[userID] += delta
	return nil
}

// mockFollowRepo keeps the edge set in memory so idempotence tests exercise
// real set semantics instead of canned returns.
type mockFollowRepo struct {
	mu    sync.Mutex
	edges map[[2]int64]bool

	createFn          func(ctx context.Context, followerID, followeeID int64) (bool, error)
	deleteFn          func(ctx context.Context, followerID, followeeID int64) (bool, error)
	getFollowerIDsFn  func(ctx context.Context, userID int64) ([]int64, error)
	getFolloweeIDsFn  func(ctx context.Context, userID int64) ([]int64, error)
	getFollowersFn    func(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	getFollowingFn    func(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	getFollowerUIDsFn func(ctx context.Context, userID int64) ([]string, error)
	getFolloweeUIDsFn func(ctx context.Context, userID int64) ([]string, error)
}

func newMockFollowRepo() *mockFollowRepo {
	return &mockFollowRepo{edges: make(map[[2]int64]bool)}
}

func (m *mockFollowRepo) Create(ctx context.Context, _ *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, followerID, followeeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{followerID, followeeID}
	if m.edges[key] {
		return false, nil
	}
	m.edges[key] = true
	return true, nil
}

func (m *mockFollowRepo) Delete(ctx context.Context, _ *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, followerID, followeeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{followerID, followeeID}
	if !m.edges[key] {
		return false, nil
	}
	delete(m.edges, key)
	return true, nil
}

func (m *mockFollowRepo) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges[[2]int64{followerID, followeeID}], nil
}

func (m *mockFollowRepo) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFollowerIDsFn != nil {
		return m.getFollowerIDsFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for key := range m.edges {
		if key[1] == userID {
			out = append(out, key[0])
		}
	}
	return out, nil
}

func (m *mockFollowRepo) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.getFolloweeIDsFn != nil {
		return m.getFolloweeIDsFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for key := range m.edges {
		if key[0] == userID {
			out = append(out, key[1])
		}
	}
	return out, nil
}

func (m *mockFollowRepo) GetFollowerUIDs(ctx context.Context, userID int64) ([]string, error) {
	if m.getFollowerUIDsFn != nil {
		return m.getFollowerUIDsFn(ctx, userID)
	}
	return []string{}, nil
}

func (m *mockFollowRepo) GetFolloweeUIDs(ctx context.Context, userID int64) ([]string, error) {
	if m.getFolloweeUIDsFn != nil {
		return m.getFolloweeUIDsFn(ctx, userID)
	}
	return []string{}, nil
}

func (m *mockFollowRepo) GetFollowers(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockFollowRepo) GetFollowing(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockFollowRepo) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]bool)
	for _, id := range followeeIDs {
		out[id] = m.edges[[2]int64{followerID, id}]
	}
	return out, nil
}

// mockPostRepo keeps posts and the like set in memory.
type mockPostRepo struct {
	mu        sync.Mutex
	posts     map[int64]*model.Post
	likes     map[[2]int64]bool // (postID, userID)

	createFn            func(ctx context.Context, userID int64, videoURL, caption string, tags []string) (*model.Post, error)
	deleteFn            func(ctx context.Context, postID, userID int64) error
	listPageFn          func(ctx context.Context, authorIDs []int64, offset, limit int) ([]model.Post, error)
	countByAuthorsFn    func(ctx context.Context, authorIDs []int64) (int64, error)
	getByIDsFn          func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	getFeedPostScoresFn func(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error)
	getRecentFn         func(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error)
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{
		posts: make(map[int64]*model.Post),
		likes: make(map[[2]int64]bool),
	}
}

func (m *mockPostRepo) Create(ctx context.Context, userID int64, videoURL, caption string, tags []string) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, videoURL, caption, tags)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.posts) + 1)
	post := &model.Post{ID: id, UserID: userID, VideoURL: videoURL, Caption: caption, Tags: pq.StringArray(tags)}
	m.posts[id] = post
	return post, nil
}

func (m *mockPostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepo) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := m.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPostRepo) Update(ctx context.Context, postID, userID int64, caption string, tags []string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	if p.UserID != userID {
		return nil, model.ErrNotPostOwner
	}
	p.Caption = caption
	p.Tags = pq.StringArray(tags)
	cp := *p
	return &cp, nil
}

func (m *mockPostRepo) Delete(ctx context.Context, postID, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	if p.UserID != userID {
		return model.ErrNotPostOwner
	}
	delete(m.posts, postID)
	return nil
}

func (m *mockPostRepo) ListPage(ctx context.Context, authorIDs []int64, offset, limit int) ([]model.Post, error) {
	if m.listPageFn != nil {
		return m.listPageFn(ctx, authorIDs, offset, limit)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepo) CountByAuthors(ctx context.Context, authorIDs []int64) (int64, error) {
	if m.countByAuthorsFn != nil {
		return m.countByAuthorsFn(ctx, authorIDs)
	}
	return 0, nil
}

func (m *mockPostRepo) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	if m.getRecentFn != nil {
		return m.getRecentFn(ctx, userID, limit)
	}
	return []cache.PostScore{}, nil
}

func (m *mockPostRepo) GetFeedPostScores(ctx context.Context, followeeIDs []int64, limit int) ([]cache.PostScore, error) {
	if m.getFeedPostScoresFn != nil {
		return m.getFeedPostScoresFn(ctx, followeeIDs, limit)
	}
	return []cache.PostScore{}, nil
}

func (m *mockPostRepo) Exists(ctx context.Context, postID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.posts[postID]
	return ok, nil
}

func (m *mockPostRepo) CheckLikes(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]bool)
	for _, id := range postIDs {
		out[id] = m.likes[[2]int64{id, userID}]
	}
	return out, nil
}

func (m *mockPostRepo) Like(ctx context.Context, _ *sqlx.Tx, postID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{postID, userID}
	if m.likes[key] {
		return false, nil
	}
	m.likes[key] = true
	return true, nil
}

func (m *mockPostRepo) Unlike(ctx context.Context, _ *sqlx.Tx, postID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{postID, userID}
	if !m.likes[key] {
		return false, nil
	}
	delete(m.likes, key)
	return true, nil
}

func (m *mockPostRepo) IncrementLikeCount(ctx context.Context, _ *sqlx.Tx, postID int64, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return 0, model.ErrPostNotFound
	}
	p.LikeCount += delta
	return p.LikeCount, nil
}

func (m *mockPostRepo) GetLikeCount(ctx context.Context, postID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return 0, model.ErrPostNotFound
	}
	return p.LikeCount, nil
}

func (m *mockPostRepo) IncrementCommentCount(ctx context.Context, _ *sqlx.Tx, postID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	p.CommentCount += delta
	return nil
}

// mockCommentRepo appends comments to an in-memory slice.
type mockCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64][]model.Comment // by post
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[int64][]model.Comment)}
}

func (m *mockCommentRepo) Create(ctx context.Context, _ *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := model.Comment{ID: m.nextID, PostID: postID, UserID: userID, Text: text}
	m.comments[postID] = append(m.comments[postID], c)
	return &c, nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, _ *sqlx.Tx, postID, commentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.comments[postID]
	for i, c := range list {
		if c.ID == commentID {
			m.comments[postID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCommentRepo) ListByPost(ctx context.Context, postID int64, limit int) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.comments[postID]
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]model.Comment, len(list))
	copy(out, list)
	return out, nil
}

// mockPublisher records the events it saw.
type mockPublisher struct {
	mu     sync.Mutex
	events []queue.FeedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event queue.FeedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) published() []queue.FeedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]queue.FeedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// mockFeedCache is an in-memory stand-in for the Redis feed cache.
type mockFeedCache struct {
	mu    sync.Mutex
	feeds map[int64][]cache.PostScore

	existsErr  error
	getPageErr error
}

func newMockFeedCache() *mockFeedCache {
	return &mockFeedCache{feeds: make(map[int64][]cache.PostScore)}
}

func (m *mockFeedCache) AddPost(ctx context.Context, userID, postID, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds[userID] = append(m.feeds[userID], cache.PostScore{PostID: postID, Timestamp: timestamp})
	return nil
}

func (m *mockFeedCache) RemovePost(ctx context.Context, userID, postID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.feeds[userID]
	for i, p := range list {
		if p.PostID == postID {
			m.feeds[userID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockFeedCache) GetPage(ctx context.Context, userID int64, offset, count int) ([]int64, error) {
	if m.getPageErr != nil {
		return nil, m.getPageErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Newest first by score.
	list := append([]cache.PostScore(nil), m.feeds[userID]...)
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].Timestamp > list[i].Timestamp ||
				(list[j].Timestamp == list[i].Timestamp && list[j].PostID > list[i].PostID) {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	if offset >= len(list) {
		return []int64{}, nil
	}
	end := offset + count
	if end > len(list) {
		end = len(list)
	}
	out := make([]int64, 0, end-offset)
	for _, p := range list[offset:end] {
		out = append(out, p.PostID)
	}
	return out, nil
}

func (m *mockFeedCache) Size(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.feeds[userID])), nil
}

func (m *mockFeedCache) WarmCache(ctx context.Context, userID int64, posts []cache.PostScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeds[userID] = append([]cache.PostScore(nil), posts...)
	return nil
}

func (m *mockFeedCache) Exists(ctx context.Context, userID int64) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.feeds[userID]
	return ok, nil
}
