package service

import (
	"context"
	"errors"
	"testing"

	"swamptok/internal/model"
	"swamptok/internal/queue"
)

func newPostFixture() (*PostService, *mockPostRepo, *mockPublisher) {
	postRepo := newMockPostRepo()
	userRepo := &mockUserRepo{
		getByExternalUIDFn: usersByUID(testUser(1, "alice"), testUser(2, "bob")),
	}
	pub := &mockPublisher{}
	svc := NewPostService(postRepo, userRepo, newMockCommentRepo(), newMockFollowRepo(), pub)
	return svc, postRepo, pub
}

func TestPostService_Delete_DomainErrorNotRetried(t *testing.T) {
	svc, postRepo, pub := newPostFixture()

	var calls int
	postRepo.deleteFn = func(ctx context.Context, postID, userID int64) error {
		calls++
		return model.ErrPostNotFound
	}

	err := svc.Delete(context.Background(), 99, "alice")
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
	// A business outcome is final; storage is not asked again.
	if calls != 1 {
		t.Errorf("delete attempts = %d, want 1", calls)
	}
	if got := len(pub.published()); got != 0 {
		t.Errorf("published events = %d, want 0", got)
	}
}

func TestPostService_Create_PublishesAndParsesTags(t *testing.T) {
	svc, _, pub := newPostFixture()

	post, err := svc.Create(context.Background(), model.CreatePostRequest{
		ActorID:  "alice",
		VideoURL: "https://cdn.example.com/v.mp4",
		Caption:  "morning swamp",
		Tags:     " gator, swamp ,, sunrise ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := []string{"gator", "swamp", "sunrise"}
	if len(post.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", post.Tags, want)
	}
	for i, tag := range want {
		if post.Tags[i] != tag {
			t.Errorf("tags[%d] = %q, want %q", i, post.Tags[i], tag)
		}
	}

	events := pub.published()
	if len(events) != 1 || events[0].Type != queue.EventPostCreated {
		t.Fatalf("events = %+v, want one post_created", events)
	}
	if events[0].PostID != post.ID {
		t.Errorf("event post id = %d, want %d", events[0].PostID, post.ID)
	}
}

func TestPostService_Create_RequiresVideoURL(t *testing.T) {
	svc, _, pub := newPostFixture()

	_, err := svc.Create(context.Background(), model.CreatePostRequest{
		ActorID:  "alice",
		VideoURL: "   ",
	})
	if !errors.Is(err, model.ErrVideoURLRequired) {
		t.Fatalf("err = %v, want ErrVideoURLRequired", err)
	}
	if got := len(pub.published()); got != 0 {
		t.Errorf("published events = %d, want 0", got)
	}
}
