package service

import (
	"context"
	"log"
	"strings"

	"swamptok/internal/model"
	"swamptok/internal/queue"
	"swamptok/internal/repository"
)

// PostService handles post lifecycle: create, read, update, delete.
type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	publisher   queue.Publisher
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, commentRepo repository.CommentRepository, followRepo repository.FollowRepository, publisher queue.Publisher) *PostService {
	return &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		publisher:   publisher,
	}
}

// parseTags splits the comma-separated tag form field, trimming whitespace
// and dropping empties, capped at MaxTagCount.
func parseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == model.MaxTagCount {
			break
		}
	}
	return tags
}

// Create persists a new post and publishes it for feed fan-out.
func (s *PostService) Create(ctx context.Context, req model.CreatePostRequest) (*model.Post, error) {
	if strings.TrimSpace(req.VideoURL) == "" {
		return nil, model.ErrVideoURLRequired
	}
	if len(req.Caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	author, err := s.userRepo.GetByExternalUID(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.Create(ctx, author.ID, req.VideoURL, req.Caption, parseTags(req.Tags))
	if err != nil {
		log.Printf("[Post] create FAILED: user=%d err=%v", author.ID, err)
		return nil, err
	}

	s.publishPostEvent(ctx, queue.EventPostCreated, author.ID, post.ID, postTimestamp(post.CreatedAt))

	post.Author = &model.UserSummary{
		ID:          author.ID,
		ExternalUID: author.ExternalUID,
		DisplayName: author.DisplayName,
		PhotoURL:    author.PhotoURL,
	}

	log.Printf("[Post] create OK: post=%d user=%d", post.ID, author.ID)
	return post, nil
}

// GetByID returns one post with author, comments and caller-relative state.
func (s *PostService) GetByID(ctx context.Context, postID int64, callerUID string) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	authors, err := s.userRepo.GetSummaries(ctx, []int64{post.UserID})
	if err != nil {
		return nil, err
	}
	if author, ok := authors[post.UserID]; ok {
		post.Author = &author
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID, CommentListLimit)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	if callerUID != "" {
		caller, err := s.userRepo.GetByExternalUID(ctx, callerUID)
		if err == nil {
			likes, err := s.postRepo.CheckLikes(ctx, caller.ID, []int64{postID})
			if err != nil {
				return nil, err
			}
			post.IsLiked = likes[postID]
			if post.Author != nil {
				follows, err := s.followRepo.CheckFollows(ctx, caller.ID, []int64{post.UserID})
				if err != nil {
					return nil, err
				}
				post.Author.IsFollowing = follows[post.UserID]
			}
		} else if err != model.ErrUserNotFound {
			return nil, err
		}
	}

	return post, nil
}

// Update rewrites a post's caption and tags. Only the author may update.
func (s *PostService) Update(ctx context.Context, postID int64, req model.UpdatePostRequest) (*model.Post, error) {
	actor, err := s.userRepo.GetByExternalUID(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	current, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	caption := current.Caption
	if req.Caption != nil {
		caption = *req.Caption
	}
	if len(caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	tags := []string(current.Tags)
	if req.Tags != nil {
		tags = parseTags(*req.Tags)
	}

	post, err := s.postRepo.Update(ctx, postID, actor.ID, caption, tags)
	if err != nil {
		return nil, err
	}

	log.Printf("[Post] update OK: post=%d user=%d", postID, actor.ID)
	return post, nil
}

// Delete removes a post for good. Likes and comments go with it, and the
// withdrawal is published so cached feeds stop serving the id.
func (s *PostService) Delete(ctx context.Context, postID int64, actorUID string) error {
	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return err
	}

	err = retryOnce(ctx, "DeletePost", func() error {
		return s.postRepo.Delete(ctx, postID, actor.ID)
	})
	if err != nil {
		log.Printf("[Post] delete FAILED: post=%d user=%d err=%v", postID, actor.ID, err)
		return err
	}

	s.publishPostEvent(ctx, queue.EventPostDeleted, actor.ID, postID, 0)

	log.Printf("[Post] delete OK: post=%d user=%d", postID, actor.ID)
	return nil
}

// publishPostEvent is best effort: the row is already durable, a lost event
// only delays cache convergence.
func (s *PostService) publishPostEvent(ctx context.Context, eventType string, actorID, postID, timestamp int64) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, queue.FeedEvent{
		Type:      eventType,
		ActorID:   actorID,
		PostID:    postID,
		Timestamp: timestamp,
	})
	if err != nil {
		log.Printf("[Post] publish %s FAILED: post=%d err=%v", eventType, postID, err)
	}
}
