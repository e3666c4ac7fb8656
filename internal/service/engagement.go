package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"swamptok/internal/model"
	"swamptok/internal/repository"
)

// CommentListLimit bounds comment list reads per post.
const CommentListLimit = 200

// EngagementService handles likes and comments: set/log mutations paired
// with the denormalized counters on the post row.
type EngagementService struct {
	db          *sqlx.DB
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
}

func NewEngagementService(db *sqlx.DB, postRepo repository.PostRepository, commentRepo repository.CommentRepository, userRepo repository.UserRepository) *EngagementService {
	return &EngagementService{
		db:          db,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
	}
}

// Like adds the actor to the post's like set and returns the resulting like
// count. Already-liked is a no-op returning the current count.
func (s *EngagementService) Like(ctx context.Context, postID int64, actorUID string) (int, error) {
	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return 0, err
	}

	var count int
	err = retryOnce(ctx, "Like", func() error {
		var txErr error
		count, txErr = s.applyLike(ctx, postID, actor.ID, true)
		return txErr
	})
	if err != nil {
		log.Printf("[Engagement] like FAILED: post=%d user=%d err=%v", postID, actor.ID, err)
		return 0, err
	}

	log.Printf("[Engagement] like OK: post=%d user=%d count=%d", postID, actor.ID, count)
	return count, nil
}

// Unlike removes the actor from the like set and returns the resulting
// count. Not-liked is a no-op.
func (s *EngagementService) Unlike(ctx context.Context, postID int64, actorUID string) (int, error) {
	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return 0, err
	}

	var count int
	err = retryOnce(ctx, "Unlike", func() error {
		var txErr error
		count, txErr = s.applyLike(ctx, postID, actor.ID, false)
		return txErr
	})
	if err != nil {
		log.Printf("[Engagement] unlike FAILED: post=%d user=%d err=%v", postID, actor.ID, err)
		return 0, err
	}

	log.Printf("[Engagement] unlike OK: post=%d user=%d count=%d", postID, actor.ID, count)
	return count, nil
}

// applyLike runs the set mutation and, only when membership changed, the
// counter update in the same transaction. The counter therefore always equals
// the set size regardless of duplicate or concurrent requests.
func (s *EngagementService) applyLike(ctx context.Context, postID, userID int64, like bool) (int, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var changed bool
	if like {
		changed, err = s.postRepo.Like(ctx, tx, postID, userID)
	} else {
		changed, err = s.postRepo.Unlike(ctx, tx, postID, userID)
	}
	if err != nil {
		return 0, err
	}

	if !changed {
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit transaction: %w", err)
		}
		return s.postRepo.GetLikeCount(ctx, postID)
	}

	delta := 1
	if !like {
		delta = -1
	}
	count, err := s.postRepo.IncrementLikeCount(ctx, tx, postID, delta)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return count, nil
}

// AddComment appends a comment and bumps the counter in one transaction.
func (s *EngagementService) AddComment(ctx context.Context, postID int64, actorUID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrTextRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrTextTooLong
	}

	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.Create(ctx, tx, postID, actor.ID, text)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	comment.Author = &model.UserSummary{
		ID:          actor.ID,
		ExternalUID: actor.ExternalUID,
		DisplayName: actor.DisplayName,
		PhotoURL:    actor.PhotoURL,
	}

	log.Printf("[Engagement] comment OK: post=%d user=%d comment=%d", postID, actor.ID, comment.ID)
	return comment, nil
}

// DeleteComment removes a comment addressed by (post, comment). A comment id
// belonging to a different post resolves to not found, never to a delete.
func (s *EngagementService) DeleteComment(ctx context.Context, postID, commentID int64) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.commentRepo.Delete(ctx, tx, postID, commentID)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrCommentNotFound
	}

	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[Engagement] delete comment OK: post=%d comment=%d", postID, commentID)
	return nil
}

// ListComments returns a post's comments oldest first with authors attached.
func (s *EngagementService) ListComments(ctx context.Context, postID int64) (*model.CommentListResponse, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID, CommentListLimit)
	if err != nil {
		return nil, err
	}

	if len(comments) > 0 {
		ids := make([]int64, len(comments))
		for i, c := range comments {
			ids[i] = c.UserID
		}
		authors, err := s.userRepo.GetSummaries(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range comments {
			if author, ok := authors[comments[i].UserID]; ok {
				a := author
				comments[i].Author = &a
			}
		}
	}

	return &model.CommentListResponse{Comments: comments, Count: len(comments)}, nil
}
