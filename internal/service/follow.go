package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"swamptok/internal/model"
	"swamptok/internal/queue"
	"swamptok/internal/repository"
)

// FollowListLimit bounds follower/following list reads.
const FollowListLimit = 100

// FollowService manages the social graph: directed follow edges plus the
// denormalized counters that ride on them.
type FollowService struct {
	db         *sqlx.DB
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	publisher  queue.Publisher
}

func NewFollowService(db *sqlx.DB, userRepo repository.UserRepository, followRepo repository.FollowRepository, publisher queue.Publisher) *FollowService {
	return &FollowService{
		db:         db,
		userRepo:   userRepo,
		followRepo: followRepo,
		publisher:  publisher,
	}
}

// Follow creates the edge actor -> target. Already-following is a no-op, not
// an error; counters only move when the edge is actually new.
func (s *FollowService) Follow(ctx context.Context, actorUID, targetUID string) error {
	// Self-follow is rejected on the raw uids, before any lookups.
	if actorUID == targetUID {
		return model.ErrCannotFollowSelf
	}

	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return err
	}
	target, err := s.userRepo.GetByExternalUID(ctx, targetUID)
	if err != nil {
		return err
	}

	var created bool
	err = retryOnce(ctx, "Follow", func() error {
		var txErr error
		created, txErr = s.createEdge(ctx, actor.ID, target.ID)
		return txErr
	})
	if err != nil {
		log.Printf("[Follow] follow FAILED: actor=%d target=%d err=%v", actor.ID, target.ID, err)
		return err
	}

	if created {
		s.publishFollowEvent(ctx, queue.EventUserFollowed, actor.ID, target.ID)
	}

	log.Printf("[Follow] follow OK: actor=%d target=%d created=%t", actor.ID, target.ID, created)
	return nil
}

// Unfollow removes the edge. Not-following is a no-op — that includes the
// self case, since a self-edge can never exist.
func (s *FollowService) Unfollow(ctx context.Context, actorUID, targetUID string) error {
	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return err
	}
	target, err := s.userRepo.GetByExternalUID(ctx, targetUID)
	if err != nil {
		return err
	}

	var removed bool
	err = retryOnce(ctx, "Unfollow", func() error {
		var txErr error
		removed, txErr = s.removeEdge(ctx, actor.ID, target.ID)
		return txErr
	})
	if err != nil {
		log.Printf("[Follow] unfollow FAILED: actor=%d target=%d err=%v", actor.ID, target.ID, err)
		return err
	}

	if removed {
		s.publishFollowEvent(ctx, queue.EventUserUnfollowed, actor.ID, target.ID)
	}

	log.Printf("[Follow] unfollow OK: actor=%d target=%d removed=%t", actor.ID, target.ID, removed)
	return nil
}

// createEdge inserts the edge and bumps both counters in one transaction.
// When the edge already exists nothing is written, so repeated and concurrent
// identical follows cannot inflate the counters.
func (s *FollowService) createEdge(ctx context.Context, actorID, targetID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := s.followRepo.Create(ctx, tx, actorID, targetID)
	if err != nil {
		return false, err
	}
	if !created {
		return false, tx.Commit()
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, actorID, 1); err != nil {
		return false, err
	}
	if err := s.userRepo.IncrementFollowerCount(ctx, tx, targetID, 1); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (s *FollowService) removeEdge(ctx context.Context, actorID, targetID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.followRepo.Delete(ctx, tx, actorID, targetID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, tx.Commit()
	}

	if err := s.userRepo.IncrementFollowingCount(ctx, tx, actorID, -1); err != nil {
		return false, err
	}
	if err := s.userRepo.IncrementFollowerCount(ctx, tx, targetID, -1); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// publishFollowEvent hands the graph change to the feed workers. The edge is
// already durable; a publish failure only delays cache convergence, so it is
// logged and swallowed.
func (s *FollowService) publishFollowEvent(ctx context.Context, eventType string, actorID, targetID int64) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, queue.FeedEvent{
		Type:      eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Printf("[Follow] publish %s FAILED: actor=%d target=%d err=%v", eventType, actorID, targetID, err)
	}
}

// IsFollowing reports whether actor follows target.
func (s *FollowService) IsFollowing(ctx context.Context, actorUID, targetUID string) (bool, error) {
	actor, err := s.userRepo.GetByExternalUID(ctx, actorUID)
	if err != nil {
		return false, err
	}
	target, err := s.userRepo.GetByExternalUID(ctx, targetUID)
	if err != nil {
		return false, err
	}
	return s.followRepo.Exists(ctx, actor.ID, target.ID)
}

// Followers lists the users following uid, newest edges first. When
// callerUID is set, each entry carries whether the caller follows them.
func (s *FollowService) Followers(ctx context.Context, uid, callerUID string) (*model.FollowListResponse, error) {
	user, err := s.userRepo.GetByExternalUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	summaries, err := s.followRepo.GetFollowers(ctx, user.ID, FollowListLimit)
	if err != nil {
		return nil, err
	}

	if err := s.enrichWithFollowStatus(ctx, callerUID, summaries); err != nil {
		return nil, err
	}

	return &model.FollowListResponse{Users: summaries, Count: len(summaries)}, nil
}

// Following lists the users uid follows.
func (s *FollowService) Following(ctx context.Context, uid, callerUID string) (*model.FollowListResponse, error) {
	user, err := s.userRepo.GetByExternalUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	summaries, err := s.followRepo.GetFollowing(ctx, user.ID, FollowListLimit)
	if err != nil {
		return nil, err
	}

	if err := s.enrichWithFollowStatus(ctx, callerUID, summaries); err != nil {
		return nil, err
	}

	return &model.FollowListResponse{Users: summaries, Count: len(summaries)}, nil
}

// enrichWithFollowStatus stamps IsFollowing onto each summary with a single
// batched edge check from the caller's perspective.
func (s *FollowService) enrichWithFollowStatus(ctx context.Context, callerUID string, summaries []model.UserSummary) error {
	if callerUID == "" || len(summaries) == 0 {
		return nil
	}

	caller, err := s.userRepo.GetByExternalUID(ctx, callerUID)
	if err != nil {
		if err == model.ErrUserNotFound {
			return nil
		}
		return err
	}

	ids := make([]int64, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}

	follows, err := s.followRepo.CheckFollows(ctx, caller.ID, ids)
	if err != nil {
		return err
	}

	for i := range summaries {
		summaries[i].IsFollowing = follows[summaries[i].ID]
	}
	return nil
}
