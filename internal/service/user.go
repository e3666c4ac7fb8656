package service

import (
	"context"
	"log"
	"strings"

	"swamptok/internal/model"
	"swamptok/internal/repository"
)

// UserService handles identity sync and profile reads/updates. Auth lives in
// the external provider; this service only mirrors its identities.
type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo}
}

// Sync upserts the user from the identity provider's view. First call
// creates the row; later calls refresh email, display name, photo and
// last_login.
func (s *UserService) Sync(ctx context.Context, req model.SyncUserRequest) (*model.User, error) {
	if strings.TrimSpace(req.ExternalUID) == "" {
		return nil, model.ErrExternalUIDRequired
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, model.ErrEmailRequired
	}

	user := &model.User{
		ExternalUID: req.ExternalUID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		DateOfBirth: req.DateOfBirth,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		log.Printf("[User] sync FAILED: uid=%s err=%v", req.ExternalUID, err)
		return nil, err
	}

	log.Printf("[User] sync OK: uid=%s id=%d", user.ExternalUID, user.ID)
	return user, nil
}

// Get returns the full profile: the user row plus the external uids of
// followers and followees.
func (s *UserService) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	user, err := s.userRepo.GetByExternalUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.GetFollowerUIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.GetFolloweeUIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.UserProfile{
		User:      *user,
		Followers: followers,
		Following: following,
	}, nil
}

// Update applies a partial profile update.
func (s *UserService) Update(ctx context.Context, uid string, req model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.GetByExternalUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateProfile(ctx, user.ID, req)
	if err != nil {
		log.Printf("[User] update FAILED: uid=%s err=%v", uid, err)
		return nil, err
	}

	log.Printf("[User] update OK: uid=%s id=%d", uid, user.ID)
	return updated, nil
}
