package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"swamptok/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert creates the user on first sync and refreshes the mutable identity
// fields on every later one. last_login always advances.
func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (external_uid, email, display_name, photo_url, date_of_birth)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_uid) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = COALESCE(EXCLUDED.display_name, users.display_name),
			photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
			last_login = NOW(),
			updated_at = NOW()
		RETURNING id, external_uid, email, display_name, photo_url, bio, interests,
			date_of_birth, follower_count, following_count, post_count,
			created_at, last_login, updated_at
	`
	err := r.db.GetContext(ctx, user, query,
		user.ExternalUID, user.Email, user.DisplayName, user.PhotoURL, user.DateOfBirth)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByExternalUID(ctx context.Context, uid string) (*model.User, error) {
	query := `
		SELECT id, external_uid, email, display_name, photo_url, bio, interests,
			date_of_birth, follower_count, following_count, post_count,
			created_at, last_login, updated_at
		FROM users
		WHERE external_uid = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, uid)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by uid: %w", err)
	}
	return &user, nil
}

// GetSummaries fetches author summaries for a batch of ids in one query.
func (r *userRepository) GetSummaries(ctx context.Context, userIDs []int64) (map[int64]model.UserSummary, error) {
	result := make(map[int64]model.UserSummary)
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, external_uid, display_name, photo_url
		FROM users
		WHERE id = ANY($1)
	`
	var summaries []model.UserSummary
	err := r.db.SelectContext(ctx, &summaries, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("get user summaries: %w", err)
	}

	for _, s := range summaries {
		result[s.ID] = s
	}
	return result, nil
}

// UpdateProfile applies only the fields present in the request.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, req model.UpdateUserRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($1, display_name),
			bio = COALESCE($2, bio),
			photo_url = COALESCE($3, photo_url),
			interests = COALESCE($4, interests),
			updated_at = NOW()
		WHERE id = $5
		RETURNING id, external_uid, email, display_name, photo_url, bio, interests,
			date_of_birth, follower_count, following_count, post_count,
			created_at, last_login, updated_at
	`
	var interests interface{}
	if req.Interests != nil {
		interests = pq.Array(req.Interests)
	}

	var user model.User
	err := r.db.GetContext(ctx, &user, query,
		req.DisplayName, req.Bio, req.PhotoURL, interests, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

// IncrementFollowerCount adjusts follower_count inside the caller's
// transaction so the counter moves with the edge write.
func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET follower_count = follower_count + $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("update follower count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET following_count = following_count + $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("update following count: %w", err)
	}
	return nil
}
