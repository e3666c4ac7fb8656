package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"swamptok/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
	query := `
		INSERT INTO post_comments (post_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, text, created_at
	`
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, postID, userID, text)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment keyed by (post, comment) so a comment id from a
// different post never matches. The bool reports whether a row went away.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, postID, commentID int64) (bool, error) {
	query := `DELETE FROM post_comments WHERE post_id = $1 AND id = $2`
	result, err := tx.ExecContext(ctx, query, postID, commentID)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListByPost returns comments oldest first, id as tiebreak for comments
// created in the same instant. Authors are attached by the service from a
// single batched summary lookup.
func (r *commentRepository) ListByPost(ctx context.Context, postID int64, limit int) ([]model.Comment, error) {
	query := `
		SELECT id, post_id, user_id, text, created_at
		FROM post_comments
		WHERE post_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments, query, postID, limit)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}
