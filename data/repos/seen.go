package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kova98/threadharvest/data"
)

type SeenRepo struct {
	db *sqlx.DB
}

func NewSeenRepo(db *sqlx.DB) *SeenRepo {
	return &SeenRepo{db}
}

// MarkSeen inserts the post and reports whether it was not there before.
func (r *SeenRepo) MarkSeen(ctx context.Context, post data.SeenPost) (bool, error) {
	query := `
		INSERT INTO seen_posts (post_id, run_id, seen_at)
		VALUES (:post_id, :run_id, :seen_at)
		ON CONFLICT (post_id) DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark seen rows affected: %w", err)
	}

	return n == 1, nil
}

func (r *SeenRepo) IsSeen(ctx context.Context, postID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM seen_posts WHERE post_id = $1)`, postID)
	if err != nil {
		return false, fmt.Errorf("is seen: %w", err)
	}
	return exists, nil
}
