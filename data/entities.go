package data

import (
	"time"

	"github.com/google/uuid"
)

// SeenPost marks a post identifier as already recorded by some run.
type SeenPost struct {
	PostID string    `db:"post_id"`
	RunID  uuid.UUID `db:"run_id"`
	SeenAt time.Time `db:"seen_at"`
}
