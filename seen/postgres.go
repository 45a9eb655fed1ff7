package seen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kova98/threadharvest/data"
	"github.com/kova98/threadharvest/data/repos"
)

type PostgresStore struct {
	repo  *repos.SeenRepo
	runID uuid.UUID
}

func NewPostgresStore(repo *repos.SeenRepo, runID uuid.UUID) *PostgresStore {
	return &PostgresStore{repo: repo, runID: runID}
}

func (s *PostgresStore) Contains(ctx context.Context, id string) (bool, error) {
	return s.repo.IsSeen(ctx, id)
}

func (s *PostgresStore) Add(ctx context.Context, id string) (bool, error) {
	return s.repo.MarkSeen(ctx, data.SeenPost{
		PostID: id,
		RunID:  s.runID,
		SeenAt: time.Now().UTC(),
	})
}
