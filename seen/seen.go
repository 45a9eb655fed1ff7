// Package seen tracks post identifiers that were already recorded.
package seen

import (
	"context"
	"log/slog"
)

// Set tracks the posts of one run. Add reports whether id was not seen
// before. Commit is called with the ids whose records were saved.
type Set interface {
	Add(ctx context.Context, id string) (bool, error)
	Commit(ctx context.Context, ids []string) error
}

// Store remembers saved posts between runs.
type Store interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) (bool, error)
}

// Memory is the per-run set. It is owned by a single collector.
type Memory struct {
	ids map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{ids: make(map[string]struct{})}
}

func (m *Memory) Add(_ context.Context, id string) (bool, error) {
	if _, ok := m.ids[id]; ok {
		return false, nil
	}
	m.ids[id] = struct{}{}
	return true, nil
}

func (m *Memory) Commit(context.Context, []string) error {
	return nil
}

func (m *Memory) Len() int {
	return len(m.ids)
}

// Layered consults the per-run set first and then an optional persistent
// store shared between runs. Posts reach the store only through Commit, so a
// batch that failed to save is collected again by the next run. Store errors
// on lookup are logged and the post is treated as new.
type Layered struct {
	logger *slog.Logger
	run    *Memory
	store  Store
}

func NewLayered(logger *slog.Logger, store Store) *Layered {
	return &Layered{
		logger: logger,
		run:    NewMemory(),
		store:  store,
	}
}

func (l *Layered) Add(ctx context.Context, id string) (bool, error) {
	added, _ := l.run.Add(ctx, id)
	if !added {
		return false, nil
	}
	if l.store == nil {
		return true, nil
	}

	seen, err := l.store.Contains(ctx, id)
	if err != nil {
		l.logger.Warn("seen store unavailable, treating post as new", "post_id", id, "error", err)
		return true, nil
	}
	return !seen, nil
}

// Commit records saved posts in the persistent store. It stops at the first
// store error; the remaining posts will be collected again by a later run.
func (l *Layered) Commit(ctx context.Context, ids []string) error {
	if l.store == nil {
		return nil
	}
	for _, id := range ids {
		if _, err := l.store.Add(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Len is the number of identifiers seen during this run.
func (l *Layered) Len() int {
	return l.run.Len()
}
