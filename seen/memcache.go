package seen

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

const (
	memcacheKeyPrefix = "threadharvest:seen:"

	// memcached reads expirations above this as absolute Unix times.
	maxRelativeExpiration = 30 * 24 * time.Hour
)

// MemcacheStore keeps one key per seen identifier. Entries expire after ttl,
// or never when ttl is zero.
type MemcacheStore struct {
	client *memcache.Client
	value  []byte
	ttl    time.Duration
}

func NewMemcacheStore(addr, runID string, ttl time.Duration) (*MemcacheStore, error) {
	client := memcache.New(addr)
	if err := client.Ping(); err != nil {
		return nil, errors.Wrapf(err, "ping memcache at %s", addr)
	}
	return &MemcacheStore{client: client, value: []byte(runID), ttl: ttl}, nil
}

func (s *MemcacheStore) Contains(_ context.Context, id string) (bool, error) {
	_, err := s.client.Get(memcacheKeyPrefix + id)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "memcache get")
	}
	return true, nil
}

func (s *MemcacheStore) Add(_ context.Context, id string) (bool, error) {
	err := s.client.Add(&memcache.Item{
		Key:        memcacheKeyPrefix + id,
		Value:      s.value,
		Expiration: expiration(s.ttl, time.Now()),
	})
	if errors.Is(err, memcache.ErrNotStored) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "memcache add")
	}
	return true, nil
}

func expiration(ttl time.Duration, now time.Time) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > maxRelativeExpiration {
		return int32(now.Add(ttl).Unix())
	}
	return int32(ttl.Seconds())
}
