package seen

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps seen identifiers in one Redis set. The ttl applies to the
// whole set and is renewed on every Add, so identifiers expire together once
// no run has added to the set for ttl.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, addr, key string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}

	return &RedisStore{client: client, key: key, ttl: ttl}, nil
}

func (s *RedisStore) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis sismember")
	}
	return ok, nil
}

func (s *RedisStore) Add(ctx context.Context, id string) (bool, error) {
	n, err := s.client.SAdd(ctx, s.key, id).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis sadd")
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key, s.ttl).Err(); err != nil {
			return n == 1, errors.Wrap(err, "redis expire")
		}
	}

	return n == 1, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
