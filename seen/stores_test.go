package seen

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests require running Redis and memcached instances.
// If they are not available, the tests will be skipped.

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	key := "threadharvest:test:" + uuid.NewString()

	store, err := NewRedisStore(ctx, "localhost:6379", key, time.Minute)
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}
	defer store.Close()
	defer store.client.Del(ctx, key)

	seen, err := store.Contains(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, seen)

	added, err := store.Add(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, added)

	seen, err = store.Contains(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := store.client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestMemcacheStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemcacheStore("localhost:11211", uuid.NewString(), 5*time.Second)
	if err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	id := uuid.NewString()
	defer store.client.Delete(memcacheKeyPrefix + id)

	seen, err := store.Contains(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	added, err := store.Add(ctx, id)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, id)
	require.NoError(t, err)
	assert.False(t, added)

	seen, err = store.Contains(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen)
}
