package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_SetGetExpire(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)

	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTL_SetRefreshesExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(50 * time.Second)
	c.Set("a", 2)
	now = now.Add(50 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTL_Delete(t *testing.T) {
	c := NewTTL[string, int](0)
	assert.Equal(t, defaultTTL, c.ttl)

	c.Set("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestMemoryTokens(t *testing.T) {
	ctx := context.Background()
	tokens := NewMemoryTokens(time.Minute)

	_, ok := tokens.GetUserID(ctx, "k")
	assert.False(t, ok)

	tokens.SetUserID(ctx, "k", 42)
	id, ok := tokens.GetUserID(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	tokens.Delete(ctx, "k")
	_, ok = tokens.GetUserID(ctx, "k")
	assert.False(t, ok)
}

func TestRedisTokens(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	tokens := NewRedisTokens(RedisConfig{Addr: addr}, time.Minute, nil)
	defer tokens.Close()

	require.NoError(t, tokens.Ping(ctx))

	tokens.SetUserID(ctx, "redis-test-key", 7)
	id, ok := tokens.GetUserID(ctx, "redis-test-key")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	tokens.Delete(ctx, "redis-test-key")
	_, ok = tokens.GetUserID(ctx, "redis-test-key")
	assert.False(t, ok)
}
