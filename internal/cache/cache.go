package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const defaultTTL = 5 * time.Second

// TTL is an in-process map whose entries expire a fixed duration after they
// were last written. Expired entries are dropped lazily on read.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]ttlEntry[V]
}

type ttlEntry[V any] struct {
	val       V
	expiresAt time.Time
}

func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &TTL[K, V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]ttlEntry[V]),
	}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		return e.val, true
	}

	if ok {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	var zero V
	return zero, false
}

func (c *TTL[K, V]) Set(key K, val V) {
	c.mu.Lock()
	c.entries[key] = ttlEntry[V]{val: val, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TokenKey namespaces token keys so redis can be shared with other apps.
func TokenKey(key string) string {
	return "recipehub:token:v1:" + key
}

// MemoryTokens is the in-process token cache used when no redis is configured.
type MemoryTokens struct {
	c *TTL[string, int64]
}

func NewMemoryTokens(ttl time.Duration) *MemoryTokens {
	return &MemoryTokens{c: NewTTL[string, int64](ttl)}
}

func (t *MemoryTokens) GetUserID(_ context.Context, key string) (int64, bool) {
	return t.c.Get(key)
}

func (t *MemoryTokens) SetUserID(_ context.Context, key string, userID int64) {
	t.c.Set(key, userID)
}

func (t *MemoryTokens) Delete(_ context.Context, key string) {
	t.c.Delete(key)
}

func (t *MemoryTokens) Ping(context.Context) error { return nil }

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
