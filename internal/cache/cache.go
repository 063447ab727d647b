package cache

import (
	"sync"
	"time"
)

// Cache is a small TTL map. Expired entries are dropped lazily on read.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]entry[V]
}

type entry[V any] struct {
	val V
	exp time.Time
}

// New returns a cache whose entries live for ttl unless set with SetTTL.
// A non-positive ttl falls back to five seconds.
func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache[V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]entry[V]),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if ok && !now.After(e.exp) {
		return e.val, true
	}
	if ok {
		c.mu.Lock()
		// re-check: a Set may have refreshed it since the read
		if cur, still := c.m[key]; still && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
	}

	var zero V
	return zero, false
}

func (c *Cache[V]) Set(key string, val V) {
	c.SetTTL(key, val, c.ttl)
}

func (c *Cache[V]) SetTTL(key string, val V, ttl time.Duration) {
	c.mu.Lock()
	c.m[key] = entry[V]{val: val, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache[V]) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
