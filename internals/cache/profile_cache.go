// file: internals/cache/profile_cache.go
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Clock lets tests drive expiry deterministically.
type Clock func() time.Time

// ProfileCache is a small TTL cache for request-gating lookups (e.g. the
// parent→student ownership edge checked on every payment initiation).
// Construct once in main and pass by reference; there is no package-level
// instance on purpose.
type ProfileCache[K comparable, V any] struct {
	ttl   time.Duration
	now   Clock
	store *lru.Cache[K, entry[V]]
}

type entry[V any] struct {
	value    V
	deadline time.Time
}

func New[K comparable, V any](size int, ttl time.Duration, now Clock) (*ProfileCache[K, V], error) {
	if now == nil {
		now = time.Now
	}
	store, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &ProfileCache[K, V]{ttl: ttl, now: now, store: store}, nil
}

func (c *ProfileCache[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(e.deadline) {
		c.store.Remove(key)
		return zero, false
	}
	return e.value, true
}

func (c *ProfileCache[K, V]) Set(key K, value V) {
	c.store.Add(key, entry[V]{value: value, deadline: c.now().Add(c.ttl)})
}

func (c *ProfileCache[K, V]) Invalidate(key K) {
	c.store.Remove(key)
}
