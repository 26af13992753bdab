// internal/market/ttlcache.go
package market

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the entries of a TTLCache.
const DefaultCacheSize = 4096

// TTLCache is a size-bounded expiring cache. Concurrent loads of the same key
// are collapsed into one call.
type TTLCache[V any] struct {
	items *expirable.LRU[string, V]
	group singleflight.Group
}

// NewTTLCache creates a cache of at most size entries that live for ttl.
// size <= 0 uses DefaultCacheSize.
func NewTTLCache[V any](size int, ttl time.Duration) *TTLCache[V] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &TTLCache[V]{
		items: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns a fresh entry.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	return c.items.Get(key)
}

// Set stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *TTLCache[V]) Set(key string, value V) {
	c.items.Add(key, value)
}

// Len returns the number of stored entries.
func (c *TTLCache[V]) Len() int {
	return c.items.Len()
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers. Successful results are cached; errors are not.
func (c *TTLCache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
