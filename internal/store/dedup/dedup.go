// Package dedup collapses concurrent identical GET requests into one
// network call and serves repeats from a short-TTL cache.
package dedup

import (
	"fmt"
	"sync"
	"time"

	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL matches the original 5-second request cache.
const DefaultTTL = 5 * time.Second

// Cache deduplicates fetches keyed by URL. Entries expire after the TTL.
// Writes invalidate by bumping a per-collection generation mixed into the
// cache key, so stale entries simply stop matching and age out; nothing is
// evicted in place.
type Cache struct {
	group   singleflight.Group
	results *expiremap.ExpireMap[string, any]

	mu   sync.Mutex
	gens map[string]uint64
}

// New creates a Cache with the given TTL; ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		results: expiremap.NewEx[string, any](ttl, ttl),
		gens:    map[string]uint64{},
	}
}

func (c *Cache) key(collection, url string) string {
	c.mu.Lock()
	gen := c.gens[collection]
	c.mu.Unlock()
	return fmt.Sprintf("%s@%d:%s", collection, gen, url)
}

// Do returns the cached result for url when fresh; otherwise it joins an
// in-flight fetch for the same url or starts one. Errors are delivered to
// every joined caller and leave no cache entry.
func (c *Cache) Do(collection, url string, fetch func() (any, error)) (any, error) {
	key := c.key(collection, url)

	if v, ok := c.results.Load(key); ok {
		return *v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A racing caller may have populated the cache while this call
		// waited on the singleflight lock.
		if v, ok := c.results.Load(key); ok {
			return *v, nil
		}
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		c.results.Set(key, result)
		return result, nil
	})
	return v, err
}

// Invalidate retires all cached entries for a collection. Called by
// adapters after any successful mutation of that collection.
func (c *Cache) Invalidate(collection string) {
	c.mu.Lock()
	c.gens[collection]++
	c.mu.Unlock()
}

// Len reports the number of live cache entries, expired or not yet culled
// included. Exposed for service status reporting.
func (c *Cache) Len() int {
	return c.results.Length()
}
