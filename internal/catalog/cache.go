package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/bluele/gcache"

	"cityride/internal/transit"
)

// CachedSearcher wraps a RouteSearcher with an in-memory LRU keyed by the
// normalized query. Failed lookups are not cached.
type CachedSearcher struct {
	inner RouteSearcher
	cache gcache.Cache
	ttl   time.Duration
}

func NewCachedSearcher(inner RouteSearcher, size int, ttl time.Duration) *CachedSearcher {
	if size <= 0 {
		size = 1
	}
	return &CachedSearcher{
		inner: inner,
		cache: gcache.New(size).LRU().Build(),
		ttl:   ttl,
	}
}

func (c *CachedSearcher) SearchRoutes(ctx context.Context, query string) ([]transit.Route, error) {
	key := normalize(query)
	if v, err := c.cache.Get(key); err == nil {
		return v.([]transit.Route), nil
	}
	routes, err := c.inner.SearchRoutes(ctx, query)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		_ = c.cache.SetWithExpire(key, routes, c.ttl)
	} else {
		_ = c.cache.Set(key, routes)
	}
	return routes, nil
}

// Purge drops every cached result, e.g. after the catalog was reloaded.
func (c *CachedSearcher) Purge() { c.cache.Purge() }

func normalize(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
