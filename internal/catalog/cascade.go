package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is the freshness window for cached search results.
const DefaultCacheTTL = 2 * time.Minute

// Cascade tries each backend in fixed order and returns the first success,
// normalized. Search never returns an error: total exhaustion degrades to an
// empty-but-valid result so a failing search stack cannot crash the page.
type Cascade struct {
	backends []SearchBackend
	cache    *resultCache
	sf       singleflight.Group
	logger   zerolog.Logger

	// refreshTimeout bounds a background revalidation fetch.
	refreshTimeout time.Duration
}

// NewCascade creates a cascade over the given backends, first is primary.
func NewCascade(cacheTTL time.Duration, backends ...SearchBackend) *Cascade {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Cascade{
		backends:       backends,
		cache:          newResultCache(cacheTTL),
		logger:         log.With().Str("component", "catalog_cascade").Logger(),
		refreshTimeout: 30 * time.Second,
	}
}

// Search serves the query from cache when fresh, serves stale data while
// revalidating in the background when expired, and otherwise walks the
// backend cascade.
func (c *Cascade) Search(ctx context.Context, q Query) *Result {
	q = q.Normalize()
	key := q.CacheKey()

	if q.NoCache {
		resultCacheEvents.WithLabelValues("bypass").Inc()
	} else if res, state := c.cache.get(key); state != cacheMiss {
		if state == cacheStale {
			resultCacheEvents.WithLabelValues("stale").Inc()
			go c.revalidate(key, q)
		} else {
			resultCacheEvents.WithLabelValues("hit").Inc()
		}
		return res
	} else {
		resultCacheEvents.WithLabelValues("miss").Inc()
	}

	res, ok := c.fetch(ctx, q)
	if ok {
		c.cache.put(key, res)
	}
	return res
}

// fetch walks the backends in order. Any error falls through to the next
// backend; only total exhaustion yields the empty result.
func (c *Cascade) fetch(ctx context.Context, q Query) (*Result, bool) {
	failed := 0
	for _, backend := range c.backends {
		start := time.Now()
		res, err := backend.Search(ctx, q)
		backendLatency.WithLabelValues(backend.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			backendRequests.WithLabelValues(backend.Name(), "error").Inc()
			c.logger.Warn().
				Err(err).
				Str("backend", backend.Name()).
				Str("query", q.CacheKey()).
				Msg("Search backend failed, falling back")
			failed++
			continue
		}

		backendRequests.WithLabelValues(backend.Name(), "ok").Inc()
		fallbackDepth.Observe(float64(failed))
		if res.Products == nil {
			res.Products = []Product{}
		}
		return res, true
	}

	fallbackDepth.Observe(float64(failed))
	c.logger.Error().Str("query", q.CacheKey()).Msg("All search backends failed, serving empty result")
	return EmptyResult(), false
}

// revalidate refreshes one cache entry in the background. Failures are
// swallowed: the stale entry keeps serving. Singleflight collapses
// concurrent revalidations of the same key.
func (c *Cascade) revalidate(key string, q Query) {
	c.sf.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		if res, ok := c.fetch(ctx, q); ok {
			c.cache.put(key, res)
		}
		return nil, nil
	})
}

// InvalidateCache drops all cached results.
func (c *Cascade) InvalidateCache() {
	c.cache.clear()
}

type cacheState int

const (
	cacheMiss cacheState = iota
	cacheHit
	cacheStale
)

type cacheEntry struct {
	result    *Result
	fetchedAt time.Time
}

// resultCache is a TTL map over normalized query keys. Entries past the TTL
// are still returned, flagged stale, so the caller can revalidate without
// blocking the read. Keys embed free-text search terms, so the map is
// swept on writes: entries stale past the eviction horizon are dropped
// rather than kept forever.
type resultCache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// evictionFactor sets the horizon after which a stale entry is no longer
// worth serving and gets dropped: evictionFactor * ttl since it was fetched.
const evictionFactor = 3

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (rc *resultCache) get(key string) (*Result, cacheState) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	entry, ok := rc.entries[key]
	if !ok {
		return nil, cacheMiss
	}
	if rc.now().Sub(entry.fetchedAt) > rc.ttl {
		return entry.result, cacheStale
	}
	return entry.result, cacheHit
}

func (rc *resultCache) put(key string, res *Result) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := rc.now()
	rc.entries[key] = cacheEntry{result: res, fetchedAt: now}

	// The map only grows through puts, so sweeping here, at most once per
	// TTL interval, is enough to bound it.
	if now.Sub(rc.lastSweep) >= rc.ttl {
		rc.sweep(now)
	}
}

// sweep drops entries past the eviction horizon. Caller holds the lock.
func (rc *resultCache) sweep(now time.Time) {
	cutoff := now.Add(-evictionFactor * rc.ttl)
	for key, entry := range rc.entries {
		if entry.fetchedAt.Before(cutoff) {
			resultCacheEvents.WithLabelValues("evict").Inc()
			delete(rc.entries, key)
		}
	}
	rc.lastSweep = now
}

func (rc *resultCache) clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries = make(map[string]cacheEntry)
}
