package factor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/lca-cli/internal/model"
)

type cacheEntry struct {
	vec model.FactorVector
	err error
}

// DefaultFetchTimeout bounds a single upstream lookup made by the cache.
const DefaultFetchTimeout = 30 * time.Second

// Cache memoizes lookups against a Source. Concurrent misses for the same
// key collapse into a single upstream call. NotFound answers are cached;
// other errors are not.
//
// The shared upstream call is detached from any one caller's context and
// bounded by the fetch timeout instead, so a caller that gives up does not
// fail the others waiting on the same key.
type Cache struct {
	src          Source
	fetchTimeout time.Duration

	mu      sync.RWMutex
	entries map[model.LookupKey]cacheEntry
	group   singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	fallbacks atomic.Int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Fallbacks int64 `json:"fallbacks"`
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithFetchTimeout sets the deadline of each upstream lookup.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCache wraps src.
func NewCache(src Source, opts ...CacheOption) *Cache {
	c := &Cache{
		src:          src,
		fetchTimeout: DefaultFetchTimeout,
		entries:      make(map[model.LookupKey]cacheEntry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the vector for exactly key. It returns early with ctx's error
// when ctx ends before the shared lookup does.
func (c *Cache) Get(ctx context.Context, key model.LookupKey) (model.FactorVector, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return e.vec, e.err
	}
	c.misses.Add(1)

	ch := c.group.DoChan(string(key), func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return e.vec, e.err
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		vec, err := c.src.Factor(fctx, key)
		if err == nil || IsNotFound(err) {
			c.mu.Lock()
			c.entries[key] = cacheEntry{vec: vec, err: err}
			c.mu.Unlock()
		}
		return vec, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(model.FactorVector), nil
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "factor: waiting for %s", key)
	}
}

// Resolve looks up key and falls back to its global-location variant.
// The returned key is the one that answered.
func (c *Cache) Resolve(ctx context.Context, key model.LookupKey) (model.FactorVector, model.LookupKey, error) {
	v, err := c.Get(ctx, key)
	if err == nil || !IsNotFound(err) {
		return v, key, err
	}
	global := key.WithLocation("global")
	if global == key {
		return nil, key, err
	}
	v, err = c.Get(ctx, global)
	if err != nil {
		return nil, key, err
	}
	c.fallbacks.Add(1)
	return v, global, nil
}

// Prewarm resolves keys with bounded concurrency. Unknown keys are not an
// error; the first other failure is returned.
func (c *Cache) Prewarm(ctx context.Context, keys []model.LookupKey, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var resolved atomic.Int64
	for _, k := range keys {
		g.Go(func() error {
			_, _, err := c.Resolve(gctx, k)
			if err != nil && !IsNotFound(err) {
				return err
			}
			if err == nil {
				resolved.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	zap.L().Debug("factor: prewarm complete",
		zap.Int("keys", len(keys)),
		zap.Int64("resolved", resolved.Load()),
		zap.Error(err),
	)
	return err
}

// Stats returns current counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries:   n,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Fallbacks: c.fallbacks.Load(),
	}
}
