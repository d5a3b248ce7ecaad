// Package cache is a read-through cache of API query results. Entries stay
// fresh until a mutation invalidates or clears them; nothing expires by time.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-templui-session/internal/app/observability/metrics"
)

// QueryFunc loads the value for key. A nil result with a nil error is an
// absence and is cached as such.
type QueryFunc func(ctx context.Context, key Key) (json.RawMessage, error)

// MutationFunc performs a write against the API.
type MutationFunc func(ctx context.Context) (json.RawMessage, error)

type Options struct {
	Store   Store
	Logger  *zap.Logger
	Metrics *metrics.AppMetrics
	// QueryRetry and MutationRetry are extra attempts after a failure. Both
	// default to zero.
	QueryRetry    uint
	MutationRetry uint
	RetryBackoff  time.Duration
}

// QueryClient owns one cache. It is safe for concurrent use; consumers change
// it only through Invalidate, Clear and mutation callbacks.
type QueryClient struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.AppMetrics
	opts    Options
	group   singleflight.Group

	// mu serializes generation bumps with result writes, so a fetch that
	// began before an invalidation can never store its result after it.
	mu          sync.Mutex
	generations map[string]uint64
	// waiting counts callers blocked in Fetch, loading counts running loads.
	// A load outlives a caller that gave up on it.
	waiting map[string]int
	loading map[string]int
}

func NewQueryClient(opts Options) *QueryClient {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore("queries", opts.Logger)
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 200 * time.Millisecond
	}
	return &QueryClient{
		store:       opts.Store,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		opts:        opts,
		generations: make(map[string]uint64),
		waiting:     make(map[string]int),
		loading:     make(map[string]int),
	}
}

// Fetch returns the cached value for key, loading it with fn when there is
// no entry or the entry is stale. Concurrent fetches of one key share a
// single call to fn.
func (c *QueryClient) Fetch(ctx context.Context, key Key, fn QueryFunc) (json.RawMessage, error) {
	path := key.Path()

	entry, found, err := c.store.Get(ctx, path)
	if err != nil {
		c.logger.Warn("Query cache read failed, refetching", zap.String("key", path), zap.Error(err))
	}
	if found && !entry.Stale {
		c.metrics.RecordCacheLookup(ctx, "hit")
		return entry.Data, nil
	}
	if found {
		c.metrics.RecordCacheLookup(ctx, "stale")
	} else {
		c.metrics.RecordCacheLookup(ctx, "miss")
	}

	gen := c.beginFetch(path)
	defer c.done(c.waiting, path)

	flightKey := path + "#" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.track(c.loading, path)
		defer c.done(c.loading, path)

		fctx := context.WithoutCancel(ctx)
		data, err := retry(fctx, c.opts.QueryRetry, c.opts.RetryBackoff, func() (json.RawMessage, error) {
			return fn(fctx, key)
		})
		if err != nil {
			c.logger.Debug("Query failed", zap.String("key", path), zap.Error(err))
			return nil, err
		}
		c.storeResult(fctx, path, gen, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data, _ := res.Val.(json.RawMessage)
		return data, nil
	}
}

func (c *QueryClient) storeResult(ctx context.Context, path string, gen uint64, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[path] != gen {
		c.logger.Debug("Dropping result fetched before invalidation", zap.String("key", path))
		return
	}
	e := Entry{Data: data, Absent: data == nil, UpdatedAt: time.Now()}
	if err := c.store.Set(ctx, path, e); err != nil {
		c.logger.Warn("Query cache write failed", zap.String("key", path), zap.Error(err))
	}
}

// beginFetch registers path so Invalidate and Clear bump its generation
// even if it has never been invalidated before, and returns the generation
// the load will be stored under.
func (c *QueryClient) beginFetch(path string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiting[path]++
	g := c.generations[path]
	c.generations[path] = g
	return g
}

func (c *QueryClient) track(counts map[string]int, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts[path]++
}

func (c *QueryClient) done(counts map[string]int, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if counts[path] <= 1 {
		delete(counts, path)
		return
	}
	counts[path]--
}

// IsFetching reports whether a load for key is in flight, including one
// whose callers have all given up waiting.
func (c *QueryClient) IsFetching(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := key.Path()
	return c.waiting[p] > 0 || c.loading[p] > 0
}

// Peek returns the cached entry for key without loading it.
func (c *QueryClient) Peek(ctx context.Context, key Key) (Entry, bool) {
	e, found, err := c.store.Get(ctx, key.Path())
	if err != nil {
		c.logger.Warn("Query cache read failed", zap.String("key", key.Path()), zap.Error(err))
		return Entry{}, false
	}
	return e, found
}

// Invalidate marks every entry at or below prefix stale so the next Fetch
// reloads it. In-flight loads for those keys will not store their results.
func (c *QueryClient) Invalidate(ctx context.Context, prefix Key) error {
	p := prefix.Path()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[p]++
	for path := range c.generations {
		if path != p && matchesPrefix(path, p) {
			c.generations[path]++
		}
	}

	paths, err := c.store.Keys(ctx)
	if err != nil {
		return err
	}
	marked := 0
	for _, path := range paths {
		if !matchesPrefix(path, p) {
			continue
		}
		e, found, err := c.store.Get(ctx, path)
		if err != nil || !found {
			continue
		}
		e.Stale = true
		if err := c.store.Set(ctx, path, e); err != nil {
			return err
		}
		marked++
	}
	c.logger.Debug("Queries invalidated", zap.String("prefix", p), zap.Int("entries", marked))
	return nil
}

// Clear drops every entry. In-flight loads will not store their results.
func (c *QueryClient) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.generations {
		c.generations[path]++
	}
	if err := c.store.Flush(ctx); err != nil {
		return err
	}
	c.logger.Debug("Query cache cleared")
	return nil
}

// Mutate runs fn and, once it has succeeded, onSuccess. Mutations are not
// retried unless MutationRetry is set.
func (c *QueryClient) Mutate(ctx context.Context, fn MutationFunc, onSuccess func(context.Context, json.RawMessage) error) (json.RawMessage, error) {
	data, err := retry(ctx, c.opts.MutationRetry, c.opts.RetryBackoff, func() (json.RawMessage, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	if onSuccess != nil {
		if err := onSuccess(ctx, data); err != nil {
			return data, err
		}
	}
	return data, nil
}
