package cache

import (
	"context"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// CacheMetrics tracks store performance
type CacheMetrics struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// MemoryStore keeps entries in process memory with no expiration and no
// janitor goroutine.
type MemoryStore struct {
	items  *gocache.Cache
	name   string
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

func NewMemoryStore(name string, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		items:  gocache.New(gocache.NoExpiration, 0),
		name:   name,
		logger: logger,
	}
}

func (s *MemoryStore) Get(_ context.Context, path string) (Entry, bool, error) {
	v, found := s.items.Get(path)
	if !found {
		s.misses.Add(1)
		s.logger.Debug("Cache miss", zap.String("cache", s.name), zap.String("key", path))
		return Entry{}, false, nil
	}
	e, ok := v.(Entry)
	if !ok {
		s.items.Delete(path)
		return Entry{}, false, ErrInvalidEntry
	}
	s.hits.Add(1)
	s.logger.Debug("Cache hit", zap.String("cache", s.name), zap.String("key", path), zap.Bool("stale", e.Stale))
	return e, true, nil
}

func (s *MemoryStore) Set(_ context.Context, path string, e Entry) error {
	s.items.Set(path, e, gocache.NoExpiration)
	s.sets.Add(1)
	s.logger.Debug("Cache set", zap.String("cache", s.name), zap.String("key", path), zap.Bool("stale", e.Stale))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.items.Delete(path)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	items := s.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *MemoryStore) Flush(_ context.Context) error {
	s.items.Flush()
	s.logger.Debug("Cache cleared", zap.String("cache", s.name))
	return nil
}

// Metrics returns current hit/miss/set counters.
func (s *MemoryStore) Metrics() CacheMetrics {
	return CacheMetrics{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Sets:   s.sets.Load(),
	}
}

// Size returns the number of entries held.
func (s *MemoryStore) Size() int {
	return s.items.ItemCount()
}
