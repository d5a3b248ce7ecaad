package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisStore keeps entries as JSON strings under "<prefix>:<path>". Several
// stores may share one Redis as long as their prefixes differ.
type RedisStore struct {
	rc     goredis.UniversalClient
	prefix string
}

func NewRedisStore(rc goredis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{rc: rc, prefix: prefix}
}

func (s *RedisStore) key(path string) string {
	return fmt.Sprintf("%s:%s", s.prefix, path)
}

func (s *RedisStore) Get(ctx context.Context, path string) (Entry, bool, error) {
	val, err := s.rc.Get(ctx, s.key(path)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry from Redis: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return Entry{}, false, fmt.Errorf("failed to unmarshal cache entry (error: %v): %w", err, ErrInvalidEntry)
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, e Entry) error {
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := s.rc.Set(ctx, s.key(path), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry to Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	return s.rc.Del(ctx, s.key(path)).Err()
}

func (s *RedisStore) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rc.Scan(ctx, 0, s.prefix+":*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return keys, nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	raw, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(raw))
	for _, k := range raw {
		paths = append(paths, strings.TrimPrefix(k, s.prefix+":"))
	}
	return paths, nil
}

func (s *RedisStore) Flush(ctx context.Context) error {
	keys, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := s.rc.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to flush cache keys: %w", err)
		}
	}
	return nil
}
