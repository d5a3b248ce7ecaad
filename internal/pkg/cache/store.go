package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidEntry indicates a stored entry could not be decoded.
var ErrInvalidEntry = errors.New("invalid stored cache entry")

// Entry is the last successful result for a key. Data is nil when the
// response was an absence (for example a tolerated 401).
type Entry struct {
	Data      json.RawMessage `json:"data,omitempty"`
	Absent    bool            `json:"absent,omitempty"`
	Stale     bool            `json:"stale,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store holds entries by request path. Entries never expire on their own.
type Store interface {
	Get(ctx context.Context, path string) (Entry, bool, error)
	Set(ctx context.Context, path string, e Entry) error
	Delete(ctx context.Context, path string) error
	Keys(ctx context.Context) ([]string, error)
	// Flush removes every entry owned by this store.
	Flush(ctx context.Context) error
}
