// Package store abstracts the key-value + sorted-set storage the session
// manager runs on. Implementations must be safe for concurrent use; no
// transactional guarantees are offered across a blob write and an index
// write, so callers have to tolerate an index briefly referencing a key
// whose blob has already expired.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: key not found")

type Store interface {
	// Put writes value under key. A ttl <= 0 means no expiration.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error

	// AddToIndex inserts member into a score-ordered set, updating the
	// score if the member already exists.
	AddToIndex(ctx context.Context, indexKey, member string, score float64) error
	RemoveFromIndex(ctx context.Context, indexKey, member string) error
	// RangeIndex returns all members ordered by ascending score.
	RangeIndex(ctx context.Context, indexKey string) ([]string, error)
	SetIndexTTL(ctx context.Context, indexKey string, ttl time.Duration) error
}
