package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oni-tag/game-backend/internal/store"
)

const userKeyPrefix = "stats:user:"

// KV stores one stats blob per user id in the session store, with no TTL.
// This mirrors the original persisted layout and needs no extra
// infrastructure, at the cost of read-modify-write races under concurrent
// session ends (acceptable: stats are advisory).
type KV struct {
	store store.Store
	now   func() time.Time
}

func NewKV(s store.Store) *KV {
	return &KV{store: s, now: time.Now}
}

func (k *KV) Apply(ctx context.Context, userID string, delta Delta) error {
	key := userKeyPrefix + userID

	var ps PlayerStats
	raw, err := k.store.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		ps = PlayerStats{UserID: userID}
	case err != nil:
		return fmt.Errorf("load stats for %s: %w", userID, err)
	default:
		if err := json.Unmarshal(raw, &ps); err != nil {
			return fmt.Errorf("decode stats for %s: %w", userID, err)
		}
	}

	ps.apply(delta, k.now())

	out, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("encode stats for %s: %w", userID, err)
	}
	return k.store.Put(ctx, key, out, 0)
}

func (k *KV) Get(ctx context.Context, userID string) (PlayerStats, error) {
	raw, err := k.store.Get(ctx, userKeyPrefix+userID)
	if err != nil {
		return PlayerStats{}, err
	}
	var ps PlayerStats
	if err := json.Unmarshal(raw, &ps); err != nil {
		return PlayerStats{}, fmt.Errorf("decode stats for %s: %w", userID, err)
	}
	return ps, nil
}
