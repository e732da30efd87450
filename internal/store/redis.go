package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the Store contract with a Redis server: blobs as plain keys
// with EX expiry, indexes as sorted sets.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, max(ttl, 0)).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) AddToIndex(ctx context.Context, indexKey, member string, score float64) error {
	if err := r.rdb.ZAdd(ctx, indexKey, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("redis zadd %s: %w", indexKey, err)
	}
	return nil
}

func (r *Redis) RemoveFromIndex(ctx context.Context, indexKey, member string) error {
	if err := r.rdb.ZRem(ctx, indexKey, member).Err(); err != nil {
		return fmt.Errorf("redis zrem %s: %w", indexKey, err)
	}
	return nil
}

func (r *Redis) RangeIndex(ctx context.Context, indexKey string) ([]string, error) {
	members, err := r.rdb.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange %s: %w", indexKey, err)
	}
	return members, nil
}

func (r *Redis) SetIndexTTL(ctx context.Context, indexKey string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Expire(ctx, indexKey, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire %s: %w", indexKey, err)
	}
	return nil
}
