package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotKey       = "availability:snapshot"
	idempotencyPrefix = "request:"
	idempotencyTTL    = 24 * time.Hour
)

// RedisAdapter backs the advisory availability snapshot and request
// idempotency keys. Everything here is an optimization layer over the
// authoritative MySQL store.
type RedisAdapter struct {
	client      *redis.Client
	snapshotTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, snapshotTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, snapshotTTL: snapshotTTL}
}

func (r *RedisAdapter) Snapshot(ctx context.Context) (map[string]int, bool, error) {
	raw, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap map[string]int
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A snapshot that no longer parses is as good as no snapshot.
		return nil, false, nil
	}
	return snap, true, nil
}

func (r *RedisAdapter) StoreSnapshot(ctx context.Context, snap map[string]int) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, snapshotKey, raw, r.snapshotTTL).Err()
}

func (r *RedisAdapter) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, snapshotKey).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyPrefix+key, 1, idempotencyTTL).Result()
}
