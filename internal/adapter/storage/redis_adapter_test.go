package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisAdapter_SnapshotRoundTrip(t *testing.T) {
	client := setupRedis(t)
	adapter := NewRedisAdapter(client, 2*time.Second)
	ctx := context.Background()

	client.Del(ctx, snapshotKey)

	if _, ok, err := adapter.Snapshot(ctx); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	want := map[string]int{"radio": 40, "sunroof": 0}
	if err := adapter.StoreSnapshot(ctx, want); err != nil {
		t.Fatalf("store snapshot: %v", err)
	}

	got, ok, err := adapter.Snapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got["radio"] != 40 || got["sunroof"] != 0 {
		t.Errorf("snapshot mismatch: %v", got)
	}

	if err := adapter.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := adapter.Snapshot(ctx); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestRedisAdapter_SnapshotExpires(t *testing.T) {
	client := setupRedis(t)
	adapter := NewRedisAdapter(client, 200*time.Millisecond)
	ctx := context.Background()

	if err := adapter.StoreSnapshot(ctx, map[string]int{"radio": 1}); err != nil {
		t.Fatalf("store snapshot: %v", err)
	}
	time.Sleep(400 * time.Millisecond)

	if _, ok, _ := adapter.Snapshot(ctx); ok {
		t.Error("expected snapshot to expire")
	}
}

func TestRedisAdapter_UnparsableSnapshotIsMiss(t *testing.T) {
	client := setupRedis(t)
	adapter := NewRedisAdapter(client, time.Minute)
	ctx := context.Background()

	client.Set(ctx, snapshotKey, "not-json", time.Minute)
	defer client.Del(ctx, snapshotKey)

	if _, ok, err := adapter.Snapshot(ctx); err != nil || ok {
		t.Fatalf("expected miss for corrupt payload, got ok=%v err=%v", ok, err)
	}
}

func TestRedisAdapter_IdempotencyClaimsOnce(t *testing.T) {
	client := setupRedis(t)
	adapter := NewRedisAdapter(client, time.Minute)
	ctx := context.Background()

	key := fmt.Sprintf("test:%d", time.Now().UnixNano())
	defer client.Del(ctx, idempotencyPrefix+key)

	first, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !first {
		t.Fatal("expected first claim to win")
	}

	second, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if second {
		t.Error("expected second claim to lose")
	}
}
