package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"clubhub/internal/event"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// SnapshotCache caches event availability snapshots in Redis with a short
// TTL. Misses and redis errors both fall through to the repository, so the
// store stays the single source of truth.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache builds a cache with the given TTL.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(eventID string) string {
	return "clubhub:event-snapshot:" + eventID
}

// Get returns a cached snapshot when present and decodable.
func (c *SnapshotCache) Get(ctx context.Context, eventID string) (event.Snapshot, bool) {
	raw, err := c.client.Get(ctx, snapshotKey(eventID)).Bytes()
	if err != nil {
		return event.Snapshot{}, false
	}
	var snap event.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return event.Snapshot{}, false
	}
	return snap, true
}

// Set stores a snapshot, best effort.
func (c *SnapshotCache) Set(ctx context.Context, snap event.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, snapshotKey(snap.EventID), raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot after a roster mutation.
func (c *SnapshotCache) Invalidate(ctx context.Context, eventID string) {
	_ = c.client.Del(ctx, snapshotKey(eventID)).Err()
}
