package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "ledger:snapshot"

// ErrSnapshotMiss indicates no warm snapshot is available.
var ErrSnapshotMiss = errors.New("ledger: snapshot miss")

// SnapshotCache keeps the most recent reconciled ledger in Redis so the
// first view load after a warmup run is served without fetching sources.
// Reconciliation itself has no caching requirement; this is purely a warm
// start for the read path.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache builds a SnapshotCache. A zero TTL defaults to 5 minutes.
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Put stores the reconciled records.
func (c *SnapshotCache) Put(ctx context.Context, records []Record) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, snapshotKey, data, c.ttl).Err()
}

// Get returns the cached records, or ErrSnapshotMiss when absent.
func (c *SnapshotCache) Get(ctx context.Context) ([]Record, error) {
	if c == nil || c.rdb == nil {
		return nil, ErrSnapshotMiss
	}
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMiss
	}
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Invalidate drops the cached snapshot, typically after archive mutations.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, snapshotKey).Err()
}
