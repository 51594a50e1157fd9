package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewSnapshotCache(newTestRedis(t), time.Minute)

	_, err := cache.Get(ctx)
	require.ErrorIs(t, err, ErrSnapshotMiss)

	records := []Record{
		{Kind: KindInvoice, ID: "1", Number: "INV-001", PatientName: "Maria Santos", Amount: 2534.4, Timestamp: ts(10, 9)},
		{Kind: KindPayment, ID: "2", Number: "TRANS-001", PatientName: UnknownPatient, Amount: 100, Timestamp: ts(11, 9)},
	}
	require.NoError(t, cache.Put(ctx, records))

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, records, got)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.Get(ctx)
	require.ErrorIs(t, err, ErrSnapshotMiss)
}

func TestSnapshotCacheNilClient(t *testing.T) {
	ctx := context.Background()
	var cache *SnapshotCache
	require.NoError(t, cache.Put(ctx, nil))
	_, err := cache.Get(ctx)
	require.ErrorIs(t, err, ErrSnapshotMiss)
}
