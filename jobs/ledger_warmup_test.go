package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/caresys-hbs/caresys/internal/ledger"
)

type stubSuppression struct {
	suppressed bool
}

func (s *stubSuppression) Suppressed(ctx context.Context) (bool, error) {
	return s.suppressed, nil
}

func newTestSnapshot(t *testing.T) *ledger.SnapshotCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return ledger.NewSnapshotCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
}

func TestLedgerWarmupStoresSnapshot(t *testing.T) {
	ctx := context.Background()
	snapshot := newTestSnapshot(t)
	svc := ledger.NewService(slog.New(slog.DiscardHandler), nil, time.Second, nil)
	job := NewLedgerWarmupJob(svc, &stubSuppression{}, snapshot, slog.New(slog.DiscardHandler), nil)

	task, err := NewLedgerWarmupTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))

	records, err := snapshot.Get(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestLedgerWarmupSuppressedLeavesSnapshotAlone(t *testing.T) {
	ctx := context.Background()
	snapshot := newTestSnapshot(t)
	svc := ledger.NewService(slog.New(slog.DiscardHandler), nil, time.Second, nil)
	job := NewLedgerWarmupJob(svc, &stubSuppression{suppressed: true}, snapshot, slog.New(slog.DiscardHandler), nil)

	stale := []ledger.Record{{Kind: ledger.KindInvoice, ID: "1", Number: "INV-001", Amount: 100}}
	require.NoError(t, snapshot.Put(ctx, stale))

	task, err := NewLedgerWarmupTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))

	// the suppressed run must not overwrite the cache with an empty view;
	// the read path skips it until suppression is lifted
	got, err := snapshot.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, stale, got)
}
