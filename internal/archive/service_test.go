package archive

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
	"github.com/caresys-hbs/caresys/internal/shared"
)

type memoryRow struct {
	name       string
	archived   bool
	archivedAt *time.Time
	archivedBy string
}

type memoryStore struct {
	entity  EntityType
	rows    map[int64]*memoryRow
	failIDs map[int64]error
}

func newMemoryStore(entity EntityType) *memoryStore {
	return &memoryStore{entity: entity, rows: make(map[int64]*memoryRow), failIDs: make(map[int64]error)}
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*Entity, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &Entity{ID: id, Type: s.entity, Archived: row.archived, ArchivedAt: row.archivedAt, ArchivedBy: row.archivedBy}, nil
}

func (s *memoryStore) SetArchived(ctx context.Context, id int64, at time.Time, by string) error {
	if err, ok := s.failIDs[id]; ok {
		return err
	}
	row, ok := s.rows[id]
	if !ok {
		return errors.New("no rows")
	}
	row.archived = true
	row.archivedAt = &at
	row.archivedBy = by
	return nil
}

func (s *memoryStore) ClearArchived(ctx context.Context, id int64) error {
	if err, ok := s.failIDs[id]; ok {
		return err
	}
	row, ok := s.rows[id]
	if !ok {
		return errors.New("no rows")
	}
	row.archived = false
	row.archivedAt = nil
	row.archivedBy = ""
	return nil
}

func (s *memoryStore) DeleteIfArchived(ctx context.Context, id int64) (bool, error) {
	row, ok := s.rows[id]
	if !ok || !row.archived {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}

func (s *memoryStore) ListIDs(ctx context.Context, archived bool) ([]int64, error) {
	var ids []int64
	for id, row := range s.rows {
		if row.archived == archived {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids, nil
}

type memorySettings struct {
	suppressed bool
}

func (s *memorySettings) SuppressionFlag(ctx context.Context) (bool, error) {
	return s.suppressed, nil
}

func (s *memorySettings) SetSuppressionFlag(ctx context.Context, suppressed bool) error {
	s.suppressed = suppressed
	return nil
}

func newTestService(stores map[EntityType]Store, settings SettingsStore) *Service {
	return NewService(slog.New(slog.DiscardHandler), stores, settings, nil)
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityInvoice)
	store.rows[1] = &memoryRow{name: "INV-001"}
	svc := newTestService(map[EntityType]Store{EntityInvoice: store}, nil)

	res, err := svc.Transition(ctx, TransitionInput{Entity: EntityInvoice, ID: 1, Action: ActionArchive, Actor: "alex"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.Entity.Archived)
	require.NotNil(t, res.Entity.ArchivedAt)
	require.Equal(t, "alex", res.Entity.ArchivedBy)

	res, err = svc.Transition(ctx, TransitionInput{Entity: EntityInvoice, ID: 1, Action: ActionRestore})
	require.NoError(t, err)
	require.False(t, res.Entity.Archived)
	require.Nil(t, res.Entity.ArchivedAt)
	require.Empty(t, res.Entity.ArchivedBy)
	require.Equal(t, "INV-001", store.rows[1].name)
}

func TestArchiveAlreadyArchived(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityPayment)
	store.rows[7] = &memoryRow{archived: true}
	svc := newTestService(map[EntityType]Store{EntityPayment: store}, nil)

	_, err := svc.Transition(ctx, TransitionInput{Entity: EntityPayment, ID: 7, Action: ActionArchive})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestPermanentDeleteRequiresArchived(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityInvoice)
	store.rows[3] = &memoryRow{name: "INV-003"}
	svc := newTestService(map[EntityType]Store{EntityInvoice: store}, nil)

	_, err := svc.Transition(ctx, TransitionInput{Entity: EntityInvoice, ID: 3, Action: ActionDelete})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.Contains(t, store.rows, int64(3))

	_, err = svc.Transition(ctx, TransitionInput{Entity: EntityInvoice, ID: 3, Action: ActionArchive})
	require.NoError(t, err)
	res, err := svc.Transition(ctx, TransitionInput{Entity: EntityInvoice, ID: 3, Action: ActionDelete})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Nil(t, res.Entity)
	require.NotContains(t, store.rows, int64(3))
}

func TestPatientOperationsRequireAdminRole(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityPatient)
	store.rows[5] = &memoryRow{name: "Jordan Cruz"}
	svc := newTestService(map[EntityType]Store{EntityPatient: store}, nil)

	_, err := svc.Transition(ctx, TransitionInput{Entity: EntityPatient, ID: 5, Action: ActionArchive, Role: ""})
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.False(t, store.rows[5].archived)

	_, err = svc.Transition(ctx, TransitionInput{Entity: EntityPatient, ID: 5, Action: ActionArchive, Role: "ADMIN"})
	require.NoError(t, err)
	require.True(t, store.rows[5].archived)
}

func TestUnknownIDYieldsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[EntityType]Store{EntityUser: newMemoryStore(EntityUser)}, nil)

	_, err := svc.Transition(ctx, TransitionInput{Entity: EntityUser, ID: 99, Action: ActionArchive})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestBulkArchiveIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityPayment)
	for id := int64(1); id <= 4; id++ {
		store.rows[id] = &memoryRow{}
	}
	settings := &memorySettings{suppressed: true}
	svc := newTestService(map[EntityType]Store{EntityPayment: store}, settings)

	res, err := svc.BulkTransition(ctx, EntityPayment, ActionArchive, "", "alex")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 4, res.Count)
	require.False(t, settings.suppressed, "successful bulk op resets the suppression flag")

	res, err = svc.BulkTransition(ctx, EntityPayment, ActionArchive, "", "alex")
	require.NoError(t, err)
	require.Equal(t, 0, res.Count)
}

func TestBulkArchivePartialFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityInvoice)
	store.rows[1] = &memoryRow{}
	store.rows[2] = &memoryRow{}
	store.rows[3] = &memoryRow{}
	store.failIDs[2] = errors.New("row locked")
	settings := &memorySettings{suppressed: true}
	svc := newTestService(map[EntityType]Store{EntityInvoice: store}, settings)

	res, err := svc.BulkTransition(ctx, EntityInvoice, ActionArchive, "", "alex")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 2, res.Count)
	require.Contains(t, res.FirstError, "row locked")
	require.True(t, settings.suppressed, "partial failure keeps the suppression flag")
}

func TestBulkRestore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(EntityInvoice)
	store.rows[1] = &memoryRow{archived: true}
	store.rows[2] = &memoryRow{}
	svc := newTestService(map[EntityType]Store{EntityInvoice: store}, nil)

	res, err := svc.BulkTransition(ctx, EntityInvoice, ActionRestore, "", "alex")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.False(t, store.rows[1].archived)
}

func TestBulkRejectsDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[EntityType]Store{EntityInvoice: newMemoryStore(EntityInvoice)}, nil)

	_, err := svc.BulkTransition(ctx, EntityInvoice, ActionDelete, "", "alex")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSuppressionFlagLifecycle(t *testing.T) {
	ctx := context.Background()
	settings := &memorySettings{}
	svc := newTestService(map[EntityType]Store{}, settings)

	suppressed, err := svc.Suppressed(ctx)
	require.NoError(t, err)
	require.False(t, suppressed)

	require.NoError(t, svc.MarkLocalClear(ctx))
	suppressed, _ = svc.Suppressed(ctx)
	require.True(t, suppressed)

	require.NoError(t, svc.ResetSuppression(ctx))
	suppressed, _ = svc.Suppressed(ctx)
	require.False(t, suppressed)
}
