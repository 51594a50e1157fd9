package archive

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

func newTestHandler(svc *Service) (*Handler, *countingInvalidator, chi.Router) {
	inv := &countingInvalidator{}
	h := NewHandler(slog.New(slog.DiscardHandler), svc, inv)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return h, inv, r
}

func TestTransitionInvalidatesLedgerSnapshot(t *testing.T) {
	store := newMemoryStore(EntityInvoice)
	store.rows[1] = &memoryRow{name: "INV-001"}
	svc := newTestService(map[EntityType]Store{EntityInvoice: store}, nil)
	_, inv, r := newTestHandler(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoice/1/archive", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, inv.calls, "archive mutations must drop the cached ledger view")

	// a rejected transition leaves the cache alone
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoice/99/archive", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 1, inv.calls)
}

func TestSuppressionEndpointsInvalidateLedgerSnapshot(t *testing.T) {
	settings := &memorySettings{}
	svc := newTestService(map[EntityType]Store{}, settings)
	_, inv, r := newTestHandler(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/suppression/set", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, settings.suppressed)
	require.Equal(t, 1, inv.calls)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/suppression/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, settings.suppressed)
	require.Equal(t, 2, inv.calls)
}

func TestBulkTransitionInvalidatesLedgerSnapshot(t *testing.T) {
	store := newMemoryStore(EntityPayment)
	store.rows[1] = &memoryRow{name: "TRANS-001"}
	store.rows[2] = &memoryRow{name: "TRANS-002"}
	settings := &memorySettings{suppressed: true}
	svc := newTestService(map[EntityType]Store{EntityPayment: store}, settings)
	_, inv, r := newTestHandler(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment/bulk/archive", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, inv.calls)
}
