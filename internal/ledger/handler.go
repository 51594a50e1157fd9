package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// SuppressionReader exposes the persisted suppression flag to the read path.
type SuppressionReader interface {
	Suppressed(ctx context.Context) (bool, error)
}

// Handler serves the unified ledger view.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	suppression SuppressionReader
	snapshot    *SnapshotCache
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, suppression SuppressionReader, snapshot *SnapshotCache) *Handler {
	return &Handler{logger: logger, service: service, suppression: suppression, snapshot: snapshot}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger", h.getLedger)
}

type ledgerResponse struct {
	Records  []Record  `json:"records"`
	Warnings []Warning `json:"warnings,omitempty"`
	Cached   bool      `json:"cached,omitempty"`
}

// getLedger returns the reconciled ledger. A warm snapshot is served when
// present unless refresh=1 forces a reconciliation pass.
func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	refresh := r.URL.Query().Get("refresh") == "1"

	suppressed := false
	if h.suppression != nil {
		var err error
		suppressed, err = h.suppression.Suppressed(ctx)
		if err != nil {
			h.logger.Warn("read suppression flag", slog.Any("error", err))
		}
	}

	// The snapshot only ever holds full reconciled views. While suppression
	// is active it is neither served nor refreshed, so a locally cleared
	// view cannot be repopulated from a pre-clear snapshot.
	if !refresh && !suppressed {
		if records, err := h.snapshot.Get(ctx); err == nil {
			httpx.JSON(w, http.StatusOK, ledgerResponse{Records: records, Cached: true})
			return
		} else if !errors.Is(err, ErrSnapshotMiss) {
			h.logger.Warn("read ledger snapshot", slog.Any("error", err))
		}
	}

	records, warnings, err := h.service.Reconcile(ctx, ReconcileOptions{Suppressed: suppressed})
	if err != nil {
		h.logger.Error("reconcile ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if !suppressed {
		if err := h.snapshot.Put(ctx, records); err != nil {
			h.logger.Warn("store ledger snapshot", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusOK, ledgerResponse{Records: records, Warnings: warnings})
}
