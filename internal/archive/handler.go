package archive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// SnapshotInvalidator drops any cached ledger view. Archive mutations change
// what the ledger shows, so a stale cached view must not outlive them.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Handler manages archive endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	snapshots SnapshotInvalidator
}

// NewHandler builds Handler instance. snapshots may be nil when no ledger
// cache is configured.
func NewHandler(logger *slog.Logger, service *Service, snapshots SnapshotInvalidator) *Handler {
	return &Handler{logger: logger, service: service, snapshots: snapshots}
}

// invalidateSnapshot is called after every successful mutation. Failures are
// logged, not surfaced: the mutation itself already committed.
func (h *Handler) invalidateSnapshot(ctx context.Context) {
	if h.snapshots == nil {
		return
	}
	if err := h.snapshots.Invalidate(ctx); err != nil {
		h.logger.Warn("invalidate ledger snapshot", slog.Any("error", err))
	}
}

// MountRoutes registers archive routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{entity}/bulk/{action}", h.bulkTransition)
	r.Post("/{entity}/{id}/{action}", h.transition)
	r.Post("/suppression/set", h.setSuppression)
	r.Post("/suppression/reset", h.resetSuppression)
}

// requesterRole reads the caller-supplied role assertion. Authentication is
// handled upstream; this layer only checks the asserted role string.
func requesterRole(r *http.Request) string {
	if role := r.Header.Get("X-Requester-Role"); role != "" {
		return role
	}
	return r.URL.Query().Get("role")
}

func requesterName(r *http.Request) string {
	if actor := r.Header.Get("X-Requester"); actor != "" {
		return actor
	}
	return "system"
}

// transition applies archive/restore/delete to one entity.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	entity, ok := ParseEntityType(chi.URLParam(r, "entity"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown entity type", httpx.ErrValidation))
		return
	}
	action, ok := ParseAction(chi.URLParam(r, "action"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown action", httpx.ErrValidation))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}

	result, err := h.service.Transition(r.Context(), TransitionInput{
		Entity: entity,
		ID:     id,
		Action: action,
		Role:   requesterRole(r),
		Actor:  requesterName(r),
	})
	if err != nil {
		h.logger.Warn("archive transition failed",
			slog.String("entity", string(entity)),
			slog.String("action", string(action)),
			slog.Int64("id", id),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r.Context())
	httpx.JSON(w, http.StatusOK, result)
}

// bulkTransition applies archive-all or restore-all for one entity type.
func (h *Handler) bulkTransition(w http.ResponseWriter, r *http.Request) {
	entity, ok := ParseEntityType(chi.URLParam(r, "entity"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown entity type", httpx.ErrValidation))
		return
	}
	action, ok := ParseAction(chi.URLParam(r, "action"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown action", httpx.ErrValidation))
		return
	}

	result, err := h.service.BulkTransition(r.Context(), entity, action, requesterRole(r), requesterName(r))
	if err != nil {
		h.logger.Warn("bulk archive transition failed",
			slog.String("entity", string(entity)),
			slog.String("action", string(action)),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r.Context())
	httpx.JSON(w, http.StatusOK, result)
}

// setSuppression marks a destructive local clear so refreshes stop merging
// remote data.
func (h *Handler) setSuppression(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkLocalClear(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]bool{"suppressed": true})
}

// resetSuppression manually lifts the suppression flag.
func (h *Handler) resetSuppression(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetSuppression(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.invalidateSnapshot(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]bool{"suppressed": false})
}
