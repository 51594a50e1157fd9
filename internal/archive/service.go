// Package archive manages the Active/Archived/Deleted lifecycle shared by
// patients, users, invoices and payments, including the role gate on patient
// operations and the remote-merge suppression flag.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
	"github.com/caresys-hbs/caresys/internal/shared"
)

// Store is the per-entity-type persistence port. Each mutation is a single
// atomic update; atomicity is the storage collaborator's responsibility.
type Store interface {
	Get(ctx context.Context, id int64) (*Entity, error)
	SetArchived(ctx context.Context, id int64, at time.Time, by string) error
	ClearArchived(ctx context.Context, id int64) error
	// DeleteIfArchived removes the row only when it is archived and reports
	// whether a row was removed.
	DeleteIfArchived(ctx context.Context, id int64) (bool, error)
	ListIDs(ctx context.Context, archived bool) ([]int64, error)
}

// SettingsStore persists the suppression flag that blocks remote re-merge
// after a destructive local clear.
type SettingsStore interface {
	SuppressionFlag(ctx context.Context) (bool, error)
	SetSuppressionFlag(ctx context.Context, suppressed bool) error
}

// Auditor records archive mutations. Satisfied by shared.AuditLogger.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// TransitionInput describes one requested single-entity transition.
type TransitionInput struct {
	Entity EntityType
	ID     int64
	Action Action
	// Role is the caller-supplied role assertion; only checked for the
	// patient entity type.
	Role  string
	Actor string
}

// Service applies archive state transitions.
type Service struct {
	logger   *slog.Logger
	stores   map[EntityType]Store
	settings SettingsStore
	audit    Auditor
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, stores map[EntityType]Store, settings SettingsStore, audit Auditor) *Service {
	return &Service{logger: logger, stores: stores, settings: settings, audit: audit}
}

func (s *Service) store(entity EntityType) (Store, error) {
	st, ok := s.stores[entity]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity type %q", httpx.ErrValidation, entity)
	}
	return st, nil
}

func (s *Service) authorize(entity EntityType, role string) error {
	if entity != EntityPatient {
		return nil
	}
	if !shared.IsAdmin(role) {
		return fmt.Errorf("%w: patient archive operations require the admin role", httpx.ErrForbidden)
	}
	return nil
}

// Transition applies a single-entity transition. Failures leave the entity
// unchanged and are raised synchronously for the caller to handle.
func (s *Service) Transition(ctx context.Context, input TransitionInput) (Result, error) {
	st, err := s.store(input.Entity)
	if err != nil {
		return Result{}, err
	}
	if err := s.authorize(input.Entity, input.Role); err != nil {
		return Result{}, err
	}

	ent, err := st.Get(ctx, input.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %s %d", httpx.ErrNotFound, input.Entity, input.ID)
	}
	if err != nil {
		return Result{}, err
	}

	switch input.Action {
	case ActionArchive:
		if ent.Archived {
			return Result{}, fmt.Errorf("%w: %s %d is already archived", httpx.ErrValidation, input.Entity, input.ID)
		}
		now := time.Now().UTC()
		if err := st.SetArchived(ctx, input.ID, now, input.Actor); err != nil {
			return Result{}, err
		}
		ent.Archived = true
		ent.ArchivedAt = &now
		ent.ArchivedBy = input.Actor
	case ActionRestore:
		if !ent.Archived {
			return Result{}, fmt.Errorf("%w: %s %d is not archived", httpx.ErrValidation, input.Entity, input.ID)
		}
		if err := st.ClearArchived(ctx, input.ID); err != nil {
			return Result{}, err
		}
		ent.Archived = false
		ent.ArchivedAt = nil
		ent.ArchivedBy = ""
	case ActionDelete:
		// Deleted is terminal and only legal from Archived.
		if !ent.Archived {
			return Result{}, fmt.Errorf("%w: %s %d is not archived", httpx.ErrNotFound, input.Entity, input.ID)
		}
		deleted, err := st.DeleteIfArchived(ctx, input.ID)
		if err != nil {
			return Result{}, err
		}
		if !deleted {
			return Result{}, fmt.Errorf("%w: %s %d is not archived", httpx.ErrNotFound, input.Entity, input.ID)
		}
		ent = nil
	default:
		return Result{}, fmt.Errorf("%w: unknown action %q", httpx.ErrValidation, input.Action)
	}

	s.recordAudit(ctx, input.Entity, input.Action, strconv.FormatInt(input.ID, 10), input.Role, input.Actor)
	return Result{Success: true, Entity: ent}, nil
}

// BulkTransition applies archive or restore to every matching instance of
// one entity type. Re-invoking after full completion reports zero affected,
// never an error. Partial completion reports the affected count plus the
// first error encountered.
func (s *Service) BulkTransition(ctx context.Context, entity EntityType, action Action, role, actor string) (BulkResult, error) {
	st, err := s.store(entity)
	if err != nil {
		return BulkResult{}, err
	}
	if err := s.authorize(entity, role); err != nil {
		return BulkResult{}, err
	}
	if action != ActionArchive && action != ActionRestore {
		return BulkResult{}, fmt.Errorf("%w: bulk supports archive and restore only", httpx.ErrValidation)
	}

	ids, err := st.ListIDs(ctx, action == ActionRestore)
	if err != nil {
		return BulkResult{}, err
	}

	var (
		count    int
		firstErr error
	)
	now := time.Now().UTC()
	for _, id := range ids {
		var opErr error
		if action == ActionArchive {
			opErr = st.SetArchived(ctx, id, now, actor)
		} else {
			opErr = st.ClearArchived(ctx, id)
		}
		if opErr != nil {
			if firstErr == nil {
				firstErr = opErr
			}
			continue
		}
		count++
	}

	result := BulkResult{Success: firstErr == nil, Count: count}
	if firstErr != nil {
		result.FirstError = firstErr.Error()
		s.logger.Warn("bulk archive transition partial failure",
			slog.String("entity", string(entity)),
			slog.String("action", string(action)),
			slog.Int("affected", count),
			slog.Any("error", firstErr))
	}

	// A fully successful server-side bulk operation lifts the local
	// suppression flag so routine refreshes may merge remote data again.
	if firstErr == nil && s.settings != nil {
		if err := s.settings.SetSuppressionFlag(ctx, false); err != nil {
			s.logger.Warn("reset suppression flag", slog.Any("error", err))
		}
	}

	s.recordAudit(ctx, entity, action, "*", role, actor)
	return result, nil
}

// MarkLocalClear sets the suppression flag after a destructive local clear,
// keeping the cleared view empty until the flag is explicitly reset.
func (s *Service) MarkLocalClear(ctx context.Context) error {
	if s.settings == nil {
		return nil
	}
	return s.settings.SetSuppressionFlag(ctx, true)
}

// ResetSuppression manually clears the suppression flag.
func (s *Service) ResetSuppression(ctx context.Context) error {
	if s.settings == nil {
		return nil
	}
	return s.settings.SetSuppressionFlag(ctx, false)
}

// Suppressed reads the current suppression flag. A missing settings store
// reads as unsuppressed.
func (s *Service) Suppressed(ctx context.Context) (bool, error) {
	if s.settings == nil {
		return false, nil
	}
	return s.settings.SuppressionFlag(ctx)
}

func (s *Service) recordAudit(ctx context.Context, entity EntityType, action Action, entityID, role, actor string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   "archive." + string(action),
		Entity:   string(entity),
		EntityID: entityID,
		Meta:     map[string]any{"role": role},
		At:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("record archive audit", slog.Any("error", err))
	}
}
