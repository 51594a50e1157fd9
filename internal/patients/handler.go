package patients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// Store defines data access methods the handler needs.
type Store interface {
	CreatePatient(ctx context.Context, input CreatePatientInput) (*Patient, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	ListPatients(ctx context.Context, archived bool, limit int) ([]Patient, error)
}

// Handler manages patient endpoints.
type Handler struct {
	logger    *slog.Logger
	store     Store
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store, validator: validator.New()}
}

// MountRoutes registers patient routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/patients", h.listPatients)
	r.Post("/patients", h.createPatient)
	r.Get("/patients/{id}", h.getPatient)
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var input CreatePatientInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	patient, err := h.store.CreatePatient(r.Context(), input)
	if err != nil {
		h.logger.Error("create patient", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, patient)
}

func (h *Handler) getPatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid patient id", httpx.ErrValidation))
		return
	}
	patient, err := h.store.GetPatient(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, patient)
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	patients, err := h.store.ListPatients(r.Context(), q.Get("archived") == "1", limit)
	if err != nil {
		h.logger.Error("list patients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, patients)
}
