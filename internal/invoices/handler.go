package invoices

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caresys-hbs/caresys/internal/billing"
	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// Handler manages invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.listInvoices)
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices/{id}", h.getInvoice)
	r.Post("/billing/preview", h.previewTotals)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var input CreateInvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid invoice id", httpx.ErrValidation))
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var patientID int64
	if v := q.Get("patient_id"); v != "" {
		patientID, _ = strconv.ParseInt(v, 10, 64)
	}
	invoices, err := h.service.ListInvoices(r.Context(), ListInvoicesRequest{
		Status:    Status(q.Get("status")),
		PatientID: patientID,
		Archived:  q.Get("archived") == "1",
	})
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

type previewRequest struct {
	Items         []CreateItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountKind  string            `json:"discount_kind" validate:"omitempty,oneof=none percentage fixed code"`
	DiscountValue float64           `json:"discount_value" validate:"gte=0"`
	DiscountCode  string            `json:"discount_code"`
}

// previewTotals computes totals for an unsaved item set so the UI can show
// the breakdown before the invoice is created.
func (h *Handler) previewTotals(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	items := make([]billing.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = billing.LineItem{Description: it.Description, Category: it.Category, Quantity: it.Quantity, UnitRate: it.UnitRate}
	}
	spec := billing.DiscountSpec{
		Kind:  billing.DiscountKind(req.DiscountKind),
		Value: req.DiscountValue,
		Code:  req.DiscountCode,
	}
	if spec.Kind == "" {
		spec.Kind = billing.DiscountNone
	}
	if spec.Kind == billing.DiscountCode && h.service.discounts != nil {
		resolved, err := h.service.discounts.Resolve(r.Context(), spec.Code)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		spec.Resolved = resolved
	}

	httpx.JSON(w, http.StatusOK, billing.ComputeTotals(items, spec))
}
