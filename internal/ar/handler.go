package ar

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// Handler exposes receivables over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds the AR handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers AR routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFinanceARView))
		r.Get("/aging", h.aging)
		r.Get("/overdue", h.overdue)
		r.Get("/invoices/{id}", h.getInvoice)
		r.Post("/invoices", h.createInvoice)
		r.Post("/invoices/{id}/post", h.postInvoice)
		r.Post("/invoices/{id}/payments", h.registerPayment)
	})
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bucket, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		h.fail(w, "ar aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) overdue(w http.ResponseWriter, r *http.Request) {
	cutoff, err := parseDate(r.URL.Query().Get("due_before"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if cutoff.IsZero() {
		cutoff = time.Now()
	}
	invoices, err := h.service.ListOverdue(r.Context(), cutoff)
	if err != nil {
		h.fail(w, "ar overdue", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "ar get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var input CreateInvoiceInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.fail(w, "ar create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) postInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	inv, err := h.service.PostInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "ar post invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var input PaymentInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.RegisterPayment(r.Context(), id, input)
	if err != nil {
		h.fail(w, "ar register payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error(msg, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, &httpx.ValidationError{Details: map[string]string{"date": "expected YYYY-MM-DD"}}
	}
	return t, nil
}
