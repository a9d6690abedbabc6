package quotations

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	appshared "github.com/garystarr-surgi/invoice-lock/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers quotation routes under /api/sales/quotations.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(appshared.PermQuotationView)).Get("/{id}", h.Show)
	r.With(h.rbac.RequireAll(appshared.PermQuotationCreate)).Post("/", h.Create)
	r.With(h.rbac.RequireAll(appshared.PermQuotationEdit)).Put("/{id}", h.Update)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.ActorFromContext(r.Context())
	quote, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.fail(w, "create quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateQuotationRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, lock.ErrCustomerLocked):
		h.logger.Info("quotation refused for locked customer", slog.String("reason", err.Error()))
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrUnprocessable):
	default:
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}
