package orders

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

// MountRoutes registers sales order routes under /api/sales/orders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(appshared.PermSalesOrderView)).Get("/{id}", h.Show)
	r.With(h.rbac.RequireAll(appshared.PermSalesOrderCreate)).Post("/", h.Create)
	r.With(h.rbac.RequireAll(appshared.PermSalesOrderEdit)).Put("/{id}", h.Update)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get sales order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSalesOrderRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.ActorFromContext(r.Context())
	order, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.fail(w, "create sales order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateSalesOrderRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update sales order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, lock.ErrCustomerLocked):
		h.logger.Info("sales order refused for locked customer", slog.String("reason", err.Error()))
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
