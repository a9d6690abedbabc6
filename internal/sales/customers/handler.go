package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers customer routes under /api/customers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCustomerView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		// Any user who may save a sales document may check the customer lock.
		r.Use(h.rbac.RequireAny(shared.PermCustomerView, shared.PermSalesOrderCreate, shared.PermSalesOrderEdit,
			shared.PermQuotationCreate, shared.PermQuotationEdit))
		r.Get("/{id}/lock", h.Lock)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermCustomerCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermCustomerEdit))
		r.Patch("/{id}", h.Update)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListCustomersRequest{Search: q.Get("search")}
	if v := q.Get("locked"); v != "" {
		locked, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "locked must be true or false")
			return
		}
		req.Locked = &locked
	}
	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "is_active must be true or false")
			return
		}
		req.IsActive = &active
	}
	page, perPage := shared.PageParams(r)
	pagination := shared.NewPagination(page, perPage, 0)
	req.Limit = pagination.PerPage
	req.Offset = pagination.Offset()

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list customers", err)
		return
	}
	if items == nil {
		items = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"customers":  items,
		"pagination": shared.NewPagination(pagination.Page, pagination.PerPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	status, err := h.service.LockStatus(r.Context(), id)
	if err != nil {
		h.fail(w, "customer lock status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.ActorFromContext(r.Context())
	customer, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.fail(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := rbac.ActorFromContext(r.Context())
	customer, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		h.fail(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrForbidden) &&
		!errors.Is(err, httpx.ErrDuplicate) && !errors.Is(err, httpx.ErrValidation) {
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
