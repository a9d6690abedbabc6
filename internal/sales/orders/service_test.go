package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/shared"
	appshared "github.com/garystarr-surgi/invoice-lock/internal/shared"
)

type memoryRepo struct {
	orders map[int64]SalesOrder
	seq    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[int64]SalesOrder)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*SalesOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r *memoryRepo) Create(_ context.Context, o SalesOrder) (int64, error) {
	o.ID = int64(len(r.orders) + 1)
	if o.Currency == "" {
		o.Currency = "USD"
	}
	r.orders[o.ID] = o
	return o.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, o SalesOrder) error {
	r.orders[o.ID] = o
	return nil
}

func (r *memoryRepo) ReplaceLines(_ context.Context, id int64, lines []shared.Line) error {
	o := r.orders[id]
	o.Lines = lines
	r.orders[id] = o
	return nil
}

func (r *memoryRepo) NextNumber(context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("SO-%06d", r.seq), nil
}

// lockedGuard refuses customers listed in locked.
type lockedGuard map[int64]*lock.LockedError

func (g lockedGuard) ValidateCustomerNotLocked(_ context.Context, doctype string, customerID int64) error {
	if e, ok := g[customerID]; ok {
		copied := *e
		copied.Doctype = doctype
		return &copied
	}
	return nil
}

func hardLocked() lockedGuard {
	return lockedGuard{7: {Customer: "Acme Dental", Status: "Hard Locked", DaysOverdue: 52}}
}

func createRequest(customerID int64) CreateSalesOrderRequest {
	return CreateSalesOrderRequest{
		CompanyID:  1,
		CustomerID: customerID,
		OrderDate:  "2025-06-30",
		Lines: []shared.LineRequest{
			{Description: "Aligners", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("450")},
		},
	}
}

func TestCreateRefusesLockedCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, hardLocked())

	_, err := svc.Create(context.Background(), createRequest(7), 3)
	require.ErrorIs(t, err, lock.ErrCustomerLocked)
	require.EqualError(t, err, "Cannot save Sales Order. Customer Acme Dental is Hard Locked due to invoices 52 days past due.")
	require.Empty(t, repo.orders)
}

func TestCreateForOpenCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, hardLocked())

	order, err := svc.Create(context.Background(), createRequest(8), 3)
	require.NoError(t, err)
	require.Equal(t, "SO-000001", order.DocNumber)
	require.Equal(t, SalesOrderStatusDraft, order.Status)
	require.Equal(t, "900.00", order.TotalAmount.StringFixed(2))
	require.Equal(t, int64(3), order.CreatedBy)
}

func TestUpdateChecksLockOfNewCustomer(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, hardLocked())
	order, err := svc.Create(context.Background(), createRequest(8), 3)
	require.NoError(t, err)

	locked := int64(7)
	_, err = svc.Update(context.Background(), order.ID, UpdateSalesOrderRequest{CustomerID: &locked})
	require.ErrorIs(t, err, lock.ErrCustomerLocked)
	require.Equal(t, int64(8), repo.orders[order.ID].CustomerID)
}

func TestUpdateRefusesNonDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, lockedGuard{})
	order, err := svc.Create(context.Background(), createRequest(8), 3)
	require.NoError(t, err)
	o := repo.orders[order.ID]
	o.Status = SalesOrderStatusConfirmed
	repo.orders[order.ID] = o

	notes := "rush"
	_, err = svc.Update(context.Background(), order.ID, UpdateSalesOrderRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateReplacesLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, lockedGuard{})
	order, err := svc.Create(context.Background(), createRequest(8), 3)
	require.NoError(t, err)

	lines := []shared.LineRequest{{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(120)}}
	updated, err := svc.Update(context.Background(), order.ID, UpdateSalesOrderRequest{Lines: &lines})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	require.Equal(t, "120.00", updated.TotalAmount.StringFixed(2))
}

func TestCreateHandlerReturnsCustomerLockedProblem(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	actor := rbac.Actor{ID: 3, Permissions: []string{appshared.PermSalesOrderCreate}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithActor(req.Context(), actor)))
		})
	})
	r.Route("/api/sales/orders", NewHandler(logger, NewService(newMemoryRepo(), hardLocked()), rbac.Middleware{}).MountRoutes)

	body := `{"company_id": 1, "customer_id": 7, "order_date": "2025-06-30",
		"lines": [{"description": "Aligners", "quantity": "1", "unit_price": "450"}]}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/sales/orders/", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Equal(t, "Customer Locked", problem.Title)
	require.Equal(t, "Cannot save Sales Order. Customer Acme Dental is Hard Locked due to invoices 52 days past due.", problem.Detail)
}
