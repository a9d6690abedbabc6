package customers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

func newTestRouter(svc *Service, actor rbac.Actor) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithActor(req.Context(), actor)))
		})
	})
	r.Route("/api/customers", NewHandler(logger, svc, rbac.Middleware{Logger: logger}).MountRoutes)
	return r
}

func TestPatchUnlockForbiddenReturnsProblem(t *testing.T) {
	repo := newMemoryRepo(lockedCustomer())
	actor := rbac.Actor{ID: 5, Permissions: []string{shared.PermCustomerEdit}}
	router := newTestRouter(NewService(repo, &fakeLocks{}, nil), actor)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/customers/1", strings.NewReader(`{"account_locked": false}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Equal(t, "Insufficient Permission", problem.Title)
	require.Contains(t, problem.Detail, "Only users with the Customer Unlocker role can unlock customers.")
}

func TestLockStatusEndpoint(t *testing.T) {
	tier := lock.TierSoft
	locks := &fakeLocks{status: lock.Status{Locked: true, Status: &tier, DaysOverdue: intPtr(42)}}
	actor := rbac.Actor{ID: 5, Permissions: []string{shared.PermSalesOrderCreate}}
	router := newTestRouter(NewService(newMemoryRepo(), locks, nil), actor)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/customers/9/lock", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, true, body["locked"])
	require.Equal(t, "Soft Locked", body["status"])
	require.Equal(t, float64(42), body["days_overdue"])
}

func TestListFiltersLocked(t *testing.T) {
	open := lockedCustomer()
	open.ID = 2
	open.Code = "CUST-002"
	open.AccountLocked = false
	repo := newMemoryRepo(lockedCustomer(), open)
	actor := rbac.Actor{ID: 5, Permissions: []string{shared.PermCustomerView}}
	router := newTestRouter(NewService(repo, nil, nil), actor)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/customers/?locked=true", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Customers  []Customer        `json:"customers"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Customers, 1)
	require.Equal(t, "CUST-001", body.Customers[0].Code)
	require.Equal(t, 1, body.Pagination.Total)
}

func TestCreateValidatesPayload(t *testing.T) {
	actor := rbac.Actor{ID: 5, Permissions: []string{shared.PermCustomerCreate}}
	router := newTestRouter(NewService(newMemoryRepo(), nil, nil), actor)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/customers/", strings.NewReader(`{"code": ""}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/customers/", strings.NewReader(`{"code": "C-1", "name": "Clinic"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreateRequiresPermission(t *testing.T) {
	actor := rbac.Actor{ID: 5, Permissions: []string{shared.PermCustomerView}}
	router := newTestRouter(NewService(newMemoryRepo(), nil, nil), actor)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/customers/", strings.NewReader(`{"code": "C-1", "name": "Clinic"}`)))
	require.Equal(t, http.StatusForbidden, rr.Code)
}
