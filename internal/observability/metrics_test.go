package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestLockCountersShareTheRegistry(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	jobs.Track("lock:check_overdue").End(nil)
	jobs.Track("lock:check_overdue").End(errors.New("boom"))
	jobs.AddLocks("Hard Locked", 2)
	jobs.AddNotifications("lock_notice", "queued", 1)

	body := scrape(t, metrics)
	require.Contains(t, body, `invoicelock_jobs_total{job="lock:check_overdue",status="success"} 1`)
	require.Contains(t, body, `invoicelock_jobs_total{job="lock:check_overdue",status="failure"} 1`)
	require.Contains(t, body, `invoicelock_jobs_failures_total{job="lock:check_overdue"} 1`)
	require.Contains(t, body, "invoicelock_customer_locks_total")
	require.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/customers/{id}/lock", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/customers/7/lock", nil).WithContext(context.Background()))
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `invoicelock_http_requests_total{code="418",route="/api/customers/{id}/lock"} 1`)
	require.Contains(t, body, `invoicelock_http_request_duration_seconds_bucket{route="/api/customers/{id}/lock"`)
}

func TestNilMetricsHandler(t *testing.T) {
	var metrics *Metrics
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
