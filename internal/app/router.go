package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/garystarr-surgi/invoice-lock/internal/ar"
	"github.com/garystarr-surgi/invoice-lock/internal/auth"
	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/observability"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/customers"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/orders"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/quotations"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
	"github.com/garystarr-surgi/invoice-lock/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Pool           *pgxpool.Pool
	Redis          *redis.Client
	Metrics        *observability.Metrics

	AuthHandler        *auth.Handler
	PermissionsHandler *rbac.PermissionsHandler
	CustomerHandler    *customers.Handler
	OrderHandler       *orders.Handler
	QuotationHandler   *quotations.Handler
	LockHandler        *lock.Handler
	ARHandler          *ar.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", healthHandler(params))
	r.Handle("/metrics", params.Metrics.Handler())

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Route("/api", func(r chi.Router) {
			if params.PermissionsHandler != nil {
				r.Route("/rbac", params.PermissionsHandler.MountRoutes)
			}
			if params.CustomerHandler != nil {
				r.Route("/customers", params.CustomerHandler.MountRoutes)
			}
			if params.OrderHandler != nil {
				r.Route("/sales/orders", params.OrderHandler.MountRoutes)
			}
			if params.QuotationHandler != nil {
				r.Route("/sales/quotations", params.QuotationHandler.MountRoutes)
			}
			if params.LockHandler != nil {
				r.Route("/locks", params.LockHandler.MountRoutes)
			}
			if params.ARHandler != nil {
				r.Route("/ar", params.ARHandler.MountRoutes)
			}
		})
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})
	return r
}

func healthHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := map[string]string{}
		status := http.StatusOK
		if params.Pool != nil {
			checks["postgres"] = "ok"
			if err := params.Pool.Ping(ctx); err != nil {
				checks["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if params.Redis != nil {
			checks["redis"] = "ok"
			if err := params.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
			params.Logger.Warn("health check failed", slog.Any("checks", checks))
		}
		httpx.JSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}
