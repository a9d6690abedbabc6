package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// Handler exposes lock runs and reports over HTTP.
type Handler struct {
	logger       *slog.Logger
	runner       *Runner
	rbac         rbac.Middleware
	runRateLimit int
}

// NewHandler builds the lock handler. runRateLimit caps manual runs per user
// per minute.
func NewHandler(logger *slog.Logger, runner *Runner, rbac rbac.Middleware, runRateLimit int) *Handler {
	if runRateLimit <= 0 {
		runRateLimit = 3
	}
	return &Handler{logger: logger, runner: runner, rbac: rbac, runRateLimit: runRateLimit}
}

// MountRoutes registers lock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLockRun))
		r.Use(httprate.Limit(h.runRateLimit, time.Minute, httprate.WithKeyFuncs(actorKey)))
		r.Post("/run", h.run)
		r.Post("/digest", h.digest)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLockView, shared.PermLockExport))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLockExport))
		r.Get("/report.xlsx", h.exportReport)
	})
}

func actorKey(r *http.Request) (string, error) {
	if actor, ok := rbac.ActorFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%d", actor.ID), nil
	}
	return httprate.KeyByIP(r)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			httpx.Problem(w, http.StatusConflict, "Run In Progress", err.Error())
			return
		}
		h.logger.Error("manual lock run", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"summary": summary, "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) digest(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Service().Digest(r.Context())
	if err != nil {
		h.logger.Error("manual lock digest", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{"summary": summary, "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	customers, err := h.runner.Service().Report(r.Context())
	if err != nil {
		h.logger.Error("list locked customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": customers, "count": len(customers)})
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	svc := h.runner.Service()
	customers, err := svc.Report(r.Context())
	if err != nil {
		h.logger.Error("export locked customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	asOf := svc.Today()
	contentType := mime.TypeByExtension(".xlsx")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=locked-customers-%s.xlsx", asOf.Format(time.DateOnly)))
	if err := ExportXLSX(w, customers, asOf); err != nil {
		h.logger.Error("write locked customer workbook", slog.Any("error", err))
	}
}
