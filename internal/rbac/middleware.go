package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
)

// ActorLoader resolves the actor for a user ID.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID int64) (Actor, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Loader ActorLoader
	Logger *slog.Logger
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// Authenticate rejects requests without a logged in user and stores the
// resolved Actor in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		userID, ok := m.currentUserID(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		actor, err := m.Loader.LoadActor(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			m.logError("rbac load actor", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(func(actor Actor) bool {
		return actor.IsSuperUser() || hasAnyPermission(actor.Permissions, normalized)
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(func(actor Actor) bool {
		return actor.IsSuperUser() || hasAllPermissions(actor.Permissions, normalized)
	})
}

func (m Middleware) require(allowed func(Actor) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := ActorFromContext(r.Context())
			if !allowed(actor) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	return shared.UserIDFromContext(r.Context())
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
