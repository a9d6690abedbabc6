package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service orchestrates RBAC operations.
type Service struct {
	db db.Querier
}

// NewService constructs a Service backed by the provided pool.
func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// LoadActor resolves an active user with its roles and permissions.
func (s *Service) LoadActor(ctx context.Context, userID int64) (Actor, error) {
	var actor Actor
	err := s.db.QueryRow(ctx, `SELECT id, email, full_name, is_admin FROM users WHERE id = $1 AND is_active`, userID).
		Scan(&actor.ID, &actor.Email, &actor.FullName, &actor.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, ErrNotFound
		}
		return Actor{}, fmt.Errorf("rbac: load user %d: %w", userID, err)
	}
	roles, err := s.userRoles(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	perms, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	actor.Roles = roles
	actor.Permissions = perms
	return actor, nil
}

func (s *Service) userRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 ORDER BY r.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	return names, nil
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT p.name
FROM user_roles ur
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	return perms, nil
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Role])
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Permission])
}

// AssignRoleByName grants the named role to the user with email.
func (s *Service) AssignRoleByName(ctx context.Context, email, roleName string) error {
	tag, err := s.db.Exec(ctx, `INSERT INTO user_roles (user_id, role_id)
SELECT u.id, r.id FROM users u, roles r
WHERE lower(u.email) = lower($1) AND r.name = $2
ON CONFLICT DO NOTHING`, strings.TrimSpace(email), roleName)
	if err != nil {
		return fmt.Errorf("rbac: assign role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM user_roles ur JOIN users u ON u.id = ur.user_id JOIN roles r ON r.id = ur.role_id
WHERE lower(u.email) = lower($1) AND r.name = $2)`, strings.TrimSpace(email), roleName).Scan(&exists); err != nil {
			return fmt.Errorf("rbac: assign role: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}
