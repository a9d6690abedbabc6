package rbac

import (
	"slices"
	"strings"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Principal describes the authenticated actor.
type Principal interface {
	GetID() int64
	IsSuperUser() bool
}

// Actor is the authenticated user together with its roles and permissions.
type Actor struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	IsAdmin     bool     `json:"is_admin"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// GetID implements Principal.
func (a Actor) GetID() int64 { return a.ID }

// IsSuperUser reports whether the actor is the administrator.
func (a Actor) IsSuperUser() bool { return a.IsAdmin }

// HasRole matches role names exactly.
func (a Actor) HasRole(name string) bool {
	return slices.Contains(a.Roles, name)
}

// HasPermission reports whether the actor holds perm. The administrator holds
// every permission.
func (a Actor) HasPermission(perm string) bool {
	if a.IsAdmin {
		return true
	}
	return hasAnyPermission(a.Permissions, []string{strings.ToLower(perm)})
}

var _ Principal = Actor{}
