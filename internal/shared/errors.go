package shared

import (
	"errors"
	"fmt"

	"github.com/garystarr-surgi/invoice-lock/internal/platform/httpx"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = fmt.Errorf("not found: %w", httpx.ErrNotFound)
	// ErrInvalidCredentials is returned for unknown users, inactive users and
	// wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
