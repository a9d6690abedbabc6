package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
