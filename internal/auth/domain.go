package auth

import "time"

// User represents a stored user account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	DisplayName  string
	TenantKey    string
	IsRoot       bool
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
