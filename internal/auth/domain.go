package auth

import "time"

// Account is the credential-bearing view of a user used by authentication.
type Account struct {
	ID           string
	TenantID     string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	Status       string
	LastLoginAt  time.Time
}

// Account statuses. Only active accounts may log in.
const (
	StatusActive              = "active"
	StatusInactive            = "inactive"
	StatusSuspended           = "suspended"
	StatusPendingVerification = "pending_verification"
)

// Tenant is the slice of the tenant record authentication needs.
type Tenant struct {
	ID     string
	Code   string
	Status string
}
