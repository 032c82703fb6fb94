package tenants

import "time"

// Tenant is an isolated customer organization. Every resource row carries
// the tenant id and queries never cross it.
type Tenant struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	ContactEmail string    `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tenant statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)
