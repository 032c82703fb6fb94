package users

import "time"

// User represents a tenant member. Role is immutable once assigned; the
// portfolio/project access lists are the explicit grants consumed by the
// access resolver.
type User struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"-"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Role            string    `json:"role"`
	Status          string    `json:"status"`
	JobTitle        string    `json:"job_title,omitempty"`
	Department      string    `json:"department,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	PortfolioAccess []string  `json:"portfolio_access"`
	ProjectAccess   []string  `json:"project_access"`
	LastLoginAt     time.Time `json:"last_login_at,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// User statuses.
const (
	StatusActive              = "active"
	StatusInactive            = "inactive"
	StatusSuspended           = "suspended"
	StatusPendingVerification = "pending_verification"
)
