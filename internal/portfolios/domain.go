package portfolios

import "time"

// Portfolio groups related projects under one manager. ManagerID is the
// ownership fact fed to the access resolver.
type Portfolio struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"-"`
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	Description  string     `json:"description,omitempty"`
	Type         string     `json:"portfolio_type"`
	Status       string     `json:"status"`
	HealthStatus string     `json:"health_status"`
	Priority     string     `json:"priority"`
	ManagerID    string     `json:"portfolio_manager_id"`
	Sponsors     []string   `json:"sponsors"`
	Stakeholders []string   `json:"stakeholders"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	TotalBudget  float64    `json:"total_budget"`
	SpentAmount  float64    `json:"spent_amount"`
	ProjectIDs   []string   `json:"project_ids"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// AccessLevel is computed per request for the acting user and never
	// persisted.
	AccessLevel string `json:"access_level,omitempty"`
}

// Portfolio types.
const (
	TypeStrategic   = "strategic"
	TypeOperational = "operational"
	TypeInnovation  = "innovation"
	TypeMaintenance = "maintenance"
)

// Lifecycle statuses shared with projects.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)
