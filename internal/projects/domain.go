package projects

import "time"

// Project is the central delivery unit. ManagerID is the ownership fact
// fed to the access resolver; PortfolioID links into the portfolio tree.
type Project struct {
	ID           string      `json:"id"`
	TenantID     string      `json:"-"`
	Name         string      `json:"name"`
	Code         string      `json:"code"`
	Description  string      `json:"description,omitempty"`
	Type         string      `json:"project_type"`
	Methodology  string      `json:"methodology"`
	Status       string      `json:"status"`
	HealthStatus string      `json:"health_status"`
	Priority     string      `json:"priority"`
	PortfolioID  string      `json:"portfolio_id,omitempty"`
	ManagerID    string      `json:"project_manager_id"`
	SponsorID    string      `json:"sponsor_id,omitempty"`
	TeamMembers  []string    `json:"team_members"`
	PlannedStart *time.Time  `json:"planned_start_date,omitempty"`
	PlannedEnd   *time.Time  `json:"planned_end_date,omitempty"`
	ActualStart  *time.Time  `json:"actual_start_date,omitempty"`
	ActualEnd    *time.Time  `json:"actual_end_date,omitempty"`
	PercentDone  float64     `json:"percent_complete"`
	TotalBudget  float64     `json:"total_budget"`
	SpentAmount  float64     `json:"spent_amount"`
	Milestones   []Milestone `json:"milestones"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// AccessLevel is computed per request for the acting user and never
	// persisted.
	AccessLevel string `json:"access_level,omitempty"`
}

// Milestone is a dated checkpoint stored inline with the project.
type Milestone struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	PlannedDate  *time.Time `json:"planned_date,omitempty"`
	ActualDate   *time.Time `json:"actual_date,omitempty"`
	Status       string     `json:"status"`
	Deliverables []string   `json:"deliverables,omitempty"`
}

// Project types.
const (
	TypeSoftware       = "software_development"
	TypeInfrastructure = "infrastructure"
	TypeResearch       = "research"
	TypeMarketing      = "marketing"
	TypeProcess        = "process_improvement"
	TypeCompliance     = "compliance"
	TypeOther          = "other"
)

// Lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Milestone statuses.
const (
	MilestonePlanned    = "planned"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
	MilestoneDelayed    = "delayed"
	MilestoneCancelled  = "cancelled"
)

// lifecycle enumerates the allowed status transitions. Completed and
// cancelled are terminal.
var lifecycle = map[string][]string{
	StatusDraft:     {StatusActive, StatusCancelled},
	StatusActive:    {StatusOnHold, StatusCompleted, StatusCancelled},
	StatusOnHold:    {StatusActive, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is a
// legal lifecycle step.
func CanTransition(from, to string) bool {
	for _, s := range lifecycle[from] {
		if s == to {
			return true
		}
	}
	return false
}
