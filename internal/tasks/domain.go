package tasks

import "time"

// Task is a unit of work under a project. Access to a task derives entirely
// from the caller's resolved level on the parent project.
type Task struct {
	ID           string      `json:"id"`
	TenantID     string      `json:"-"`
	ProjectID    string      `json:"project_id"`
	ParentTaskID string      `json:"parent_task_id,omitempty"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Type         string      `json:"task_type"`
	Status       string      `json:"status"`
	Priority     string      `json:"priority"`
	AssigneeID   string      `json:"assignee_id,omitempty"`
	PlannedStart *time.Time  `json:"planned_start_date,omitempty"`
	PlannedEnd   *time.Time  `json:"planned_end_date,omitempty"`
	EstimatedHrs float64     `json:"estimated_hours"`
	RemainingHrs float64     `json:"remaining_hours"`
	PercentDone  float64     `json:"percent_complete"`
	StoryPoints  int         `json:"story_points,omitempty"`
	Labels       []string    `json:"labels"`
	TimeEntries  []TimeEntry `json:"time_entries"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TimeEntry records hours logged against a task.
type TimeEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description,omitempty"`
	Billable    bool      `json:"is_billable"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task types.
const (
	TypeStory   = "story"
	TypeTask    = "task"
	TypeBug     = "bug"
	TypeEpic    = "epic"
	TypeSubtask = "subtask"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusTesting    = "testing"
	StatusDone       = "done"
	StatusBlocked    = "blocked"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]struct{}{
	StatusTodo:       {},
	StatusInProgress: {},
	StatusInReview:   {},
	StatusTesting:    {},
	StatusDone:       {},
	StatusBlocked:    {},
	StatusCancelled:  {},
}

// ValidStatus reports whether s names a known task status.
func ValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}
