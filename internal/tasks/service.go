package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// ProjectAccess resolves the caller's access level on a project.
// Implemented by the projects service; a NoAccess outcome surfaces as
// ErrNotFound so the task tree stays invisible with the project.
type ProjectAccess interface {
	ResolveLevel(ctx context.Context, id shared.Identity, projectID string) (authz.AccessLevel, error)
}

// Service handles task business logic. Tasks carry no ownership facts of
// their own; every check resolves against the parent project.
type Service struct {
	repo    RepositoryPort
	project ProjectAccess
	audit   *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, project ProjectAccess, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, project: project, audit: audit}
}

func (s *Service) projectLevel(ctx context.Context, id shared.Identity, projectID string, min authz.AccessLevel) error {
	level, err := s.project.ResolveLevel(ctx, id, projectID)
	if err != nil {
		return err
	}
	if !level.AtLeast(min) {
		return shared.ErrForbidden
	}
	return nil
}

// List returns the page of tasks under a project the caller can read.
func (s *Service) List(ctx context.Context, id shared.Identity, projectID string, page, perPage int) ([]Task, shared.Pagination, error) {
	if err := s.projectLevel(ctx, id, projectID, authz.ReadOnly); err != nil {
		return nil, shared.Pagination{}, err
	}
	pg := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListByProject(ctx, id.TenantID, projectID, pg)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one task; requires read access on the parent project.
func (s *Service) Get(ctx context.Context, id shared.Identity, taskID string) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id.TenantID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.projectLevel(ctx, id, t.ProjectID, authz.ReadOnly); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateInput carries the creation payload.
type CreateInput struct {
	ProjectID    string
	ParentTaskID string
	Name         string
	Description  string
	Type         string
	Priority     string
	AssigneeID   string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	EstimatedHrs float64
	StoryPoints  int
	Labels       []string
}

// Create inserts a new task; requires write access on the parent project.
func (s *Service) Create(ctx context.Context, id shared.Identity, in CreateInput) (*Task, error) {
	if err := s.projectLevel(ctx, id, in.ProjectID, authz.ReadWrite); err != nil {
		return nil, err
	}
	taskType := in.Type
	if taskType == "" {
		taskType = TypeTask
	}
	t := &Task{
		ID:           uuid.NewString(),
		TenantID:     id.TenantID,
		ProjectID:    in.ProjectID,
		ParentTaskID: in.ParentTaskID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Type:         taskType,
		Status:       StatusTodo,
		Priority:     in.Priority,
		AssigneeID:   in.AssigneeID,
		PlannedStart: in.PlannedStart,
		PlannedEnd:   in.PlannedEnd,
		EstimatedHrs: in.EstimatedHrs,
		RemainingHrs: in.EstimatedHrs,
		StoryPoints:  in.StoryPoints,
		Labels:       emptyIfNil(in.Labels),
		TimeEntries:  []TimeEntry{},
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "task.create",
			Entity:   "task",
			EntityID: t.ID,
			Meta:     map[string]any{"project_id": t.ProjectID},
		})
	}
	return t, nil
}

// UpdateInput carries mutable task fields.
type UpdateInput struct {
	Name         string
	Description  *string
	Type         string
	Status       string
	Priority     string
	AssigneeID   *string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	EstimatedHrs *float64
	RemainingHrs *float64
	PercentDone  *float64
	StoryPoints  *int
	Labels       []string
}

// Update modifies a task; requires write access on the parent project.
func (s *Service) Update(ctx context.Context, id shared.Identity, taskID string, in UpdateInput) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id.TenantID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.projectLevel(ctx, id, t.ProjectID, authz.ReadWrite); err != nil {
		return nil, err
	}
	if in.Name != "" {
		t.Name = in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Type != "" {
		t.Type = in.Type
	}
	if in.Status != "" {
		if !ValidStatus(in.Status) {
			return nil, shared.ErrValidation
		}
		t.Status = in.Status
		if in.Status == StatusDone {
			t.PercentDone = 100
			t.RemainingHrs = 0
		}
	}
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if in.AssigneeID != nil {
		t.AssigneeID = *in.AssigneeID
	}
	if in.PlannedStart != nil {
		t.PlannedStart = in.PlannedStart
	}
	if in.PlannedEnd != nil {
		t.PlannedEnd = in.PlannedEnd
	}
	if in.EstimatedHrs != nil {
		t.EstimatedHrs = *in.EstimatedHrs
	}
	if in.RemainingHrs != nil {
		t.RemainingHrs = *in.RemainingHrs
	}
	if in.PercentDone != nil {
		t.PercentDone = *in.PercentDone
	}
	if in.StoryPoints != nil {
		t.StoryPoints = *in.StoryPoints
	}
	if in.Labels != nil {
		t.Labels = in.Labels
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task; requires write access on the parent project.
func (s *Service) Delete(ctx context.Context, id shared.Identity, taskID string) error {
	t, err := s.repo.GetByID(ctx, id.TenantID, taskID)
	if err != nil {
		return err
	}
	if err := s.projectLevel(ctx, id, t.ProjectID, authz.ReadWrite); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id.TenantID, t.ID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "task.delete",
			Entity:   "task",
			EntityID: t.ID,
		})
	}
	return nil
}

// TimeEntryInput carries a single time log line.
type TimeEntryInput struct {
	Date        time.Time
	Hours       float64
	Description string
	Billable    bool
}

// LogTime appends a time entry for the acting user. The route additionally
// gates on the enter_time permission; here we require write access on the
// parent project.
func (s *Service) LogTime(ctx context.Context, id shared.Identity, taskID string, in TimeEntryInput) (*Task, error) {
	if in.Hours <= 0 || in.Hours > 24 {
		return nil, shared.ErrValidation
	}
	t, err := s.repo.GetByID(ctx, id.TenantID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.projectLevel(ctx, id, t.ProjectID, authz.ReadWrite); err != nil {
		return nil, err
	}
	entry := TimeEntry{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		Date:        in.Date,
		Hours:       in.Hours,
		Description: in.Description,
		Billable:    in.Billable,
		CreatedAt:   time.Now().UTC(),
	}
	t.TimeEntries = append(t.TimeEntries, entry)
	if t.RemainingHrs > 0 {
		t.RemainingHrs -= in.Hours
		if t.RemainingHrs < 0 {
			t.RemainingHrs = 0
		}
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "task.log_time",
			Entity:   "task",
			EntityID: t.ID,
			Meta:     map[string]any{"hours": in.Hours},
		})
	}
	return t, nil
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
