package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/keystone-ppm/keystone/internal/projects"
	"github.com/keystone-ppm/keystone/internal/shared"
	"github.com/keystone-ppm/keystone/internal/tasks"
	"github.com/keystone-ppm/keystone/jobs"
)

// Persister stores import batches on the worker side. Duplicate rows are
// skipped rather than failing the batch so retries stay idempotent.
type Persister struct {
	projects projects.RepositoryPort
	tasks    tasks.RepositoryPort
}

// NewPersister builds a Persister instance.
func NewPersister(projectRepo projects.RepositoryPort, taskRepo tasks.RepositoryPort) *Persister {
	return &Persister{projects: projectRepo, tasks: taskRepo}
}

// PersistBatch writes one batch of imported rows.
func (p *Persister) PersistBatch(ctx context.Context, payload jobs.ImportBatchPayload) error {
	switch payload.Kind {
	case KindProjects:
		return p.persistProjects(ctx, payload)
	case KindTasks:
		return p.persistTasks(ctx, payload)
	default:
		return shared.ErrValidation
	}
}

func (p *Persister) persistProjects(ctx context.Context, payload jobs.ImportBatchPayload) error {
	for _, row := range payload.Rows {
		managerID := row.ManagerID
		if managerID == "" {
			managerID = payload.ActorID
		}
		projectType := row.Type
		if projectType == "" {
			projectType = projects.TypeOther
		}
		priority := row.Priority
		if priority == "" {
			priority = "medium"
		}
		proj := &projects.Project{
			ID:           uuid.NewString(),
			TenantID:     payload.TenantID,
			Name:         row.Name,
			Code:         row.Code,
			Description:  row.Description,
			Type:         projectType,
			Methodology:  "agile",
			Status:       projects.StatusDraft,
			HealthStatus: "green",
			Priority:     priority,
			PortfolioID:  row.PortfolioID,
			ManagerID:    managerID,
			TeamMembers:  []string{},
			TotalBudget:  row.Budget,
			Milestones:   []projects.Milestone{},
		}
		if err := p.projects.Create(ctx, proj); err != nil {
			if errors.Is(err, shared.ErrDuplicate) {
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Persister) persistTasks(ctx context.Context, payload jobs.ImportBatchPayload) error {
	for _, row := range payload.Rows {
		priority := row.Priority
		if priority == "" {
			priority = "medium"
		}
		taskType := row.Type
		if taskType == "" {
			taskType = tasks.TypeTask
		}
		t := &tasks.Task{
			ID:           uuid.NewString(),
			TenantID:     payload.TenantID,
			ProjectID:    row.ProjectID,
			Name:         row.Name,
			Description:  row.Description,
			Type:         taskType,
			Status:       tasks.StatusTodo,
			Priority:     priority,
			EstimatedHrs: row.Hours,
			RemainingHrs: row.Hours,
			Labels:       []string{},
			TimeEntries:  []tasks.TimeEntry{},
		}
		if err := p.tasks.Create(ctx, t); err != nil {
			if errors.Is(err, shared.ErrDuplicate) {
				continue
			}
			return err
		}
	}
	return nil
}

var _ jobs.BatchPersister = (*Persister)(nil)
