package projects

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// GrantSource loads the acting user's explicit access lists. Implemented by
// the users repository.
type GrantSource interface {
	AccessGrants(ctx context.Context, tenantID, userID string) (shared.Grants, error)
}

// Service handles project business logic. Category-level gating happens in
// route middleware; this layer resolves the per-instance access level from
// ownership facts before any write.
type Service struct {
	repo   RepositoryPort
	grants GrantSource
	audit  *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, grants GrantSource, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, grants: grants, audit: audit}
}

func (s *Service) resolveWith(id shared.Identity, p *Project, grants shared.Grants) authz.AccessLevel {
	return authz.ResolveAccess(authz.AccessRequest{
		Role:            authz.Role(id.Role),
		ResourceType:    authz.ResourceProject,
		ActorID:         id.UserID,
		ResourceID:      p.ID,
		OwnerID:         p.ManagerID,
		PortfolioGrants: grants.Portfolios,
		ProjectGrants:   grants.Projects,
	})
}

// requireLevel fetches the record and enforces the minimum access level.
// NoAccess maps to ErrNotFound so existence is not leaked.
func (s *Service) requireLevel(ctx context.Context, id shared.Identity, projectID string, min authz.AccessLevel) (*Project, authz.AccessLevel, error) {
	p, err := s.repo.GetByID(ctx, id.TenantID, projectID)
	if err != nil {
		return nil, authz.NoAccess, err
	}
	grants, err := s.grants.AccessGrants(ctx, id.TenantID, id.UserID)
	if err != nil {
		return nil, authz.NoAccess, err
	}
	level := s.resolveWith(id, p, grants)
	if level == authz.NoAccess {
		return nil, level, shared.ErrNotFound
	}
	if !level.AtLeast(min) {
		return nil, level, shared.ErrForbidden
	}
	p.AccessLevel = level.String()
	return p, level, nil
}

// List returns the page of projects the caller may see, each annotated with
// the caller's resolved access level.
func (s *Service) List(ctx context.Context, id shared.Identity, filter ListFilter, page, perPage int) ([]Project, shared.Pagination, error) {
	pg := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, id.TenantID, filter, pg)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	grants, err := s.grants.AccessGrants(ctx, id.TenantID, id.UserID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := make([]Project, 0, len(items))
	for _, item := range items {
		level := s.resolveWith(id, &item, grants)
		if level == authz.NoAccess {
			continue
		}
		item.AccessLevel = level.String()
		visible = append(visible, item)
	}
	return visible, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one project, requiring at least read access.
func (s *Service) Get(ctx context.Context, id shared.Identity, projectID string) (*Project, error) {
	p, _, err := s.requireLevel(ctx, id, projectID, authz.ReadOnly)
	return p, err
}

// CreateInput carries the creation payload.
type CreateInput struct {
	Name         string
	Code         string
	Description  string
	Type         string
	Methodology  string
	Priority     string
	PortfolioID  string
	ManagerID    string
	SponsorID    string
	TeamMembers  []string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	TotalBudget  float64
}

// Create inserts a new project in draft status.
func (s *Service) Create(ctx context.Context, id shared.Identity, in CreateInput) (*Project, error) {
	managerID := in.ManagerID
	if managerID == "" {
		managerID = id.UserID
	}
	methodology := in.Methodology
	if methodology == "" {
		methodology = "agile"
	}
	p := &Project{
		ID:           uuid.NewString(),
		TenantID:     id.TenantID,
		Name:         strings.TrimSpace(in.Name),
		Code:         strings.TrimSpace(in.Code),
		Description:  in.Description,
		Type:         in.Type,
		Methodology:  methodology,
		Status:       StatusDraft,
		HealthStatus: "green",
		Priority:     in.Priority,
		PortfolioID:  in.PortfolioID,
		ManagerID:    managerID,
		SponsorID:    in.SponsorID,
		TeamMembers:  emptyIfNil(in.TeamMembers),
		PlannedStart: in.PlannedStart,
		PlannedEnd:   in.PlannedEnd,
		TotalBudget:  in.TotalBudget,
		Milestones:   []Milestone{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "project.create",
			Entity:   "project",
			EntityID: p.ID,
			Meta:     map[string]any{"code": p.Code},
		})
	}
	p.AccessLevel = authz.ResolveAccess(authz.AccessRequest{
		Role:         authz.Role(id.Role),
		ResourceType: authz.ResourceProject,
		ActorID:      id.UserID,
		ResourceID:   p.ID,
		OwnerID:      p.ManagerID,
	}).String()
	return p, nil
}

// UpdateInput carries mutable project fields. Nil pointers mean "leave
// unchanged".
type UpdateInput struct {
	Name         string
	Description  *string
	Type         string
	Methodology  string
	Health       string
	Priority     string
	PortfolioID  *string
	ManagerID    string
	SponsorID    *string
	TeamMembers  []string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	ActualStart  *time.Time
	ActualEnd    *time.Time
	PercentDone  *float64
	TotalBudget  *float64
	SpentAmount  *float64
	Milestones   []Milestone
}

// Update modifies a project; requires read-write access. Status moves
// through Transition, not here.
func (s *Service) Update(ctx context.Context, id shared.Identity, projectID string, in UpdateInput) (*Project, error) {
	p, level, err := s.requireLevel(ctx, id, projectID, authz.ReadWrite)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Type != "" {
		p.Type = in.Type
	}
	if in.Methodology != "" {
		p.Methodology = in.Methodology
	}
	if in.Health != "" {
		p.HealthStatus = in.Health
	}
	if in.Priority != "" {
		p.Priority = in.Priority
	}
	if in.PortfolioID != nil {
		p.PortfolioID = *in.PortfolioID
	}
	// Reassigning the owner requires full control of the instance.
	if in.ManagerID != "" && in.ManagerID != p.ManagerID {
		if !level.AtLeast(authz.Full) {
			return nil, shared.ErrForbidden
		}
		p.ManagerID = in.ManagerID
	}
	if in.SponsorID != nil {
		p.SponsorID = *in.SponsorID
	}
	if in.TeamMembers != nil {
		p.TeamMembers = in.TeamMembers
	}
	if in.PlannedStart != nil {
		p.PlannedStart = in.PlannedStart
	}
	if in.PlannedEnd != nil {
		p.PlannedEnd = in.PlannedEnd
	}
	if in.ActualStart != nil {
		p.ActualStart = in.ActualStart
	}
	if in.ActualEnd != nil {
		p.ActualEnd = in.ActualEnd
	}
	if in.PercentDone != nil {
		p.PercentDone = *in.PercentDone
	}
	if in.TotalBudget != nil {
		p.TotalBudget = *in.TotalBudget
	}
	if in.SpentAmount != nil {
		p.SpentAmount = *in.SpentAmount
	}
	if in.Milestones != nil {
		p.Milestones = normaliseMilestones(in.Milestones)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "project.update",
			Entity:   "project",
			EntityID: p.ID,
		})
	}
	return p, nil
}

// Transition moves the project to a new lifecycle status; requires
// read-write access and a legal lifecycle step.
func (s *Service) Transition(ctx context.Context, id shared.Identity, projectID, status string) (*Project, error) {
	p, _, err := s.requireLevel(ctx, id, projectID, authz.ReadWrite)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, status) {
		return nil, shared.ErrValidation
	}
	now := time.Now().UTC()
	switch status {
	case StatusActive:
		if p.ActualStart == nil {
			p.ActualStart = &now
		}
	case StatusCompleted:
		p.ActualEnd = &now
		p.PercentDone = 100
	}
	from := p.Status
	p.Status = status
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "project.transition",
			Entity:   "project",
			EntityID: p.ID,
			Meta:     map[string]any{"from": from, "to": status},
		})
	}
	return p, nil
}

// Delete removes a project; requires full access on top of the coarse
// delete_project permission enforced by the route.
func (s *Service) Delete(ctx context.Context, id shared.Identity, projectID string) error {
	p, _, err := s.requireLevel(ctx, id, projectID, authz.Full)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id.TenantID, p.ID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "project.delete",
			Entity:   "project",
			EntityID: p.ID,
		})
	}
	return nil
}

// ResolveLevel resolves the caller's level on a project for other modules
// (tasks derive their access from the parent project). NoAccess still maps
// to ErrNotFound.
func (s *Service) ResolveLevel(ctx context.Context, id shared.Identity, projectID string) (authz.AccessLevel, error) {
	_, level, err := s.requireLevel(ctx, id, projectID, authz.ReadOnly)
	return level, err
}

func normaliseMilestones(in []Milestone) []Milestone {
	out := make([]Milestone, 0, len(in))
	for _, m := range in {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Status == "" {
			m.Status = MilestonePlanned
		}
		out = append(out, m)
	}
	return out
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
