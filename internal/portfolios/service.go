package portfolios

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

// Service handles portfolio business logic. Category-level gating happens
// in route middleware; this layer resolves the per-instance access level
// from ownership facts before any write.
type Service struct {
	repo   RepositoryPort
	grants GrantSource
	audit  *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, grants GrantSource, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, grants: grants, audit: audit}
}

func (s *Service) resolve(ctx context.Context, id shared.Identity, p *Portfolio) (authz.AccessLevel, error) {
	grants, err := s.grants.AccessGrants(ctx, id.TenantID, id.UserID)
	if err != nil {
		return authz.NoAccess, err
	}
	return authz.ResolveAccess(authz.AccessRequest{
		Role:            authz.Role(id.Role),
		ResourceType:    authz.ResourcePortfolio,
		ActorID:         id.UserID,
		ResourceID:      p.ID,
		OwnerID:         p.ManagerID,
		PortfolioGrants: grants.Portfolios,
		ProjectGrants:   grants.Projects,
	}), nil
}

// requireLevel fetches the record and enforces the minimum access level.
// NoAccess maps to ErrNotFound so existence is not leaked.
func (s *Service) requireLevel(ctx context.Context, id shared.Identity, portfolioID string, min authz.AccessLevel) (*Portfolio, authz.AccessLevel, error) {
	p, err := s.repo.GetByID(ctx, id.TenantID, portfolioID)
	if err != nil {
		return nil, authz.NoAccess, err
	}
	level, err := s.resolve(ctx, id, p)
	if err != nil {
		return nil, authz.NoAccess, err
	}
	if level == authz.NoAccess {
		return nil, level, shared.ErrNotFound
	}
	if !level.AtLeast(min) {
		return nil, level, shared.ErrForbidden
	}
	p.AccessLevel = level.String()
	return p, level, nil
}

// List returns the page of portfolios the caller may see, each annotated
// with the caller's resolved access level. Records resolving to NoAccess
// are omitted entirely.
func (s *Service) List(ctx context.Context, id shared.Identity, page, perPage int) ([]Portfolio, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, id.TenantID, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	grants, err := s.grants.AccessGrants(ctx, id.TenantID, id.UserID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	visible := make([]Portfolio, 0, len(items))
	for _, item := range items {
		level := authz.ResolveAccess(authz.AccessRequest{
			Role:            authz.Role(id.Role),
			ResourceType:    authz.ResourcePortfolio,
			ActorID:         id.UserID,
			ResourceID:      item.ID,
			OwnerID:         item.ManagerID,
			PortfolioGrants: grants.Portfolios,
			ProjectGrants:   grants.Projects,
		})
		if level == authz.NoAccess {
			continue
		}
		item.AccessLevel = level.String()
		visible = append(visible, item)
	}
	return visible, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one portfolio, requiring at least read access.
func (s *Service) Get(ctx context.Context, id shared.Identity, portfolioID string) (*Portfolio, error) {
	p, _, err := s.requireLevel(ctx, id, portfolioID, authz.ReadOnly)
	return p, err
}

// CreateInput carries the creation payload.
type CreateInput struct {
	Name        string
	Code        string
	Description string
	Type        string
	Priority    string
	ManagerID   string
	Sponsors    []string
	StartDate   *time.Time
	EndDate     *time.Time
	TotalBudget float64
}

// Create inserts a new portfolio. Creation is gated by the coarse
// create_portfolio permission only; there is no instance to resolve yet.
func (s *Service) Create(ctx context.Context, id shared.Identity, in CreateInput) (*Portfolio, error) {
	managerID := in.ManagerID
	if managerID == "" {
		managerID = id.UserID
	}
	p := &Portfolio{
		ID:           uuid.NewString(),
		TenantID:     id.TenantID,
		Name:         strings.TrimSpace(in.Name),
		Code:         strings.TrimSpace(in.Code),
		Description:  in.Description,
		Type:         in.Type,
		Status:       StatusDraft,
		HealthStatus: "green",
		Priority:     in.Priority,
		ManagerID:    managerID,
		Sponsors:     emptyIfNil(in.Sponsors),
		Stakeholders: []string{},
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		TotalBudget:  in.TotalBudget,
		ProjectIDs:   []string{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "portfolio.create",
			Entity:   "portfolio",
			EntityID: p.ID,
			Meta:     map[string]any{"code": p.Code},
		})
	}
	p.AccessLevel = authz.ResolveAccess(authz.AccessRequest{
		Role:         authz.Role(id.Role),
		ResourceType: authz.ResourcePortfolio,
		ActorID:      id.UserID,
		ResourceID:   p.ID,
		OwnerID:      p.ManagerID,
	}).String()
	return p, nil
}

// UpdateInput carries mutable portfolio fields. Nil pointers mean "leave
// unchanged".
type UpdateInput struct {
	Name        string
	Description *string
	Type        string
	Status      string
	Health      string
	Priority    string
	ManagerID   string
	Sponsors    []string
	StartDate   *time.Time
	EndDate     *time.Time
	TotalBudget *float64
	SpentAmount *float64
}

// Update modifies a portfolio; requires read-write access.
func (s *Service) Update(ctx context.Context, id shared.Identity, portfolioID string, in UpdateInput) (*Portfolio, error) {
	p, level, err := s.requireLevel(ctx, id, portfolioID, authz.ReadWrite)
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
	if in.Status != "" {
		p.Status = in.Status
	}
	if in.Health != "" {
		p.HealthStatus = in.Health
	}
	if in.Priority != "" {
		p.Priority = in.Priority
	}
	// Reassigning the owner requires full control of the instance.
	if in.ManagerID != "" && in.ManagerID != p.ManagerID {
		if !level.AtLeast(authz.Full) {
			return nil, shared.ErrForbidden
		}
		p.ManagerID = in.ManagerID
	}
	if in.Sponsors != nil {
		p.Sponsors = in.Sponsors
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.TotalBudget != nil {
		p.TotalBudget = *in.TotalBudget
	}
	if in.SpentAmount != nil {
		p.SpentAmount = *in.SpentAmount
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "portfolio.update",
			Entity:   "portfolio",
			EntityID: p.ID,
		})
	}
	return p, nil
}

// Delete removes a portfolio; requires full access on top of the coarse
// delete_portfolio permission enforced by the route.
func (s *Service) Delete(ctx context.Context, id shared.Identity, portfolioID string) error {
	p, _, err := s.requireLevel(ctx, id, portfolioID, authz.Full)
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
			Action:   "portfolio.delete",
			Entity:   "portfolio",
			EntityID: p.ID,
		})
	}
	return nil
}

// AttachProject links a project into the portfolio; requires read-write.
func (s *Service) AttachProject(ctx context.Context, id shared.Identity, portfolioID, projectID string) error {
	p, _, err := s.requireLevel(ctx, id, portfolioID, authz.ReadWrite)
	if err != nil {
		return err
	}
	return s.repo.AttachProject(ctx, id.TenantID, p.ID, projectID)
}

// DetachProject unlinks a project from the portfolio; requires read-write.
func (s *Service) DetachProject(ctx context.Context, id shared.Identity, portfolioID, projectID string) error {
	p, _, err := s.requireLevel(ctx, id, portfolioID, authz.ReadWrite)
	if err != nil {
		return err
	}
	return s.repo.DetachProject(ctx, id.TenantID, p.ID, projectID)
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
