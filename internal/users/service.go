package users

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/shared"
)

// Service handles user management logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns one page of the caller's tenant members.
func (s *Service) List(ctx context.Context, id shared.Identity, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, id.TenantID, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one tenant member.
func (s *Service) Get(ctx context.Context, id shared.Identity, userID string) (*User, error) {
	return s.repo.GetByID(ctx, id.TenantID, userID)
}

// CreateInput carries the invite/create payload.
type CreateInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Role       string
	JobTitle   string
	Department string
	Phone      string
}

// Create adds a new user to the caller's tenant. The role must be a member
// of the closed role set; there is no way to mint an unrecognised role.
func (s *Service) Create(ctx context.Context, id shared.Identity, in CreateInput) (*User, error) {
	if !authz.Role(in.Role).Valid() {
		return nil, shared.ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:              uuid.NewString(),
		TenantID:        id.TenantID,
		Username:        in.Username,
		Email:           in.Email,
		FullName:        in.FullName,
		Role:            in.Role,
		Status:          StatusPendingVerification,
		JobTitle:        in.JobTitle,
		Department:      in.Department,
		Phone:           in.Phone,
		PortfolioAccess: []string{},
		ProjectAccess:   []string{},
	}
	if err := s.repo.Create(ctx, user, string(hash)); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "user.create",
			Entity:   "user",
			EntityID: user.ID,
			Meta:     map[string]any{"role": user.Role},
		})
	}
	return user, nil
}

// UpdateInput carries mutable profile fields. Role is deliberately absent:
// a user's role is fixed at creation.
type UpdateInput struct {
	Email      string
	FullName   string
	Status     string
	JobTitle   string
	Department string
	Phone      string
}

// Update modifies a tenant member's profile.
func (s *Service) Update(ctx context.Context, id shared.Identity, userID string, in UpdateInput) (*User, error) {
	user, err := s.repo.GetByID(ctx, id.TenantID, userID)
	if err != nil {
		return nil, err
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Status != "" {
		switch in.Status {
		case StatusActive, StatusInactive, StatusSuspended, StatusPendingVerification:
			user.Status = in.Status
		default:
			return nil, shared.ErrValidation
		}
	}
	if in.JobTitle != "" {
		user.JobTitle = in.JobTitle
	}
	if in.Department != "" {
		user.Department = in.Department
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetGrants replaces a user's explicit portfolio/project access lists.
func (s *Service) SetGrants(ctx context.Context, id shared.Identity, userID string, grants shared.Grants) (*User, error) {
	if grants.Portfolios == nil {
		grants.Portfolios = []string{}
	}
	if grants.Projects == nil {
		grants.Projects = []string{}
	}
	if err := s.repo.UpdateGrants(ctx, id.TenantID, userID, grants); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "user.grants.update",
			Entity:   "user",
			EntityID: userID,
			Meta: map[string]any{
				"portfolio_access": grants.Portfolios,
				"project_access":   grants.Projects,
			},
		})
	}
	return s.repo.GetByID(ctx, id.TenantID, userID)
}
