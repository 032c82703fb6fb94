package tenants

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// Service handles tenant business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// RegisterInput carries the self-service tenant registration payload.
type RegisterInput struct {
	Code          string
	Name          string
	ContactEmail  string
	AdminUsername string
	AdminEmail    string
	AdminFullName string
	AdminPassword string
}

// Register creates a tenant along with its first admin account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Tenant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	tenant := &Tenant{
		ID:           uuid.NewString(),
		Code:         strings.ToLower(strings.TrimSpace(in.Code)),
		Name:         strings.TrimSpace(in.Name),
		Status:       StatusActive,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
	}
	admin := AdminSeed{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.AdminUsername),
		Email:        strings.TrimSpace(in.AdminEmail),
		FullName:     strings.TrimSpace(in.AdminFullName),
		PasswordHash: string(hash),
	}
	if err := s.repo.Register(ctx, tenant, admin); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Get returns the caller's tenant record.
func (s *Service) Get(ctx context.Context, id shared.Identity) (*Tenant, error) {
	return s.repo.GetByID(ctx, id.TenantID)
}

// UpdateInput carries the mutable tenant fields.
type UpdateInput struct {
	Name         string
	ContactEmail string
	Status       string
}

// Update modifies the caller's tenant record.
func (s *Service) Update(ctx context.Context, id shared.Identity, in UpdateInput) (*Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		tenant.Name = in.Name
	}
	if in.ContactEmail != "" {
		tenant.ContactEmail = in.ContactEmail
	}
	if in.Status != "" {
		if in.Status != StatusActive && in.Status != StatusSuspended {
			return nil, shared.ErrValidation
		}
		tenant.Status = in.Status
	}
	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "tenant.update",
			Entity:   "tenant",
			EntityID: tenant.ID,
		})
	}
	return tenant, nil
}
