package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindTenantByCode(ctx context.Context, code string) (*Tenant, error)
	FindAccountByUsername(ctx context.Context, tenantID, username string) (*Account, error)
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*Account, error)
	TouchLastLogin(ctx context.Context, accountID string, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindTenantByCode fetches a tenant by its unique code.
func (r *PGRepository) FindTenantByCode(ctx context.Context, code string) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, status FROM tenants WHERE code = $1`, code,
	).Scan(&t.ID, &t.Code, &t.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAccountByUsername fetches a user's credential view within a tenant.
func (r *PGRepository) FindAccountByUsername(ctx context.Context, tenantID, username string) (*Account, error) {
	var a Account
	var lastLogin *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, username, email, full_name, password_hash, role, status, last_login_at
		 FROM users WHERE tenant_id = $1 AND username = $2`, tenantID, username,
	).Scan(&a.ID, &a.TenantID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash, &a.Role, &a.Status, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lastLogin != nil {
		a.LastLoginAt = *lastLogin
	}
	return &a, nil
}

// FindAccountByID fetches a user's credential view by id within a tenant.
func (r *PGRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*Account, error) {
	var a Account
	var lastLogin *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, username, email, full_name, password_hash, role, status, last_login_at
		 FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, accountID,
	).Scan(&a.ID, &a.TenantID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash, &a.Role, &a.Status, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if lastLogin != nil {
		a.LastLoginAt = *lastLogin
	}
	return &a, nil
}

// TouchLastLogin records a successful login time.
func (r *PGRepository) TouchLastLogin(ctx context.Context, accountID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, accountID, at.UTC())
	return err
}

var _ Repository = (*PGRepository)(nil)
