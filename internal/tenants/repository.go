package tenants

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// AdminSeed is the initial administrator account created alongside a tenant.
type AdminSeed struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
}

// RepositoryPort defines persistence operations for tenants.
type RepositoryPort interface {
	Register(ctx context.Context, tenant *Tenant, admin AdminSeed) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Register inserts the tenant and its first admin user in one transaction.
func (r *Repository) Register(ctx context.Context, tenant *Tenant, admin AdminSeed) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO tenants (id, code, name, status, contact_email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		tenant.ID, tenant.Code, tenant.Name, tenant.Status, tenant.ContactEmail, now)
	if err != nil {
		return mapError(err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, tenant_id, username, email, full_name, password_hash, role, status, portfolio_access, project_access, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 'admin', 'active', '{}', '{}', $7, $7)`,
		admin.ID, tenant.ID, admin.Username, admin.Email, admin.FullName, admin.PasswordHash, now)
	if err != nil {
		return mapError(err)
	}

	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	return tx.Commit(ctx)
}

// GetByID fetches a tenant by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, status, contact_email, created_at, updated_at
		 FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Code, &t.Name, &t.Status, &t.ContactEmail, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update persists mutable tenant fields.
func (r *Repository) Update(ctx context.Context, tenant *Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, contact_email = $3, status = $4, updated_at = NOW()
		 WHERE id = $1`,
		tenant.ID, tenant.Name, tenant.ContactEmail, tenant.Status)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// mapError translates unique-violation errors into the domain sentinel.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
