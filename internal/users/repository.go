package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, page shared.Pagination) ([]User, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*User, error)
	Create(ctx context.Context, user *User, passwordHash string) error
	Update(ctx context.Context, user *User) error
	UpdateGrants(ctx context.Context, tenantID, id string, grants shared.Grants) error
	AccessGrants(ctx context.Context, tenantID, userID string) (shared.Grants, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, tenant_id, username, email, full_name, role, status,
	COALESCE(job_title, ''), COALESCE(department, ''), COALESCE(phone, ''),
	portfolio_access, project_access, last_login_at, created_at, updated_at`

// List returns one page of the tenant's users plus the total count.
func (r *Repository) List(ctx context.Context, tenantID string, page shared.Pagination) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY username LIMIT $2 OFFSET $3`,
		tenantID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a user within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *User, passwordHash string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, tenant_id, username, email, full_name, password_hash, role, status,
		                    job_title, department, phone, portfolio_access, project_access, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		user.ID, user.TenantID, user.Username, user.Email, user.FullName, passwordHash,
		user.Role, user.Status, user.JobTitle, user.Department, user.Phone,
		user.PortfolioAccess, user.ProjectAccess, now)
	if err != nil {
		return mapError(err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Update persists mutable profile fields and status.
func (r *Repository) Update(ctx context.Context, user *User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $3, full_name = $4, status = $5, job_title = $6,
		        department = $7, phone = $8, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		user.TenantID, user.ID, user.Email, user.FullName, user.Status,
		user.JobTitle, user.Department, user.Phone)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateGrants replaces the user's explicit access lists.
func (r *Repository) UpdateGrants(ctx context.Context, tenantID, id string, grants shared.Grants) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET portfolio_access = $3, project_access = $4, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, grants.Portfolios, grants.Projects)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AccessGrants loads only the user's grant lists; callers on the hot path
// use this instead of fetching the whole record.
func (r *Repository) AccessGrants(ctx context.Context, tenantID, userID string) (shared.Grants, error) {
	var g shared.Grants
	err := r.pool.QueryRow(ctx,
		`SELECT portfolio_access, project_access FROM users WHERE tenant_id = $1 AND id = $2`,
		tenantID, userID,
	).Scan(&g.Portfolios, &g.Projects)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.Grants{}, shared.ErrNotFound
		}
		return shared.Grants{}, err
	}
	return g, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var lastLogin *time.Time
	if err := row.Scan(&u.ID, &u.TenantID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.Status,
		&u.JobTitle, &u.Department, &u.Phone, &u.PortfolioAccess, &u.ProjectAccess,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if lastLogin != nil {
		u.LastLoginAt = *lastLogin
	}
	return &u, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
