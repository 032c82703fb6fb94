package portfolios

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// RepositoryPort defines data access methods for portfolios.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, page shared.Pagination) ([]Portfolio, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*Portfolio, error)
	Create(ctx context.Context, p *Portfolio) error
	Update(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, tenantID, id string) error
	AttachProject(ctx context.Context, tenantID, id, projectID string) error
	DetachProject(ctx context.Context, tenantID, id, projectID string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const portfolioColumns = `id, tenant_id, name, code, COALESCE(description, ''), portfolio_type,
	status, health_status, priority, portfolio_manager_id, sponsors, stakeholders,
	start_date, end_date, total_budget, spent_amount, project_ids, created_at, updated_at`

// List returns one page of the tenant's portfolios plus the total count.
func (r *Repository) List(ctx context.Context, tenantID string, page shared.Pagination) ([]Portfolio, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM portfolios WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
		tenantID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a portfolio within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*Portfolio, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	p, err := scanPortfolio(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new portfolio.
func (r *Repository) Create(ctx context.Context, p *Portfolio) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolios (id, tenant_id, name, code, description, portfolio_type, status,
		                         health_status, priority, portfolio_manager_id, sponsors, stakeholders,
		                         start_date, end_date, total_budget, spent_amount, project_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)`,
		p.ID, p.TenantID, p.Name, p.Code, p.Description, p.Type, p.Status,
		p.HealthStatus, p.Priority, p.ManagerID, p.Sponsors, p.Stakeholders,
		p.StartDate, p.EndDate, p.TotalBudget, p.SpentAmount, p.ProjectIDs, now)
	if err != nil {
		return mapError(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// Update persists mutable portfolio fields.
func (r *Repository) Update(ctx context.Context, p *Portfolio) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE portfolios SET name = $3, description = $4, portfolio_type = $5, status = $6,
		        health_status = $7, priority = $8, portfolio_manager_id = $9, sponsors = $10,
		        stakeholders = $11, start_date = $12, end_date = $13, total_budget = $14,
		        spent_amount = $15, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.Name, p.Description, p.Type, p.Status,
		p.HealthStatus, p.Priority, p.ManagerID, p.Sponsors,
		p.Stakeholders, p.StartDate, p.EndDate, p.TotalBudget, p.SpentAmount)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a portfolio.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM portfolios WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AttachProject appends a project id to the portfolio's list.
func (r *Repository) AttachProject(ctx context.Context, tenantID, id, projectID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE portfolios SET project_ids = array_append(project_ids, $3), updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2 AND NOT ($3 = ANY(project_ids))`,
		tenantID, id, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DetachProject removes a project id from the portfolio's list.
func (r *Repository) DetachProject(ctx context.Context, tenantID, id, projectID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE portfolios SET project_ids = array_remove(project_ids, $3), updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPortfolio(row pgx.Row) (*Portfolio, error) {
	var p Portfolio
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Code, &p.Description, &p.Type,
		&p.Status, &p.HealthStatus, &p.Priority, &p.ManagerID, &p.Sponsors, &p.Stakeholders,
		&p.StartDate, &p.EndDate, &p.TotalBudget, &p.SpentAmount, &p.ProjectIDs,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
