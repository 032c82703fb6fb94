package projects

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	List(ctx context.Context, tenantID string, filter ListFilter, page shared.Pagination) ([]Project, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*Project, error)
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, tenantID, id string) error
}

// ListFilter narrows project listings.
type ListFilter struct {
	PortfolioID string
	Status      string
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, tenant_id, name, code, COALESCE(description, ''), project_type,
	methodology, status, health_status, priority, COALESCE(portfolio_id, ''),
	project_manager_id, COALESCE(sponsor_id, ''), team_members,
	planned_start_date, planned_end_date, actual_start_date, actual_end_date,
	percent_complete, total_budget, spent_amount, milestones, created_at, updated_at`

// List returns one page of the tenant's projects plus the total count.
func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter, page shared.Pagination) ([]Project, int, error) {
	where := `tenant_id = $1
		AND ($2 = '' OR portfolio_id = $2)
		AND ($3 = '' OR status = $3)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE `+where,
		tenantID, filter.PortfolioID, filter.Status,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE `+where+` ORDER BY name LIMIT $4 OFFSET $5`,
		tenantID, filter.PortfolioID, filter.Status, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
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

// GetByID fetches a project within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*Project, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new project.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	milestones, err := json.Marshal(p.Milestones)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO projects (id, tenant_id, name, code, description, project_type, methodology,
		                       status, health_status, priority, portfolio_id, project_manager_id,
		                       sponsor_id, team_members, planned_start_date, planned_end_date,
		                       actual_start_date, actual_end_date, percent_complete, total_budget,
		                       spent_amount, milestones, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12,
		         NULLIF($13, ''), $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $23)`,
		p.ID, p.TenantID, p.Name, p.Code, p.Description, p.Type, p.Methodology,
		p.Status, p.HealthStatus, p.Priority, p.PortfolioID, p.ManagerID,
		p.SponsorID, p.TeamMembers, p.PlannedStart, p.PlannedEnd,
		p.ActualStart, p.ActualEnd, p.PercentDone, p.TotalBudget,
		p.SpentAmount, milestones, now)
	if err != nil {
		return mapError(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// Update persists mutable project fields.
func (r *Repository) Update(ctx context.Context, p *Project) error {
	milestones, err := json.Marshal(p.Milestones)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET name = $3, description = $4, project_type = $5, methodology = $6,
		        status = $7, health_status = $8, priority = $9, portfolio_id = NULLIF($10, ''),
		        project_manager_id = $11, sponsor_id = NULLIF($12, ''), team_members = $13,
		        planned_start_date = $14, planned_end_date = $15, actual_start_date = $16,
		        actual_end_date = $17, percent_complete = $18, total_budget = $19,
		        spent_amount = $20, milestones = $21, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.Name, p.Description, p.Type, p.Methodology,
		p.Status, p.HealthStatus, p.Priority, p.PortfolioID,
		p.ManagerID, p.SponsorID, p.TeamMembers,
		p.PlannedStart, p.PlannedEnd, p.ActualStart,
		p.ActualEnd, p.PercentDone, p.TotalBudget,
		p.SpentAmount, milestones)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a project and its tasks via FK cascade.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var (
		p          Project
		milestones []byte
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Code, &p.Description, &p.Type,
		&p.Methodology, &p.Status, &p.HealthStatus, &p.Priority, &p.PortfolioID,
		&p.ManagerID, &p.SponsorID, &p.TeamMembers,
		&p.PlannedStart, &p.PlannedEnd, &p.ActualStart, &p.ActualEnd,
		&p.PercentDone, &p.TotalBudget, &p.SpentAmount, &milestones,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(milestones) > 0 {
		if err := json.Unmarshal(milestones, &p.Milestones); err != nil {
			return nil, err
		}
	}
	if p.Milestones == nil {
		p.Milestones = []Milestone{}
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
