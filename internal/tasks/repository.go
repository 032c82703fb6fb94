package tasks

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

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	ListByProject(ctx context.Context, tenantID, projectID string, page shared.Pagination) ([]Task, int, error)
	GetByID(ctx context.Context, tenantID, id string) (*Task, error)
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, tenantID, id string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, tenant_id, project_id, COALESCE(parent_task_id, ''), name,
	COALESCE(description, ''), task_type, status, priority, COALESCE(assignee_id, ''),
	planned_start_date, planned_end_date, estimated_hours, remaining_hours,
	percent_complete, story_points, labels, time_entries, created_at, updated_at`

// ListByProject returns one page of the project's tasks plus the total count.
func (r *Repository) ListByProject(ctx context.Context, tenantID, projectID string, page shared.Pagination) ([]Task, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE tenant_id = $1 AND project_id = $2`,
		tenantID, projectID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE tenant_id = $1 AND project_id = $2
		 ORDER BY created_at LIMIT $3 OFFSET $4`,
		tenantID, projectID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a task within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a new task.
func (r *Repository) Create(ctx context.Context, t *Task) error {
	entries, err := json.Marshal(t.TimeEntries)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO tasks (id, tenant_id, project_id, parent_task_id, name, description,
		                    task_type, status, priority, assignee_id, planned_start_date,
		                    planned_end_date, estimated_hours, remaining_hours, percent_complete,
		                    story_points, labels, time_entries, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NULLIF($10, ''),
		         $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)`,
		t.ID, t.TenantID, t.ProjectID, t.ParentTaskID, t.Name, t.Description,
		t.Type, t.Status, t.Priority, t.AssigneeID, t.PlannedStart,
		t.PlannedEnd, t.EstimatedHrs, t.RemainingHrs, t.PercentDone,
		t.StoryPoints, t.Labels, entries, now)
	if err != nil {
		return mapError(err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// Update persists mutable task fields including the time entry list.
func (r *Repository) Update(ctx context.Context, t *Task) error {
	entries, err := json.Marshal(t.TimeEntries)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET name = $3, description = $4, task_type = $5, status = $6,
		        priority = $7, assignee_id = NULLIF($8, ''), planned_start_date = $9,
		        planned_end_date = $10, estimated_hours = $11, remaining_hours = $12,
		        percent_complete = $13, story_points = $14, labels = $15,
		        time_entries = $16, updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		t.TenantID, t.ID, t.Name, t.Description, t.Type, t.Status,
		t.Priority, t.AssigneeID, t.PlannedStart,
		t.PlannedEnd, t.EstimatedHrs, t.RemainingHrs,
		t.PercentDone, t.StoryPoints, t.Labels, entries)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t       Task
		entries []byte
	)
	if err := row.Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.ParentTaskID, &t.Name,
		&t.Description, &t.Type, &t.Status, &t.Priority, &t.AssigneeID,
		&t.PlannedStart, &t.PlannedEnd, &t.EstimatedHrs, &t.RemainingHrs,
		&t.PercentDone, &t.StoryPoints, &t.Labels, &entries,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &t.TimeEntries); err != nil {
			return nil, err
		}
	}
	if t.TimeEntries == nil {
		t.TimeEntries = []TimeEntry{}
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	return &t, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
