package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeImportBatch processes one validated batch of imported rows.
	TaskTypeImportBatch = "import:batch"
	// TaskTypeAuditPrune trims audit_logs past the retention window.
	TaskTypeAuditPrune = "audit:prune"
)

// ImportRow is one parsed CSV line. Kind decides which fields apply.
type ImportRow struct {
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	ProjectID   string  `json:"project_id,omitempty"`
	PortfolioID string  `json:"portfolio_id,omitempty"`
	ManagerID   string  `json:"manager_id,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Hours       float64 `json:"hours,omitempty"`
}

// ImportBatchPayload carries one batch of rows for the worker to persist.
type ImportBatchPayload struct {
	ImportID string      `json:"import_id"`
	TenantID string      `json:"tenant_id"`
	ActorID  string      `json:"actor_id"`
	Kind     string      `json:"kind"` // "projects" or "tasks"
	Rows     []ImportRow `json:"rows"`
}

// NewImportBatchTask constructs an Asynq task.
func NewImportBatchTask(payload ImportBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeImportBatch, data, asynq.MaxRetry(3)), nil
}

// BatchPersister stores a batch of imported rows. Implemented by the
// importer package; injected so this package stays free of domain imports.
type BatchPersister interface {
	PersistBatch(ctx context.Context, payload ImportBatchPayload) error
}

// NewImportBatchHandler returns the Asynq handler for import batches.
func NewImportBatchHandler(persister BatchPersister, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ImportBatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := persister.PersistBatch(ctx, payload); err != nil {
			logger.Error("import batch",
				slog.String("import_id", payload.ImportID),
				slog.String("tenant_id", payload.TenantID),
				slog.Any("error", err))
			return err
		}
		logger.Info("import batch done",
			slog.String("import_id", payload.ImportID),
			slog.String("kind", payload.Kind),
			slog.Int("rows", len(payload.Rows)))
		return nil
	}
}

// AuditPrunePayload configures one retention sweep.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPruneTask constructs the cron task for audit retention.
func NewAuditPruneTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data), nil
}

// NewAuditPruneHandler returns the Asynq handler that deletes audit rows
// older than the retention window.
func NewAuditPruneHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionDays <= 0 {
			return nil
		}
		cutoff := time.Now().UTC().AddDate(0, 0, -payload.RetentionDays)
		tag, err := pool.Exec(ctx,
			`DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
		if err != nil {
			logger.Error("audit prune", slog.Any("error", err))
			return err
		}
		logger.Info("audit prune done",
			slog.Int64("deleted", tag.RowsAffected()),
			slog.Time("cutoff", cutoff))
		return nil
	}
}
