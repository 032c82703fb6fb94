// Package importer turns uploaded CSV files into background import batches.
// The HTTP layer parses and validates rows synchronously, then enqueues one
// task per batch; the worker persists rows through the domain repositories.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/keystone-ppm/keystone/internal/shared"
	"github.com/keystone-ppm/keystone/jobs"
)

// batchSize bounds the payload of a single queue task.
const batchSize = 200

// maxRows bounds one upload.
const maxRows = 10000

// Enqueuer submits import batches to the queue. Implemented by jobs.Client.
type Enqueuer interface {
	EnqueueImportBatch(ctx context.Context, payload jobs.ImportBatchPayload) (*asynq.TaskInfo, error)
}

// KindProjects and KindTasks name the supported import kinds.
const (
	KindProjects = "projects"
	KindTasks    = "tasks"
)

// Result summarises an accepted upload.
type Result struct {
	ImportID string `json:"import_id"`
	Kind     string `json:"kind"`
	Rows     int    `json:"rows_accepted"`
	Batches  int    `json:"batches_enqueued"`
}

// RowError describes one rejected CSV line.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ValidationError carries per-row failures back to the client.
type ValidationError struct {
	Errors []RowError `json:"errors"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("importer: %d invalid rows", len(e.Errors))
}

// Service parses uploads and feeds the queue.
type Service struct {
	queue Enqueuer
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(queue Enqueuer, audit *shared.AuditLogger) *Service {
	return &Service{queue: queue, audit: audit}
}

// Import parses the CSV stream, validates every row, and enqueues batches.
// Nothing is enqueued when any row fails validation.
func (s *Service) Import(ctx context.Context, id shared.Identity, kind string, src io.Reader) (*Result, error) {
	if kind != KindProjects && kind != KindTasks {
		return nil, shared.ErrValidation
	}

	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, shared.ErrValidation
	}
	cols := indexColumns(header)
	if err := requireColumns(kind, cols); err != nil {
		return nil, err
	}

	var (
		rows     []jobs.ImportRow
		rowErrs  []RowError
		lineNo   = 1
		parseErr *csv.ParseError
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNo++
		if err != nil {
			if errors.As(err, &parseErr) {
				rowErrs = append(rowErrs, RowError{Line: lineNo, Message: "malformed row"})
				continue
			}
			return nil, err
		}
		if len(rows)+1 > maxRows {
			return nil, shared.ErrValidation
		}
		row, rerr := parseRow(kind, cols, record)
		if rerr != "" {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Message: rerr})
			continue
		}
		rows = append(rows, row)
	}
	if len(rowErrs) > 0 {
		return nil, &ValidationError{Errors: rowErrs}
	}
	if len(rows) == 0 {
		return nil, shared.ErrValidation
	}

	importID := uuid.NewString()
	batches := 0
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		payload := jobs.ImportBatchPayload{
			ImportID: importID,
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Kind:     kind,
			Rows:     rows[start:end],
		}
		if _, err := s.queue.EnqueueImportBatch(ctx, payload); err != nil {
			return nil, err
		}
		batches++
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			TenantID: id.TenantID,
			ActorID:  id.UserID,
			Action:   "import.accepted",
			Entity:   "import",
			EntityID: importID,
			Meta:     map[string]any{"kind": kind, "rows": len(rows)},
		})
	}
	return &Result{ImportID: importID, Kind: kind, Rows: len(rows), Batches: batches}, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func requireColumns(kind string, cols map[string]int) error {
	required := []string{"name"}
	if kind == KindTasks {
		required = append(required, "project_id")
	} else {
		required = append(required, "code")
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return shared.ErrValidation
		}
	}
	return nil
}

func parseRow(kind string, cols map[string]int, record []string) (jobs.ImportRow, string) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := jobs.ImportRow{
		Name:        field("name"),
		Code:        field("code"),
		Description: field("description"),
		Type:        field("type"),
		Priority:    field("priority"),
		ProjectID:   field("project_id"),
		PortfolioID: field("portfolio_id"),
		ManagerID:   field("manager_id"),
	}
	if row.Name == "" {
		return row, "name is required"
	}
	if kind == KindProjects && row.Code == "" {
		return row, "code is required"
	}
	if kind == KindTasks && row.ProjectID == "" {
		return row, "project_id is required"
	}
	if v := field("budget"); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil || budget < 0 {
			return row, "invalid budget"
		}
		row.Budget = budget
	}
	if v := field("hours"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours < 0 {
			return row, "invalid hours"
		}
		row.Hours = hours
	}
	return row, ""
}
