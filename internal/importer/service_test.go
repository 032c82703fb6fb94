package importer

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-ppm/keystone/internal/shared"
	"github.com/keystone-ppm/keystone/jobs"
)

type captureEnqueuer struct {
	payloads []jobs.ImportBatchPayload
	err      error
}

func (c *captureEnqueuer) EnqueueImportBatch(ctx context.Context, payload jobs.ImportBatchPayload) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.payloads = append(c.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

func identity() shared.Identity {
	return shared.Identity{UserID: "user-1", TenantID: "tenant-1", Role: "pmo_admin"}
}

func TestImportProjectsEnqueuesBatch(t *testing.T) {
	queue := &captureEnqueuer{}
	svc := NewService(queue, nil)

	csv := "name,code,type,budget\nAlpha,ALP,research,1000\nBeta,BET,,\n"
	result, err := svc.Import(context.Background(), identity(), KindProjects, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 1, result.Batches)
	require.Len(t, queue.payloads, 1)

	payload := queue.payloads[0]
	assert.Equal(t, "tenant-1", payload.TenantID)
	assert.Equal(t, "user-1", payload.ActorID)
	assert.Equal(t, KindProjects, payload.Kind)
	require.Len(t, payload.Rows, 2)
	assert.Equal(t, "Alpha", payload.Rows[0].Name)
	assert.Equal(t, float64(1000), payload.Rows[0].Budget)
}

func TestImportTasksRequiresProjectID(t *testing.T) {
	queue := &captureEnqueuer{}
	svc := NewService(queue, nil)

	csv := "name,project_id\nFix login,prj-1\nOrphan task,\n"
	_, err := svc.Import(context.Background(), identity(), KindTasks, strings.NewReader(csv))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Errors, 1)
	assert.Equal(t, 3, vErr.Errors[0].Line)
	assert.Empty(t, queue.payloads, "nothing enqueued when any row fails")
}

func TestImportRejectsMissingColumns(t *testing.T) {
	svc := NewService(&captureEnqueuer{}, nil)

	_, err := svc.Import(context.Background(), identity(), KindProjects, strings.NewReader("name,description\nAlpha,x\n"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestImportRejectsUnknownKind(t *testing.T) {
	svc := NewService(&captureEnqueuer{}, nil)

	_, err := svc.Import(context.Background(), identity(), "risks", strings.NewReader("name\n"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestImportRejectsEmptyFile(t *testing.T) {
	svc := NewService(&captureEnqueuer{}, nil)

	_, err := svc.Import(context.Background(), identity(), KindProjects, strings.NewReader("name,code\n"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestImportRejectsBadBudget(t *testing.T) {
	svc := NewService(&captureEnqueuer{}, nil)

	csv := "name,code,budget\nAlpha,ALP,lots\n"
	_, err := svc.Import(context.Background(), identity(), KindProjects, strings.NewReader(csv))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "invalid budget", vErr.Errors[0].Message)
}

func TestImportSplitsLargeUploadsIntoBatches(t *testing.T) {
	queue := &captureEnqueuer{}
	svc := NewService(queue, nil)

	var sb strings.Builder
	sb.WriteString("name,code\n")
	for i := 0; i < 450; i++ {
		sb.WriteString("Project,P-")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("\n")
	}
	result, err := svc.Import(context.Background(), identity(), KindProjects, strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, 450, result.Rows)
	assert.Equal(t, 3, result.Batches)
	require.Len(t, queue.payloads, 3)
	assert.Len(t, queue.payloads[0].Rows, 200)
	assert.Len(t, queue.payloads[2].Rows, 50)

	// Every batch shares the same import id.
	assert.Equal(t, queue.payloads[0].ImportID, queue.payloads[2].ImportID)
}
