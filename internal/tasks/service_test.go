package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/shared"
)

type mockRepository struct {
	tasks map[string]*Task
}

func newMockRepository() *mockRepository {
	return &mockRepository{tasks: make(map[string]*Task)}
}

func (m *mockRepository) ListByProject(ctx context.Context, tenantID, projectID string, page shared.Pagination) ([]Task, int, error) {
	var out []Task
	for _, t := range m.tasks {
		if t.TenantID == tenantID && t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) GetByID(ctx context.Context, tenantID, id string) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, t *Task) error {
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockRepository) Update(ctx context.Context, t *Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, tenantID, id string) error {
	t, ok := m.tasks[id]
	if !ok || t.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// mockProjectAccess maps user id to a fixed level; missing users get
// ErrNotFound like an invisible project.
type mockProjectAccess struct {
	levels map[string]authz.AccessLevel
}

func (m *mockProjectAccess) ResolveLevel(ctx context.Context, id shared.Identity, projectID string) (authz.AccessLevel, error) {
	level, ok := m.levels[id.UserID]
	if !ok {
		return authz.NoAccess, shared.ErrNotFound
	}
	return level, nil
}

func identity(userID string) shared.Identity {
	return shared.Identity{UserID: userID, TenantID: "tenant-1", Role: "resource"}
}

func seedTask(repo *mockRepository, id string) *Task {
	t := &Task{
		ID:           id,
		TenantID:     "tenant-1",
		ProjectID:    "prj-1",
		Name:         "Task " + id,
		Type:         TypeTask,
		Status:       StatusTodo,
		Priority:     "medium",
		EstimatedHrs: 10,
		RemainingHrs: 10,
		Labels:       []string{},
		TimeEntries:  []TimeEntry{},
	}
	repo.tasks[id] = t
	return t
}

func TestCreateRequiresProjectWrite(t *testing.T) {
	repo := newMockRepository()
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{
		"writer": authz.ReadWrite,
		"reader": authz.ReadOnly,
	}}
	svc := NewService(repo, access, nil)

	_, err := svc.Create(context.Background(), identity("reader"), CreateInput{ProjectID: "prj-1", Name: "T"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	task, err := svc.Create(context.Background(), identity("writer"), CreateInput{ProjectID: "prj-1", Name: "T", EstimatedHrs: 8})
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, float64(8), task.RemainingHrs)
}

func TestGetHiddenWithInvisibleProject(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{}}
	svc := NewService(repo, access, nil)

	_, err := svc.Get(context.Background(), identity("stranger"), "task-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateStatusDone(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{"writer": authz.ReadWrite}}
	svc := NewService(repo, access, nil)

	task, err := svc.Update(context.Background(), identity("writer"), "task-1", UpdateInput{Status: StatusDone})
	require.NoError(t, err)
	assert.Equal(t, float64(100), task.PercentDone)
	assert.Zero(t, task.RemainingHrs)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{"writer": authz.ReadWrite}}
	svc := NewService(repo, access, nil)

	_, err := svc.Update(context.Background(), identity("writer"), "task-1", UpdateInput{Status: "shipped"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLogTimeAppendsEntryAndBurnsRemaining(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{"writer": authz.ReadWrite}}
	svc := NewService(repo, access, nil)

	task, err := svc.LogTime(context.Background(), identity("writer"), "task-1", TimeEntryInput{
		Date:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Hours: 6,
	})
	require.NoError(t, err)
	require.Len(t, task.TimeEntries, 1)
	assert.Equal(t, "writer", task.TimeEntries[0].UserID)
	assert.Equal(t, float64(4), task.RemainingHrs)

	task, err = svc.LogTime(context.Background(), identity("writer"), "task-1", TimeEntryInput{
		Date:  time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		Hours: 8,
	})
	require.NoError(t, err)
	assert.Zero(t, task.RemainingHrs)
}

func TestLogTimeValidatesHours(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{"writer": authz.ReadWrite}}
	svc := NewService(repo, access, nil)

	_, err := svc.LogTime(context.Background(), identity("writer"), "task-1", TimeEntryInput{Hours: 0})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.LogTime(context.Background(), identity("writer"), "task-1", TimeEntryInput{Hours: 25})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLogTimeRequiresWrite(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{"reader": authz.ReadOnly}}
	svc := NewService(repo, access, nil)

	_, err := svc.LogTime(context.Background(), identity("reader"), "task-1", TimeEntryInput{Hours: 2})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListRequiresProjectRead(t *testing.T) {
	repo := newMockRepository()
	seedTask(repo, "task-1")
	access := &mockProjectAccess{levels: map[string]authz.AccessLevel{"reader": authz.ReadOnly}}
	svc := NewService(repo, access, nil)

	items, _, err := svc.List(context.Background(), identity("reader"), "prj-1", 1, 20)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, _, err = svc.List(context.Background(), identity("stranger"), "prj-1", 1, 20)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
