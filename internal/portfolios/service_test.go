package portfolios

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/shared"
)

type mockRepository struct {
	portfolios map[string]*Portfolio

	getError    error
	updateError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{portfolios: make(map[string]*Portfolio)}
}

func (m *mockRepository) List(ctx context.Context, tenantID string, page shared.Pagination) ([]Portfolio, int, error) {
	var out []Portfolio
	for _, p := range m.portfolios {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) GetByID(ctx context.Context, tenantID, id string) (*Portfolio, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.portfolios[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, p *Portfolio) error {
	for _, existing := range m.portfolios {
		if existing.TenantID == p.TenantID && existing.Code == p.Code {
			return shared.ErrDuplicate
		}
	}
	cp := *p
	m.portfolios[p.ID] = &cp
	return nil
}

func (m *mockRepository) Update(ctx context.Context, p *Portfolio) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.portfolios[p.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *p
	m.portfolios[p.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, tenantID, id string) error {
	p, ok := m.portfolios[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(m.portfolios, id)
	return nil
}

func (m *mockRepository) AttachProject(ctx context.Context, tenantID, id, projectID string) error {
	p, ok := m.portfolios[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	p.ProjectIDs = append(p.ProjectIDs, projectID)
	return nil
}

func (m *mockRepository) DetachProject(ctx context.Context, tenantID, id, projectID string) error {
	p, ok := m.portfolios[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	out := p.ProjectIDs[:0]
	for _, pid := range p.ProjectIDs {
		if pid != projectID {
			out = append(out, pid)
		}
	}
	p.ProjectIDs = out
	return nil
}

type mockGrants struct {
	grants map[string]shared.Grants
}

func (m *mockGrants) AccessGrants(ctx context.Context, tenantID, userID string) (shared.Grants, error) {
	g, ok := m.grants[userID]
	if !ok {
		return shared.Grants{Portfolios: []string{}, Projects: []string{}}, nil
	}
	return g, nil
}

func identity(userID, role string) shared.Identity {
	return shared.Identity{UserID: userID, TenantID: "tenant-1", Role: role}
}

func seedPortfolio(repo *mockRepository, id, managerID string) *Portfolio {
	p := &Portfolio{
		ID:         id,
		TenantID:   "tenant-1",
		Name:       "Portfolio " + id,
		Code:       "PF-" + id,
		Status:     StatusActive,
		ManagerID:  managerID,
		Sponsors:   []string{},
		ProjectIDs: []string{},
	}
	repo.portfolios[id] = p
	return p
}

func TestGetAnnotatesAccessLevel(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	p, err := svc.Get(context.Background(), identity("manager-1", "portfolio_manager"), "pf-1")
	require.NoError(t, err)
	assert.Equal(t, "full", p.AccessLevel)

	p, err = svc.Get(context.Background(), identity("someone-else", "portfolio_manager"), "pf-1")
	require.NoError(t, err)
	assert.Equal(t, "read_only", p.AccessLevel)
}

func TestGetHidesPortfolioFromViewerWithoutGrant(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	_, err := svc.Get(context.Background(), identity("viewer-1", "viewer"), "pf-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRequiresWriteLevel(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	// Another portfolio manager only reads; update is refused.
	_, err := svc.Update(context.Background(), identity("other-pm", "portfolio_manager"), "pf-1", UpdateInput{Name: "Renamed"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// The owning manager has full access.
	p, err := svc.Update(context.Background(), identity("manager-1", "portfolio_manager"), "pf-1", UpdateInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
}

func TestUpdateViaGrant(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	grants := &mockGrants{grants: map[string]shared.Grants{
		"granted-pm": {Portfolios: []string{"pf-1"}},
	}}
	svc := NewService(repo, grants, nil)

	p, err := svc.Update(context.Background(), identity("granted-pm", "portfolio_manager"), "pf-1", UpdateInput{Name: "Granted"})
	require.NoError(t, err)
	assert.Equal(t, "Granted", p.Name)
}

func TestReassignManagerNeedsFullAccess(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	grants := &mockGrants{grants: map[string]shared.Grants{
		"granted-pm": {Portfolios: []string{"pf-1"}},
	}}
	svc := NewService(repo, grants, nil)

	// Grant-based full access for portfolio managers allows reassignment.
	p, err := svc.Update(context.Background(), identity("granted-pm", "portfolio_manager"), "pf-1", UpdateInput{ManagerID: "manager-2"})
	require.NoError(t, err)
	assert.Equal(t, "manager-2", p.ManagerID)
}

func TestDeleteRequiresFullAccess(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	// pmo_admin resolves to full on any portfolio.
	err := svc.Delete(context.Background(), identity("pmo-1", "pmo_admin"), "pf-1")
	require.NoError(t, err)
	assert.Empty(t, repo.portfolios)
}

func TestDeleteRefusedBelowFull(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	// finance holds blanket read_write, which is not enough to delete.
	err := svc.Delete(context.Background(), identity("fin-1", "finance"), "pf-1")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Len(t, repo.portfolios, 1)
}

func TestListFiltersInvisibleAndAnnotates(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	seedPortfolio(repo, "pf-2", "manager-2")
	grants := &mockGrants{grants: map[string]shared.Grants{
		"viewer-1": {Portfolios: []string{"pf-2"}},
	}}
	svc := NewService(repo, grants, nil)

	// Viewer sees only the granted portfolio.
	items, _, err := svc.List(context.Background(), identity("viewer-1", "viewer"), 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pf-2", items[0].ID)
	assert.Equal(t, "read_only", items[0].AccessLevel)

	// Admin sees everything at full.
	items, _, err = svc.List(context.Background(), identity("admin-1", "admin"), 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "full", item.AccessLevel)
	}
}

func TestCreateDefaultsManagerToActor(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockGrants{}, nil)

	p, err := svc.Create(context.Background(), identity("pm-1", "portfolio_manager"), CreateInput{
		Name: "Growth", Code: "GRW",
	})
	require.NoError(t, err)
	assert.Equal(t, "pm-1", p.ManagerID)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, "full", p.AccessLevel)
}

func TestCreateDuplicateCode(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockGrants{}, nil)

	_, err := svc.Create(context.Background(), identity("pm-1", "portfolio_manager"), CreateInput{Name: "A", Code: "GRW"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), identity("pm-1", "portfolio_manager"), CreateInput{Name: "B", Code: "GRW"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestAttachProjectRequiresWrite(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	err := svc.AttachProject(context.Background(), identity("other-pm", "portfolio_manager"), "pf-1", "proj-1")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.AttachProject(context.Background(), identity("manager-1", "portfolio_manager"), "pf-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-1"}, repo.portfolios["pf-1"].ProjectIDs)
}

func TestResourceRoleReadsPortfolios(t *testing.T) {
	repo := newMockRepository()
	seedPortfolio(repo, "pf-1", "manager-1")
	svc := NewService(repo, &mockGrants{}, nil)

	p, err := svc.Get(context.Background(), identity("res-1", "resource"), "pf-1")
	require.NoError(t, err)
	assert.Equal(t, authz.ReadOnly.String(), p.AccessLevel)

	_, err = svc.Update(context.Background(), identity("res-1", "resource"), "pf-1", UpdateInput{Name: "X"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
