package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-ppm/keystone/internal/shared"
)

type mockRepository struct {
	users  map[string]*User
	hashes map[string]string
	order  []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[string]*User),
		hashes: make(map[string]string),
	}
}

func (m *mockRepository) List(_ context.Context, tenantID string, page shared.Pagination) ([]User, int, error) {
	var out []User
	for _, id := range m.order {
		u := m.users[id]
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	total := len(out)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.PerPage
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *mockRepository) GetByID(_ context.Context, tenantID, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) Create(_ context.Context, user *User, passwordHash string) error {
	for _, existing := range m.users {
		if existing.TenantID == user.TenantID && existing.Username == user.Username {
			return shared.ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	m.hashes[user.ID] = passwordHash
	m.order = append(m.order, user.ID)
	return nil
}

func (m *mockRepository) Update(_ context.Context, user *User) error {
	if _, ok := m.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateGrants(_ context.Context, tenantID, id string, grants shared.Grants) error {
	u, ok := m.users[id]
	if !ok || u.TenantID != tenantID {
		return shared.ErrNotFound
	}
	u.PortfolioAccess = grants.Portfolios
	u.ProjectAccess = grants.Projects
	return nil
}

func (m *mockRepository) AccessGrants(_ context.Context, tenantID, userID string) (shared.Grants, error) {
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return shared.Grants{}, shared.ErrNotFound
	}
	return shared.Grants{Portfolios: u.PortfolioAccess, Projects: u.ProjectAccess}, nil
}

func admin() shared.Identity {
	return shared.Identity{TenantID: "t1", UserID: "admin-1", Role: "admin"}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "eve",
		Password: "pw-long-enough",
		Role:     "superuser",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateSetsPendingStatusAndEmptyGrants(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	user, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "pm",
		Email:    "pm@acme.test",
		Password: "pw-long-enough",
		Role:     "project_manager",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPendingVerification, user.Status)
	assert.NotNil(t, user.PortfolioAccess)
	assert.Empty(t, user.PortfolioAccess)
	assert.NotEmpty(t, repo.hashes[user.ID])
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	in := CreateInput{Username: "pm", Password: "pw-long-enough", Role: "resource"}
	_, err := svc.Create(context.Background(), admin(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admin(), in)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateCannotChangeRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	user, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "res", Password: "pw-long-enough", Role: "resource",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), admin(), user.ID, UpdateInput{
		FullName: "Renamed",
		Status:   StatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, "resource", updated.Role)
	assert.Equal(t, StatusActive, updated.Status)
	assert.Equal(t, "Renamed", updated.FullName)
}

func TestUpdateValidatesStatus(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	user, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "res", Password: "pw-long-enough", Role: "resource",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), admin(), user.ID, UpdateInput{Status: "banned"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSetGrantsNormalisesNilSlices(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	user, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "viewer", Password: "pw-long-enough", Role: "viewer",
	})
	require.NoError(t, err)

	updated, err := svc.SetGrants(context.Background(), admin(), user.ID, shared.Grants{})
	require.NoError(t, err)
	assert.NotNil(t, updated.PortfolioAccess)
	assert.NotNil(t, updated.ProjectAccess)

	updated, err = svc.SetGrants(context.Background(), admin(), user.ID, shared.Grants{
		Portfolios: []string{"pf-1"},
		Projects:   []string{"pr-1", "pr-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pf-1"}, updated.PortfolioAccess)
	assert.Equal(t, []string{"pr-1", "pr-2"}, updated.ProjectAccess)

	grants, err := repo.AccessGrants(context.Background(), "t1", user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pr-1", "pr-2"}, grants.Projects)
}

func TestListPaginatesWithinTenant(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(context.Background(), admin(), CreateInput{
			Username: name, Password: "pw-long-enough", Role: "resource",
		})
		require.NoError(t, err)
	}
	other := shared.Identity{TenantID: "t2", UserID: "x", Role: "admin"}
	_, err := svc.Create(context.Background(), other, CreateInput{
		Username: "d", Password: "pw-long-enough", Role: "resource",
	})
	require.NoError(t, err)

	users, page, err := svc.List(context.Background(), admin(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 3, page.Total)

	users, _, err = svc.List(context.Background(), admin(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
