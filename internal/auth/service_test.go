package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-ppm/keystone/internal/shared"
)

type mockRepo struct {
	tenants  map[string]*Tenant
	accounts map[string]*Account
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		tenants:  make(map[string]*Tenant),
		accounts: make(map[string]*Account),
	}
}

func (m *mockRepo) FindTenantByCode(ctx context.Context, code string) (*Tenant, error) {
	t, ok := m.tenants[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (m *mockRepo) FindAccountByUsername(ctx context.Context, tenantID, username string) (*Account, error) {
	for _, a := range m.accounts {
		if a.TenantID == tenantID && a.Username == username {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) FindAccountByID(ctx context.Context, tenantID, id string) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) TouchLastLogin(ctx context.Context, accountID string, at time.Time) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour)
	store := NewRefreshStore(client, 24*time.Hour)
	repo := newMockRepo()
	return NewService(repo, tokens, store), repo
}

func seedAccount(t *testing.T, repo *mockRepo, password string) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.tenants["acme"] = &Tenant{ID: "tenant-1", Code: "acme", Status: "active"}
	account := &Account{
		ID:           "user-1",
		TenantID:     "tenant-1",
		Username:     "jordan",
		Email:        "jordan@example.com",
		PasswordHash: string(hash),
		Role:         "project_manager",
		Status:       StatusActive,
	}
	repo.accounts[account.ID] = account
	return account
}

func TestAuthenticateIssuesPair(t *testing.T) {
	svc, repo := newTestService(t)
	seedAccount(t, repo, "hunter2hunter2")

	account, pair, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "user-1", account.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuthenticateCollapsesFailures(t *testing.T) {
	svc, repo := newTestService(t)
	seedAccount(t, repo, "hunter2hunter2")

	// Unknown tenant, unknown user, and bad password are indistinguishable.
	_, _, err := svc.Authenticate(context.Background(), "nope", "jordan", "hunter2hunter2")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Authenticate(context.Background(), "acme", "nobody", "hunter2hunter2")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Authenticate(context.Background(), "acme", "jordan", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateSuspendedTenant(t *testing.T) {
	svc, repo := newTestService(t)
	seedAccount(t, repo, "hunter2hunter2")
	repo.tenants["acme"].Status = "suspended"

	_, _, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	assert.ErrorIs(t, err, shared.ErrTenantSuspended)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	svc, repo := newTestService(t)
	account := seedAccount(t, repo, "hunter2hunter2")
	account.Status = StatusSuspended

	_, _, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo := newTestService(t)
	seedAccount(t, repo, "hunter2hunter2")

	_, pair, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshID(), next.RefreshID())

	// The first refresh token is spent; replaying it fails.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, repo := newTestService(t)
	seedAccount(t, repo, "hunter2hunter2")

	_, pair, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshChecksAccountStatus(t *testing.T) {
	svc, repo := newTestService(t)
	account := seedAccount(t, repo, "hunter2hunter2")

	_, pair, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	require.NoError(t, err)

	account.Status = StatusSuspended
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, repo := newTestService(t)
	seedAccount(t, repo, "hunter2hunter2")

	_, pair, err := svc.Authenticate(context.Background(), "acme", "jordan", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshRevoked)

	// Logging out twice or with garbage is a no-op.
	assert.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	assert.NoError(t, svc.Logout(context.Background(), "garbage"))
}
