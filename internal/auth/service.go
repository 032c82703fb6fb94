package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-ppm/keystone/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
	store  *RefreshStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, store *RefreshStore) *Service {
	return &Service{repo: repo, tokens: tokens, store: store}
}

// Authenticate validates tenant code plus username/password credentials and
// issues a token pair. Every failure collapses to ErrInvalidCredentials so
// the response does not reveal which part was wrong.
func (s *Service) Authenticate(ctx context.Context, tenantCode, username, password string) (*Account, TokenPair, error) {
	tenant, err := s.repo.FindTenantByCode(ctx, tenantCode)
	if err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if tenant.Status != "active" {
		return nil, TokenPair{}, shared.ErrTenantSuspended
	}
	account, err := s.repo.FindAccountByUsername(ctx, tenant.ID, username)
	if err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if account.Status != StatusActive {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(account.ID, account.TenantID, account.Role)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.store.Register(ctx, pair.RefreshID(), account.ID); err != nil {
		return nil, TokenPair{}, err
	}
	_ = s.repo.TouchLastLogin(ctx, account.ID, time.Now())
	return account, pair, nil
}

// Refresh rotates a refresh token: the presented token is verified,
// retired, and replaced by a fresh pair. A replayed or revoked token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Consume(ctx, claims.ID); err != nil {
		return TokenPair{}, err
	}
	account, err := s.repo.FindAccountByID(ctx, claims.TenantID, claims.Subject)
	if err != nil {
		return TokenPair{}, err
	}
	if account.Status != StatusActive {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	pair, err := s.tokens.IssuePair(account.ID, account.TenantID, account.Role)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Register(ctx, pair.RefreshID(), account.ID); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout revokes the presented refresh token. Invalid tokens are ignored;
// logout is idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	return s.store.Revoke(ctx, claims.ID)
}
