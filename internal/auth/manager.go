package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/playtube/backend/internal/models"
)

var (
	// ErrTokenMismatch indicates a refresh token no longer matches the
	// stored value: it was superseded by a later login/refresh or revoked
	// by logout.
	ErrTokenMismatch = errors.New("refresh token superseded or revoked")
)

// RefreshTokenStore persists the single currently valid refresh token per
// user. An empty stored value means the user has no active session.
type RefreshTokenStore interface {
	RefreshToken(ctx context.Context, userID string) (string, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
}

// Manager manages the session lifecycle: issuing paired access and refresh
// tokens, rotating the refresh token on use, and revoking it on logout.
// Each user holds at most one live refresh token, so a login or refresh
// invalidates any previously issued one.
type Manager struct {
	issuer *TokenIssuer
	store  RefreshTokenStore
}

// NewManager constructs a Manager backed by the provided issuer and store.
func NewManager(issuer *TokenIssuer, store RefreshTokenStore) *Manager {
	if issuer == nil || store == nil {
		panic("auth: issuer and refresh token store must not be nil")
	}
	return &Manager{issuer: issuer, store: store}
}

// Issue creates a fresh token pair for the user and persists the refresh
// token as the user's current session credential.
func (m *Manager) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	access, accessExp, err := m.issuer.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExp, err := m.issuer.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := m.store.SetRefreshToken(ctx, userID, refresh); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a presented refresh token for a new pair. The token must
// verify and must equal the stored value for its subject; a stale token is
// rejected with ErrTokenMismatch. On success the stored token is rotated, so
// the presented token cannot be used twice.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	if presented == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	userID, err := m.issuer.VerifyRefresh(presented)
	if err != nil {
		return models.TokenPair{}, err
	}

	stored, err := m.store.RefreshToken(ctx, userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if stored == "" || stored != presented {
		return models.TokenPair{}, ErrTokenMismatch
	}

	return m.Issue(ctx, userID)
}

// Revoke clears the user's stored refresh token, ending the active session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
