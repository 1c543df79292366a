// Package token issues and verifies the development backend's tokens: HS256
// JWT access tokens scoped to one tenant, and opaque refresh tokens.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/token/refresh"
	"github.com/jrsteele09/go-erp-client/users"
)

// Claims are the access token claims. Tenant is the schema name the token is
// valid for.
type Claims struct {
	Tenant string `json:"tenant"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type Manager struct {
	signer            Signer
	refresh           *refresh.Manager
	revokedCache      RevokedTokenCache
	issuer            string
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(refreshManager *refresh.Manager, signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		refresh:      refreshManager,
		revokedCache: NewInMemoryRevokedTokenCache(),
		issuer:       "erp-devserver",
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 5 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// CreateAccessToken signs an access token for userID, valid only on the
// tenant schemaName.
func (m *Manager) CreateAccessToken(userID, email, schemaName string) (string, error) {
	now := m.nowFunc()
	claims := Claims{
		Tenant: schemaName,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := m.signer.Sign(&claims)
	if err != nil {
		return "", errors.Wrapf(err, "Manager.CreateAccessToken")
	}
	return signed, nil
}

// IssueTokens creates an access and refresh token pair for a logged in user.
func (m *Manager) IssueTokens(user *users.User) (*TokenPair, error) {
	access, err := m.CreateAccessToken(user.ID, user.Email, user.SchemaName)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.refresh.Create(user.ID, user.Email, user.SchemaName)
	if err != nil {
		return nil, errors.Wrapf(err, "Manager.IssueTokens")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.accessTokenExpiry.Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new access token. A non-empty
// schemaName restricts the exchange to refresh tokens of that tenant.
func (m *Manager) Refresh(refreshToken, schemaName string) (string, error) {
	rt, err := m.refresh.Validate(refreshToken, schemaName)
	if err != nil {
		return "", err
	}
	return m.CreateAccessToken(rt.UserID, rt.Email, rt.SchemaName)
}

// Verify parses and validates an access token: signature, issuer, expiry
// and revocation.
func (m *Manager) Verify(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, m.signer.Keyfunc,
		jwt.WithValidMethods([]string{m.signer.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	if claims.ID != "" && m.revokedCache.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: revoked", errors.ErrInvalidToken)
	}
	return claims, nil
}

// RevokeAccessToken rejects rawToken from now on, ahead of its expiry.
func (m *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := m.Verify(rawToken)
	if err != nil {
		return err
	}
	return m.revokedCache.Add(claims.ID, claims.ExpiresAt.Time)
}

// InvalidateRefreshToken deletes refreshToken so it can no longer be exchanged.
func (m *Manager) InvalidateRefreshToken(refreshToken string) error {
	return m.refresh.Delete(refreshToken)
}

func (m *Manager) CleanupRevokedTokens() {
	m.revokedCache.Cleanup(m.nowFunc())
}
