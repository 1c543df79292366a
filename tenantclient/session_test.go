package tenantclient_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenantclient"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPersistsTokens(t *testing.T) {
	b := newFakeBackend(t)
	store := credentials.NewMemoryStore(nil)
	c, err := tenantclient.New(testTenant, "", b.options(tenantclient.WithStore(store))...)
	require.NoError(t, err)

	result, err := c.Login(context.Background(), "ops@acme.test", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "valid", result.AccessToken)
	assert.Equal(t, "refresh-login", result.RefreshToken)
	assert.JSONEq(t, `{"email":"ops@acme.test"}`, string(result.User))

	tok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "valid", tok.AccessToken)
	assert.Equal(t, "refresh-login", tok.RefreshToken)

	_, err = c.Get(context.Background(), "/inventory/location/", nil)
	require.NoError(t, err)
	calls, _, _ := b.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer valid", calls[0].Auth)
}

func TestLoginWithBadCredentialsDoesNotRefresh(t *testing.T) {
	b := newFakeBackend(t)
	c, store := newClient(t, b, "expired", "refresh-1")

	_, err := c.Login(context.Background(), "ops@acme.test", "wrong")
	require.Error(t, err)

	var apiErr *tenantclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, tenantclient.KindAuth, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.JSONEq(t, `{"detail":"invalid credentials"}`, string(apiErr.Payload))

	_, global, tenantRefreshes := b.snapshot()
	assert.Empty(t, global)
	assert.Empty(t, tenantRefreshes)

	tok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "expired", tok.AccessToken)
}

func TestRefreshTenantToken(t *testing.T) {
	b := newFakeBackend(t)
	c, store := newClient(t, b, "expired", "refresh-1")

	tok, err := c.RefreshTenantToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)

	_, global, tenantRefreshes := b.snapshot()
	assert.Empty(t, global)
	assert.Equal(t, []string{"refresh-1"}, tenantRefreshes)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
}

func TestRefreshTenantTokenRejected(t *testing.T) {
	b := newFakeBackend(t)
	b.refreshStatus = http.StatusUnauthorized
	b.refreshBody = `{"detail":"Token is invalid or expired"}`
	c, _ := newClient(t, b, "expired", "refresh-1")

	_, err := c.RefreshTenantToken(context.Background())
	require.True(t, tenantclient.IsAuth(err))
	assert.ErrorIs(t, err, errors.ErrRefreshFailed)
}

func TestRefreshTenantTokenWithoutRefreshToken(t *testing.T) {
	b := newFakeBackend(t)
	c, err := tenantclient.New(testTenant, "expired", b.options()...)
	require.NoError(t, err)

	_, err = c.RefreshTenantToken(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoRefreshToken)

	_, _, tenantRefreshes := b.snapshot()
	assert.Empty(t, tenantRefreshes)
}

func TestLogoutClearsStore(t *testing.T) {
	b := newFakeBackend(t)
	c, store := newClient(t, b, "valid", "refresh-1")

	require.NoError(t, c.Logout(context.Background()))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoCredentials)

	id := c.Identity(context.Background())
	assert.Equal(t, "valid", id.AccessToken, "falls back to the construction token")
	assert.Empty(t, id.RefreshToken)
}

func TestIdentityTracksStore(t *testing.T) {
	b := newFakeBackend(t)
	c, _ := newClient(t, b, "expired", "refresh-1")

	_, err := c.Get(context.Background(), "/invoice/", nil)
	require.NoError(t, err)

	assert.Equal(t, tenants.Identity{SchemaName: testTenant, AccessToken: "fresh", RefreshToken: "refresh-1"}, c.Identity(context.Background()))
}
