package devserver_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/resources"
	"github.com/jrsteele09/go-erp-client/tenantclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, c *tenantclient.Client) {
	t.Helper()
	_, err := c.Login(context.Background(), email, password)
	require.NoError(t, err)
}

func TestLoginAndListSeededLocations(t *testing.T) {
	env := newTestEnv(t)
	store := credentials.NewMemoryStore(nil)
	c := env.client(t, "acme", store)

	result, err := c.Login(context.Background(), email, password)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Contains(t, string(result.User), `"tenant":"acme"`)

	tok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, env.clock.Now().Add(5*time.Minute), tok.Expiry, 2*time.Second)

	page, err := resources.New(c).Locations.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, "WH01", page.Results[0].Code)
}

func TestWrongPasswordIsAuthErrorWithoutRefresh(t *testing.T) {
	env := newTestEnv(t)
	reg := prometheus.NewRegistry()
	c := env.client(t, "acme", credentials.NewMemoryStore(nil), tenantclient.WithMetrics(tenantclient.NewMetrics(reg)))

	_, err := c.Login(context.Background(), email, "Wrong-password1")
	require.True(t, tenantclient.IsAuth(err))

	count, err := testutil.GatherAndCount(reg, "erp_client_token_refreshes_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	for _, mode := range []struct {
		name string
		opts []tenantclient.Option
	}{
		{name: "global"},
		{name: "tenant", opts: []tenantclient.Option{tenantclient.WithTenantRefresh()}},
	} {
		t.Run(mode.name, func(t *testing.T) {
			env := newTestEnv(t)
			reg := prometheus.NewRegistry()
			store := credentials.NewMemoryStore(nil)
			c := env.client(t, "acme", store, append(mode.opts, tenantclient.WithMetrics(tenantclient.NewMetrics(reg)))...)
			login(t, c)

			before, err := store.Load(context.Background())
			require.NoError(t, err)

			env.clock.Advance(10 * time.Minute)
			page, err := resources.New(c).Invoices.List(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, 2, page.Count)

			after, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.NotEqual(t, before.AccessToken, after.AccessToken)
			assert.Equal(t, before.RefreshToken, after.RefreshToken)
			assert.Equal(t, 1.0, counterValue(t, reg, "erp_client_token_refreshes_total", "result", "success"))
			assert.Equal(t, 1.0, counterValue(t, reg, "erp_client_auth_retries_total", "", ""))
		})
	}
}

func TestExpiredRefreshTokenEndsSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, "acme", credentials.NewMemoryStore(nil))
	login(t, c)

	env.clock.Advance(8 * 24 * time.Hour)
	_, err := c.Get(context.Background(), resources.LocationsPath, nil)
	require.Error(t, err)
	assert.True(t, tenantclient.IsAuth(err))
	assert.ErrorIs(t, err, errors.ErrRefreshFailed)

	var refreshErr *tenantclient.RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, http.StatusUnauthorized, refreshErr.Status)
	assert.JSONEq(t, `{"detail":"Token is invalid or expired","code":"token_not_valid"}`, string(refreshErr.Payload))
}

func TestTokenFromAnotherTenantIsRetriedOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	store := credentials.NewMemoryStore(nil)
	login(t, env.client(t, "acme", store))

	reg := prometheus.NewRegistry()
	globex := env.client(t, "globex", store, tenantclient.WithMetrics(tenantclient.NewMetrics(reg)))

	_, err := globex.Get(context.Background(), resources.InvoicesPath, nil)
	require.Error(t, err)

	var apiErr *tenantclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, tenantclient.KindAuth, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.JSONEq(t, `{"error":"unauthorized","error_description":"Token was issued for another tenant"}`, string(apiErr.Payload))
	assert.NoError(t, apiErr.Err, "the refresh itself succeeded")

	assert.Equal(t, 1.0, counterValue(t, reg, "erp_client_auth_retries_total", "", ""))
	assert.Equal(t, 1.0, counterValue(t, reg, "erp_client_token_refreshes_total", "result", "success"))
}

func TestTenantRefreshRejectsForeignRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	store := credentials.NewMemoryStore(nil)
	login(t, env.client(t, "acme", store))

	globex := env.client(t, "globex", store, tenantclient.WithTenantRefresh())
	_, err := globex.Get(context.Background(), resources.InvoicesPath, nil)
	assert.ErrorIs(t, err, errors.ErrRefreshFailed)
}

func TestRevokedAccessTokenRecovers(t *testing.T) {
	env := newTestEnv(t)
	store := credentials.NewMemoryStore(nil)
	c := env.client(t, "acme", store)
	login(t, c)

	tok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, env.server.Tokens().RevokeAccessToken(tok.AccessToken))

	_, err = c.Get(context.Background(), resources.LocationsPath, nil)
	require.NoError(t, err)
}

func TestDocumentWorkflow(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, "acme", credentials.NewMemoryStore(nil))
	login(t, c)
	erp := resources.New(c)
	ctx := context.Background()

	locations, err := erp.Locations.List(ctx, url.Values{"page_size": {"1"}})
	require.NoError(t, err)
	require.Len(t, locations.Results, 1)
	assert.Equal(t, 3, locations.Count)
	assert.Equal(t, resources.LocationsPath+"?page=2&page_size=1", locations.Next)

	order, err := erp.IncomingProducts.Create(ctx, resources.IncomingProduct{
		Reference:    "WH/IN/0001",
		SupplierName: "Initech",
		LocationID:   locations.Results[0].ID,
		Lines: []resources.Line{
			{ProductID: "p-1", Quantity: decimal.RequireFromString("12.5"), UnitCost: decimal.NewFromInt(3)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, resources.StatusDraft, order.Status)
	assert.True(t, order.Lines[0].Quantity.Equal(decimal.RequireFromString("12.5")))

	_, err = erp.IncomingProducts.Action(ctx, order.ID, resources.ActionValidate, nil)
	var apiErr *tenantclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, tenantclient.KindValidation, apiErr.Kind)
	assert.Contains(t, string(apiErr.Payload), "status")

	confirmed, err := erp.IncomingProducts.Action(ctx, order.ID, resources.ActionConfirm, nil)
	require.NoError(t, err)
	assert.Equal(t, resources.StatusConfirmed, confirmed.Status)

	done, err := erp.IncomingProducts.Action(ctx, order.ID, resources.ActionValidate, nil)
	require.NoError(t, err)
	assert.Equal(t, resources.StatusDone, done.Status)

	patched, err := erp.IncomingProducts.Patch(ctx, order.ID, map[string]any{"supplier_name": "Globex", "status": "draft"})
	require.NoError(t, err)
	assert.Equal(t, "Globex", patched.SupplierName)
	assert.Equal(t, resources.StatusDone, patched.Status, "status only changes through actions")

	require.NoError(t, erp.IncomingProducts.Delete(ctx, order.ID))
	_, err = erp.IncomingProducts.Get(ctx, order.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, tenantclient.KindHTTP, apiErr.Kind)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestValidationErrorsCarryPayload(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, "acme", credentials.NewMemoryStore(nil))
	login(t, c)

	_, err := resources.New(c).StockAdjustments.Create(context.Background(), resources.StockAdjustment{
		LocationID: "l-1",
		ProductID:  "p-1",
		Quantity:   decimal.Zero,
		Reason:     "count",
	})
	var apiErr *tenantclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, tenantclient.KindValidation, apiErr.Kind)
	assert.JSONEq(t, `{"quantity":["Adjustment quantity cannot be zero."]}`, string(apiErr.Payload))
}

func TestInvoiceTotalsFromSeededData(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, "acme", credentials.NewMemoryStore(nil))
	login(t, c)

	page, err := resources.New(c).Invoices.List(context.Background(), nil)
	require.NoError(t, err)
	for _, inv := range page.Results {
		assert.NotEmpty(t, inv.Lines)
		assert.True(t, inv.Subtotal().IsPositive())
	}
}

func TestUnknownTenantIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t, "initech", credentials.NewMemoryStore(nil))

	_, err := c.Login(context.Background(), email, password)
	var apiErr *tenantclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, tenantclient.KindHTTP, apiErr.Kind)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
