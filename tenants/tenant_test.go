package tenants_test

import (
	"testing"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenants"
	tenantrepofakes "github.com/jrsteele09/go-erp-client/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

func TestOrigin(t *testing.T) {
	u, err := tenants.Origin("", "Acme", "api.erp.test")
	require.NoError(t, err)
	require.Equal(t, "https://acme.api.erp.test", u.String())

	u, err = tenants.Origin("http", "acme", "api.erp.test:8080")
	require.NoError(t, err)
	require.Equal(t, "http://acme.api.erp.test:8080", u.String())
}

func TestOriginRejectsBadInput(t *testing.T) {
	_, err := tenants.Origin("https", "", "api.erp.test")
	require.ErrorIs(t, err, errors.ErrMissingSchemaName)

	_, err = tenants.Origin("https", "ac.me", "api.erp.test")
	require.ErrorIs(t, err, errors.ErrInvalidOrigin)

	_, err = tenants.Origin("https", "acme", "")
	require.ErrorIs(t, err, errors.ErrInvalidAPIHost)

	_, err = tenants.Origin("https", "acme", "api.erp.test/v1")
	require.ErrorIs(t, err, errors.ErrInvalidAPIHost)
}

func TestAPIOrigin(t *testing.T) {
	u, err := tenants.APIOrigin("https", "api.erp.test")
	require.NoError(t, err)
	require.Equal(t, "https://api.erp.test", u.String())
}

func TestSchemaFromHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		want    string
		wantErr bool
	}{
		{name: "subdomain", host: "acme.api.erp.test", want: "acme"},
		{name: "subdomain with port", host: "ACME.api.erp.test:8443", want: "acme"},
		{name: "bare api host", host: "api.erp.test", want: ""},
		{name: "nested subdomain", host: "x.acme.api.erp.test", wantErr: true},
		{name: "foreign host", host: "acme.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tenants.SchemaFromHost(tt.host, "api.erp.test:8080")
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrTenantNotFound)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityValidate(t *testing.T) {
	require.ErrorIs(t, tenants.Identity{}.Validate(), errors.ErrMissingSchemaName)
	require.NoError(t, tenants.Identity{SchemaName: "acme"}.Validate())
}

func TestFakeTenantRepo(t *testing.T) {
	repo := tenantrepofakes.NewFakeTenantRepo()
	for _, schema := range []string{"globex", "acme", "initech"} {
		require.NoError(t, repo.Upsert(&tenants.Tenant{Name: schema, SchemaName: schema}))
	}

	got, err := repo.Get("acme")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)

	page, err := repo.List(1, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "globex", page[0].SchemaName)

	require.NoError(t, repo.Delete("acme"))
	_, err = repo.Get("acme")
	require.ErrorIs(t, err, errors.ErrTenantNotFound)
}
