package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/devserver"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ops@acme.test"
	testPassword = "Warehouse2024"
)

type cli struct {
	addr  string
	creds string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	for _, env := range []string{"ERP_TENANT", "ERP_API_HOST", "ERP_API_SCHEME", "ERP_CONNECT", "ERP_CREDENTIALS_FILE", "ERP_REFRESH_MODE", "ERP_PASSWORD"} {
		t.Setenv(env, "")
	}

	s, err := devserver.New(config.New(nil), devserver.WithAPIHost("erp.test"))
	require.NoError(t, err)
	require.NoError(t, s.SeedTenant(devserver.SeedOptions{
		SchemaName: "acme",
		Email:      testEmail,
		Password:   testPassword,
		Seed:       1,
		Locations:  2,
	}))
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	return &cli{addr: srv.Listener.Addr().String(), creds: filepath.Join(t.TempDir(), "credentials.json")}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(append([]string{
		"--tenant", "acme",
		"--api-host", "erp.test",
		"--scheme", "http",
		"--connect", c.addr,
		"--credentials", c.creds,
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginThenGet(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to http://acme.erp.test")
	assert.FileExists(t, c.creds)

	out, err = c.run(t, "get", "/inventory/location/")
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "WH01"`)
	assert.Contains(t, out, `"code": "WH02"`)
}

func TestPostWithData(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)

	out, err := c.run(t, "post", "/inventory/location/", "--data", `{"code":"WH09","name":"Overflow"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "WH09"`)

	_, err = c.run(t, "post", "/inventory/location/", "--data", `{"code":`)
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestValidationErrorShowsPayload(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)

	_, err = c.run(t, "post", "/inventory/location/", "--data", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code")
}

func TestLoginWrongPassword(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "login", "--email", testEmail, "--password", "nope")
	require.Error(t, err)
	assert.NoFileExists(t, c.creds)
}

func TestRequestWithoutSession(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "get", "/inventory/location/")
	assert.ErrorContains(t, err, "run erpctl login")
}

func TestWhoamiAndLogout(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "not logged in")

	_, err = c.run(t, "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)

	out, err = c.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Tenant:      acme")
	assert.Contains(t, out, "Refreshable: true")

	out, err = c.run(t, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Access token refreshed")

	_, err = c.run(t, "logout")
	require.NoError(t, err)
	assert.NoFileExists(t, c.creds)

	_, err = credentials.NewFileStore(c.creds).Load(t.Context())
	assert.Error(t, err)
}

func TestMissingTenantIsConfigurationError(t *testing.T) {
	newCLI(t)
	var out bytes.Buffer
	cmd := newRootCommand(&out, &out)
	cmd.SetArgs([]string{"--credentials", filepath.Join(t.TempDir(), "c.json"), "get", "/x/"})
	assert.Error(t, cmd.Execute())
}
