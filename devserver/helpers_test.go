package devserver_test

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/devserver"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/tenantclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	apiHost  = "erp.test"
	email    = "ops@acme.test"
	password = "Warehouse2024"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	server *devserver.Server
	http   *httptest.Server
	clock  *clock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	c := &clock{now: time.Now()}
	s, err := devserver.New(config.New(nil), devserver.WithAPIHost(apiHost), devserver.WithNowFunc(c.Now))
	require.NoError(t, err)

	require.NoError(t, s.SeedTenant(devserver.SeedOptions{
		SchemaName: "acme",
		Email:      email,
		Password:   password,
		Seed:       42,
		Locations:  3,
		Invoices:   2,
	}))
	require.NoError(t, s.SeedTenant(devserver.SeedOptions{
		SchemaName: "globex",
		Email:      email,
		Password:   password,
		Seed:       7,
	}))

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &testEnv{server: s, http: srv, clock: c}
}

func (e *testEnv) client(t *testing.T, schema string, store credentials.Store, opts ...tenantclient.Option) *tenantclient.Client {
	t.Helper()
	base := []tenantclient.Option{
		tenantclient.WithScheme("http"),
		tenantclient.WithAPIHost(apiHost),
		tenantclient.WithDialAddress(e.http.Listener.Addr().String()),
		tenantclient.WithStore(store),
	}
	c, err := tenantclient.New(schema, "", append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// counterValue reads a counter from reg. An empty label matches the
// unlabelled series.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
