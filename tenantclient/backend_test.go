package tenantclient_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-erp-client/tenantclient"
)

const (
	testAPIHost = "erp.test"
	testTenant  = "acme"
)

// recorded is one request the fake backend saw on a tenant resource.
type recorded struct {
	Host      string
	Method    string
	Path      string
	Auth      string
	RequestID string
	Body      string
	Header    http.Header
}

// fakeBackend answers the login, both refresh endpoints and tenant resources.
// Resource requests succeed only with a bearer token listed in valid.
type fakeBackend struct {
	mu sync.Mutex

	valid         map[string]bool
	refreshStatus int
	refreshBody   string
	newAccess     string
	keepRejecting bool

	globalRefreshes []string
	tenantRefreshes []string
	calls           []recorded

	resource func(w http.ResponseWriter, r *http.Request)
	srv      *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		valid:     map[string]bool{"valid": true},
		newAccess: "fresh",
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) options(extra ...tenantclient.Option) []tenantclient.Option {
	opts := []tenantclient.Option{
		tenantclient.WithScheme("http"),
		tenantclient.WithAPIHost(testAPIHost),
		tenantclient.WithDialAddress(b.srv.Listener.Addr().String()),
	}
	return append(opts, extra...)
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	host := strings.SplitN(r.Host, ":", 2)[0]

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case host == testAPIHost && r.URL.Path == tenantclient.GlobalRefreshPath:
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.Unmarshal(body, &req)
		b.globalRefreshes = append(b.globalRefreshes, req.RefreshToken)
		b.writeRefresh(w, `{"access_token":"`+b.newAccess+`"}`)
		return

	case r.URL.Path == tenantclient.TenantRefreshPath:
		var req struct {
			Refresh string `json:"refresh"`
		}
		_ = json.Unmarshal(body, &req)
		b.tenantRefreshes = append(b.tenantRefreshes, req.Refresh)
		b.writeRefresh(w, `{"access":"`+b.newAccess+`"}`)
		return

	case r.URL.Path == tenantclient.LoginPath:
		var req tenantclient.LoginRequest
		_ = json.Unmarshal(body, &req)
		if req.Email != "ops@acme.test" || req.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"valid","refresh":"refresh-login","user":{"email":"ops@acme.test"}}`))
		return
	}

	b.calls = append(b.calls, recorded{
		Host:      host,
		Method:    r.Method,
		Path:      r.URL.RequestURI(),
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      string(body),
		Header:    r.Header.Clone(),
	})

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !b.valid[token] {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token expired"}`))
		return
	}
	if b.resource != nil {
		b.resource(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Main Warehouse"}]}`))
}

func (b *fakeBackend) writeRefresh(w http.ResponseWriter, success string) {
	if b.refreshStatus != 0 {
		w.WriteHeader(b.refreshStatus)
		_, _ = w.Write([]byte(b.refreshBody))
		return
	}
	if !b.keepRejecting {
		b.valid[b.newAccess] = true
	}
	_, _ = w.Write([]byte(success))
}

func (b *fakeBackend) snapshot() (calls []recorded, global, tenant []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recorded(nil), b.calls...), append([]string(nil), b.globalRefreshes...), append([]string(nil), b.tenantRefreshes...)
}
