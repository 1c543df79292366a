package tenantclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIHost is the fixed API host suffix tenants hang off.
	DefaultAPIHost = config.DefaultAPIHost

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "erp-client/1.0"
)

type Option func(*Client)

// WithAPIHost replaces DefaultAPIHost; tenants resolve as <schema>.<host>.
func WithAPIHost(host string) Option {
	return func(c *Client) {
		c.apiHost = host
	}
}

// WithScheme sets the URL scheme, https unless overridden.
func WithScheme(scheme string) Option {
	return func(c *Client) {
		c.scheme = scheme
	}
}

// WithHTTPClient replaces the underlying HTTP client. WithTimeout and
// WithDialAddress are ignored when it is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDialAddress dials every connection, tenant and global hosts alike, to
// addr while keeping the Host header intact. Used against a local backend
// where the tenant subdomains do not resolve.
func WithDialAddress(addr string) Option {
	return func(c *Client) {
		c.dialAddr = addr
	}
}

// WithTimeout bounds each HTTP exchange, the refresh call included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithStore sets the credentials store the client reads tokens from and
// persists refreshed tokens to.
func WithStore(store credentials.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithRefresher replaces the refresh endpoint client used by the interceptor.
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithTenantRefresh makes the interceptor refresh through the tenant's
// /company/token/refresh/ endpoint instead of the global one.
func WithTenantRefresh() Option {
	return func(c *Client) {
		c.tenantRefresh = true
	}
}

// WithLogger sets the logger for retry bookkeeping. Defaults to zerolog.Nop.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records request, refresh and retry counts on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRateLimiter makes every dispatch, retries included, wait on limiter.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func newHTTPClient(timeout time.Duration, dialAddr string) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	if dialAddr != "" {
		dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, dialAddr)
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
