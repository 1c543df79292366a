package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	apiHostEnvVar         = "ERP_API_HOST"
	apiSchemeEnvVar       = "ERP_API_SCHEME"
	tenantEnvVar          = "ERP_TENANT"
	connectEnvVar         = "ERP_CONNECT"
	credentialsFileEnvVar = "ERP_CREDENTIALS_FILE"
	refreshModeEnvVar     = "ERP_REFRESH_MODE"
	timeoutEnvVar         = "ERP_TIMEOUT"
	rateLimitEnvVar       = "ERP_RATE_LIMIT"

	// DefaultAPIHost is the API host suffix every tenant subdomain hangs off.
	DefaultAPIHost = "api.erp-suite.io"
)

// RefreshMode selects which refresh endpoint recovers from an expired access token.
type RefreshMode string

const (
	// RefreshGlobal uses POST https://<api-host>/refresh-token/.
	RefreshGlobal RefreshMode = "global"
	// RefreshTenant uses POST https://<tenant>.<api-host>/company/token/refresh/.
	RefreshTenant RefreshMode = "tenant"
)

// Client resolves client settings with precedence env > profile > default.
type Client struct {
	profile *Profile
}

var _ ClientConfig = Client{}

func (c Client) GetAPIHost() string {
	return c.lookup(apiHostEnvVar, c.fromProfile(func(p *Profile) string { return p.APIHost }), DefaultAPIHost)
}

func (c Client) GetAPIScheme() string {
	return c.lookup(apiSchemeEnvVar, c.fromProfile(func(p *Profile) string { return p.Scheme }), "https")
}

func (c Client) GetTenant() string {
	return c.lookup(tenantEnvVar, c.fromProfile(func(p *Profile) string { return p.Tenant }), "")
}

// GetConnectAddress returns a host:port every request is dialed to regardless
// of the tenant host name. Empty means normal DNS resolution.
func (c Client) GetConnectAddress() string {
	return c.lookup(connectEnvVar, c.fromProfile(func(p *Profile) string { return p.Connect }), "")
}

func (c Client) GetCredentialsFile() string {
	return c.lookup(credentialsFileEnvVar, c.fromProfile(func(p *Profile) string { return p.CredentialsFile }), defaultCredentialsFile())
}

func (c Client) GetRefreshMode() RefreshMode {
	mode := RefreshMode(c.lookup(refreshModeEnvVar, c.fromProfile(func(p *Profile) string { return p.RefreshMode }), string(RefreshGlobal)))
	if mode != RefreshTenant {
		return RefreshGlobal
	}
	return mode
}

func (c Client) GetRequestTimeout() time.Duration {
	raw := c.lookup(timeoutEnvVar, c.fromProfile(func(p *Profile) string { return p.Timeout }), "30s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetRateLimit returns the maximum requests per second, 0 meaning unlimited.
func (c Client) GetRateLimit() float64 {
	raw := c.lookup(rateLimitEnvVar, c.fromProfile(func(p *Profile) string { return p.RateLimit }), "0")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func (c Client) fromProfile(get func(*Profile) string) string {
	if c.profile == nil {
		return ""
	}
	return get(c.profile)
}

func (c Client) lookup(envVar, profileValue, defaultValue string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if profileValue != "" {
		return profileValue
	}
	return defaultValue
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "erpctl", "credentials.json")
}
