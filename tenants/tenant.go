package tenants

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-erp-client/internal/errors"
)

// Tenant represents a customer organization served from its own subdomain.
// SchemaName is both the subdomain and the backend's data schema.
type Tenant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SchemaName string `json:"schema_name"`
}

// Identity is the credential pair a client is bound to. A new identity
// requires constructing a new client.
type Identity struct {
	SchemaName   string `json:"schema_name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Validate reports a missing schema name. Tokens may be empty for an
// unauthenticated identity.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.SchemaName) == "" {
		return errors.ErrMissingSchemaName
	}
	return nil
}

// Origin builds the tenant's API origin, scheme://schemaName.apiHost.
func Origin(scheme, schemaName, apiHost string) (*url.URL, error) {
	if strings.TrimSpace(schemaName) == "" {
		return nil, errors.ErrMissingSchemaName
	}
	if strings.ContainsAny(schemaName, "./:@ ") {
		return nil, fmt.Errorf("[tenants Origin] schema %q: %w", schemaName, errors.ErrInvalidOrigin)
	}
	host, err := APIOrigin(scheme, apiHost)
	if err != nil {
		return nil, err
	}
	host.Host = strings.ToLower(schemaName) + "." + host.Host
	return host, nil
}

// APIOrigin builds the bare, tenant-less API origin used by global endpoints
// such as the token refresh.
func APIOrigin(scheme, apiHost string) (*url.URL, error) {
	apiHost = strings.TrimSpace(apiHost)
	if apiHost == "" || strings.Contains(apiHost, "/") {
		return nil, fmt.Errorf("[tenants APIOrigin] host %q: %w", apiHost, errors.ErrInvalidAPIHost)
	}
	if scheme == "" {
		scheme = "https"
	}
	u, err := url.Parse(scheme + "://" + apiHost)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("[tenants APIOrigin] host %q: %w", apiHost, errors.ErrInvalidAPIHost)
	}
	return u, nil
}

// SchemaFromHost extracts the tenant subdomain from a request host, e.g.
// "acme.api.erp.io:443" with apiHost "api.erp.io" yields "acme". Ports on
// either side are ignored. The bare API host yields an empty schema.
func SchemaFromHost(host, apiHost string) (string, error) {
	host = stripPort(strings.ToLower(host))
	baseHostName := stripPort(strings.ToLower(apiHost))

	if host == baseHostName {
		return "", nil
	}
	if !strings.HasSuffix(host, "."+baseHostName) {
		return "", fmt.Errorf("[tenants SchemaFromHost] host %q outside %q: %w", host, baseHostName, errors.ErrTenantNotFound)
	}

	schema := strings.TrimSuffix(host, "."+baseHostName)
	if schema == "" || strings.Contains(schema, ".") {
		return "", fmt.Errorf("[tenants SchemaFromHost] host %q: %w", host, errors.ErrTenantNotFound)
	}
	return schema, nil
}

func stripPort(host string) string {
	splitHost := strings.SplitN(host, ":", 2)
	return splitHost[0]
}
