package tenantclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenants"
	"golang.org/x/oauth2"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the login response. Backends name the refresh token either
// refresh_token or refresh.
type LoginResult struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Refresh      string          `json:"refresh,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
}

func (r *LoginResult) refreshToken() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.Refresh
}

// Login authenticates against the tenant and persists the returned tokens.
// It bypasses the refresh interceptor: a 401 here means bad credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	call, err := c.newCall(Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, call, "")
	if err != nil {
		return nil, err
	}
	if err := classify(call, resp); err != nil {
		return nil, err
	}

	var result LoginResult
	if err := resp.Decode(&result); err != nil {
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode, Method: call.method, URL: call.url, Payload: payload(resp.Body), Err: err}
	}
	if result.AccessToken == "" {
		return nil, &Error{Kind: KindAuth, Status: resp.StatusCode, Method: call.method, URL: call.url, Payload: payload(resp.Body), Err: errors.ErrEmptyAccessToken}
	}

	result.RefreshToken = result.refreshToken()
	if err := c.store.Save(ctx, credentials.NewToken(result.AccessToken, result.RefreshToken)); err != nil {
		return nil, errors.Wrapf(err, "[tenantclient Login] persisting tokens")
	}
	c.logger.Debug().Str("request_id", call.requestID).Msg("logged in")
	return &result, nil
}

// RefreshTenantToken refreshes through the tenant-scoped
// /company/token/refresh/ endpoint and persists the new access token.
func (c *Client) RefreshTenantToken(ctx context.Context) (*oauth2.Token, error) {
	current, err := c.store.Load(ctx)
	if err != nil || current.RefreshToken == "" {
		return nil, &Error{Kind: KindAuth, URL: c.origin.String() + TenantRefreshPath, Method: http.MethodPost, Err: &RefreshError{Err: errors.ErrNoRefreshToken}}
	}

	tok, err := NewTenantRefresher(c.httpClient, c.origin).Refresh(ctx, current.RefreshToken)
	if err != nil {
		c.metrics.observeRefresh(false)
		return nil, &Error{Kind: KindAuth, URL: c.origin.String() + TenantRefreshPath, Method: http.MethodPost, Err: err}
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = current.RefreshToken
	}
	if err := c.store.Save(ctx, tok); err != nil {
		return nil, errors.Wrapf(err, "[tenantclient RefreshTenantToken] persisting token")
	}
	c.metrics.observeRefresh(true)
	return tok, nil
}

// Logout clears the stored credentials.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Identity returns the credential pair the next request would use.
func (c *Client) Identity(ctx context.Context) tenants.Identity {
	id := tenants.Identity{
		SchemaName:  c.schemaName,
		AccessToken: c.currentAccessToken(ctx),
	}
	if tok, err := c.store.Load(ctx); err == nil {
		id.RefreshToken = tok.RefreshToken
	}
	return id
}
