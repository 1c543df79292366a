package tenantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"golang.org/x/oauth2"
)

const (
	GlobalRefreshPath = "/refresh-token/"
	TenantRefreshPath = "/company/token/refresh/"
	LoginPath         = "/company/login"
)

// Refresher exchanges a refresh token for a new access token. Failures are
// returned as *RefreshError.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// GlobalRefresher calls POST {api-host}/refresh-token/ with
// {"refresh_token": ...} and reads {"access_token": ...}. It is not tenant
// scoped.
type GlobalRefresher struct {
	httpClient *http.Client
	endpoint   string
}

func NewGlobalRefresher(hc *http.Client, apiOrigin *url.URL) *GlobalRefresher {
	return &GlobalRefresher{
		httpClient: hc,
		endpoint:   apiOrigin.String() + GlobalRefreshPath,
	}
}

func (r *GlobalRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	body := map[string]string{"refresh_token": refreshToken}
	status, raw, err := postJSON(ctx, r.httpClient, r.endpoint, body, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &RefreshError{Status: status, Payload: raw, Err: errors.ErrEmptyAccessToken}
	}
	return credentials.NewToken(out.AccessToken, out.RefreshToken), nil
}

// TenantRefresher calls POST {tenant}/company/token/refresh/ with
// {"refresh": ...} and reads {"access": ...}.
type TenantRefresher struct {
	httpClient *http.Client
	endpoint   string
}

func NewTenantRefresher(hc *http.Client, tenantOrigin *url.URL) *TenantRefresher {
	return &TenantRefresher{
		httpClient: hc,
		endpoint:   tenantOrigin.String() + TenantRefreshPath,
	}
}

func (r *TenantRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	body := map[string]string{"refresh": refreshToken}
	status, raw, err := postJSON(ctx, r.httpClient, r.endpoint, body, &out)
	if err != nil {
		return nil, err
	}
	if out.Access == "" {
		return nil, &RefreshError{Status: status, Payload: raw, Err: errors.ErrEmptyAccessToken}
	}
	return credentials.NewToken(out.Access, out.Refresh), nil
}

// postJSON posts body and decodes a 2xx response into out, returning the
// response payload for error reporting.
func postJSON(ctx context.Context, hc *http.Client, endpoint string, body any, out any) (int, json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, &RefreshError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, nil, &RefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, &RefreshError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &RefreshError{Status: resp.StatusCode, Err: errors.Wrapf(err, "reading refresh response")}
	}
	raw := payload(respBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, raw, &RefreshError{Status: resp.StatusCode, Payload: raw}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, raw, &RefreshError{Status: resp.StatusCode, Payload: raw, Err: errors.Wrapf(err, "decoding refresh response")}
	}
	return resp.StatusCode, raw, nil
}
