// Package tenantclient is the HTTP client for one tenant of the ERP backend.
// Every call is bound to https://{schema}.{api-host}, carries the current
// bearer token, and recovers once from an expired access token by refreshing
// it and replaying the request.
package tenantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-erp-client/credentials"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Client is bound to a single tenant and credential pair. It is safe for
// concurrent use.
type Client struct {
	schemaName  string
	accessToken string
	origin      *url.URL
	apiOrigin   *url.URL
	headers     http.Header

	httpClient    *http.Client
	store         credentials.Store
	refresher     Refresher
	tenantRefresh bool
	logger        zerolog.Logger
	metrics       *Metrics
	limiter       *rate.Limiter

	scheme    string
	apiHost   string
	dialAddr  string
	timeout   time.Duration
	userAgent string
}

// New builds a client for the tenant schemaName. accessToken is the default
// bearer token; once the credentials store holds a token, the stored one
// wins at dispatch time. Without WithStore the client keeps its tokens in
// memory and cannot refresh. No network call is made.
func New(schemaName, accessToken string, opts ...Option) (*Client, error) {
	c := &Client{
		schemaName:  strings.ToLower(strings.TrimSpace(schemaName)),
		accessToken: accessToken,
		scheme:      "https",
		apiHost:     DefaultAPIHost,
		timeout:     defaultTimeout,
		userAgent:   defaultUserAgent,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.schemaName == "" {
		return nil, configError(errors.ErrMissingSchemaName)
	}

	origin, err := tenants.Origin(c.scheme, c.schemaName, c.apiHost)
	if err != nil {
		return nil, configError(err)
	}
	apiOrigin, err := tenants.APIOrigin(c.scheme, c.apiHost)
	if err != nil {
		return nil, configError(err)
	}
	c.origin = origin
	c.apiOrigin = apiOrigin

	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.timeout, c.dialAddr)
	}
	if c.store == nil {
		c.store = credentials.NewMemoryStore(seedToken(accessToken, ""))
	}
	if c.refresher == nil {
		if c.tenantRefresh {
			c.refresher = NewTenantRefresher(c.httpClient, origin)
		} else {
			c.refresher = NewGlobalRefresher(c.httpClient, apiOrigin)
		}
	}

	c.headers = http.Header{}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	c.headers.Set("User-Agent", c.userAgent)

	c.logger = c.logger.With().Str("tenant", c.schemaName).Logger()
	return c, nil
}

// NewFromIdentity builds a client whose in-memory store is seeded with the
// identity's token pair. A WithStore option takes precedence over the seed.
func NewFromIdentity(id tenants.Identity, opts ...Option) (*Client, error) {
	if err := id.Validate(); err != nil {
		return nil, configError(err)
	}
	seeded := []Option{WithStore(credentials.NewMemoryStore(seedToken(id.AccessToken, id.RefreshToken)))}
	return New(id.SchemaName, id.AccessToken, append(seeded, opts...)...)
}

func seedToken(accessToken, refreshToken string) *oauth2.Token {
	if accessToken == "" && refreshToken == "" {
		return nil
	}
	return credentials.NewToken(accessToken, refreshToken)
}

// SchemaName returns the normalised tenant schema the client is bound to.
func (c *Client) SchemaName() string {
	return c.schemaName
}

// Origin returns the tenant origin, e.g. https://acme.api.erp-suite.io.
func (c *Client) Origin() string {
	return c.origin.String()
}

// DefaultHeaders returns the headers set on every request, including the
// Authorization header built from the construction-time token.
func (c *Client) DefaultHeaders() http.Header {
	h := c.headers.Clone()
	if c.accessToken != "" {
		h.Set("Authorization", "Bearer "+c.accessToken)
	}
	return h
}

// Store returns the credentials store requests read their tokens from.
func (c *Client) Store() credentials.Store {
	return c.store
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do issues req against the tenant origin. A 401 triggers at most one
// refresh followed by one replay of the request; any other failure is
// returned as an *Error without retry.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	call, err := c.newCall(req)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, call, c.currentAccessToken(ctx))
}

// call is one original request. It is replayed as-is on retry.
type call struct {
	method    string
	url       string
	body      []byte
	headers   map[string]string
	requestID string
}

func (c *Client) newCall(req Request) (*call, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := resolveURL(c.origin, req.Path, req.Query)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Method: method, URL: req.Path, Err: err}
	}

	var body []byte
	if req.Body != nil {
		switch b := req.Body.(type) {
		case []byte:
			body = b
		case json.RawMessage:
			body = b
		default:
			body, err = json.Marshal(req.Body)
			if err != nil {
				return nil, &Error{Kind: KindConfiguration, Method: method, URL: u.String(), Err: fmt.Errorf("marshaling request body: %w", err)}
			}
		}
	}

	return &call{
		method:    method,
		url:       u.String(),
		body:      body,
		headers:   req.Headers,
		requestID: uuid.New().String(),
	}, nil
}

func (c *Client) execute(ctx context.Context, call *call, accessToken string) (*Response, error) {
	resp, err := c.send(ctx, call, accessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !isRetry(ctx) {
		return c.refreshAndRetry(ctx, call, resp)
	}

	if err := classify(call, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// currentAccessToken prefers the stored token so that a refresh persisted by
// any client sharing the store is picked up on the next dispatch.
func (c *Client) currentAccessToken(ctx context.Context) string {
	tok, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, errors.ErrNoCredentials) {
			c.logger.Debug().Err(err).Msg("credentials store unreadable, using construction token")
		}
		return c.accessToken
	}
	if tok.AccessToken == "" {
		return c.accessToken
	}
	return tok.AccessToken
}

func (c *Client) send(ctx context.Context, call *call, accessToken string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindNetwork, Method: call.method, URL: call.url, Err: err}
		}
	}

	var body io.Reader
	if call.body != nil {
		body = bytes.NewReader(call.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, call.method, call.url, body)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Method: call.method, URL: call.url, Err: err}
	}

	for k, v := range c.headers {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	for k, v := range call.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("X-Request-ID", call.requestID)
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(call.method, "error", time.Since(start))
		return nil, &Error{Kind: KindNetwork, Method: call.method, URL: call.url, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		c.metrics.observeRequest(call.method, "error", duration)
		return nil, &Error{Kind: KindNetwork, Method: call.method, URL: call.url, Err: fmt.Errorf("reading response body: %w", err)}
	}
	c.metrics.observeRequest(call.method, strconv.Itoa(httpResp.StatusCode), duration)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

func classify(call *call, resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	kind := KindHTTP
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	}
	return &Error{
		Kind:    kind,
		Status:  resp.StatusCode,
		Method:  call.method,
		URL:     call.url,
		Payload: payload(resp.Body),
	}
}

// payload keeps the body as JSON when it is JSON and quotes it otherwise so
// Error.Payload is always valid JSON.
func payload(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

func resolveURL(origin *url.URL, path string, query url.Values) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := origin.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if u.Host != origin.Host {
		return nil, fmt.Errorf("path %q leaves the tenant origin", path)
	}

	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}
