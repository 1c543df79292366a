// Package devserver is an in-memory ERP backend for local development and
// integration tests. It serves the login, both token refresh endpoints and
// the tenant resource collections, resolving the tenant from the Host
// subdomain.
package devserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenants"
	tenantrepofakes "github.com/jrsteele09/go-erp-client/tenants/repofakes"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-erp-client/token/refresh/repofake"
	"github.com/jrsteele09/go-erp-client/users"
	fakeuserrepo "github.com/jrsteele09/go-erp-client/users/repofake"
	"github.com/rs/zerolog"
)

type Server struct {
	env     string
	apiHost string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	logger  zerolog.Logger
	nowFunc func() time.Time

	tenants tenants.Repo
	users   users.UserRepo
	tokens  *token.Manager
	data    *documentStore
}

type Option func(*Server)

// WithAPIHost sets the host tenants hang off; requests to {schema}.{host}
// are routed to tenant schema.
func WithAPIHost(host string) Option {
	return func(s *Server) {
		s.apiHost = host
	}
}

// WithNowFunc replaces the clock used to issue and verify tokens.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithTenantRepo(repo tenants.Repo) Option {
	return func(s *Server) {
		s.tenants = repo
	}
}

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

func New(cfg config.Config, options ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		apiHost: cfg.GetAPIHost(),
		mux:     http.NewServeMux(),
		config:  cfg,
		logger:  zerolog.Nop(),
		nowFunc: time.Now,
		data:    newDocumentStore(),
	}
	for _, opt := range options {
		opt(s)
	}

	if _, err := tenants.APIOrigin("http", s.apiHost); err != nil {
		return nil, fmt.Errorf("[devserver New] %w", err)
	}
	if s.tenants == nil {
		s.tenants = tenantrepofakes.NewFakeTenantRepo()
	}
	if s.users == nil {
		s.users = fakeuserrepo.NewFakeUserRepo()
	}

	refreshManager := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), cfg, refresh.WithNowFunc(s.now))
	s.tokens = token.New(refreshManager, token.NewHMACSigner(cfg.GetJWTSecret()),
		token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithIssuer(cfg.GetAppName()),
		token.WithNowFunc(s.now),
	)

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

// now indirects through nowFunc so options applied after construction of
// the token managers still take effect.
func (s *Server) now() time.Time {
	return s.nowFunc()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) APIHost() string {
	return s.apiHost
}

// Tokens exposes the token manager, e.g. to revoke an access token from a
// test.
func (s *Server) Tokens() *token.Manager {
	return s.tokens
}

// AddTenant registers a tenant served from {schemaName}.{apiHost}.
func (s *Server) AddTenant(schemaName, name string) (*tenants.Tenant, error) {
	schemaName = strings.ToLower(strings.TrimSpace(schemaName))
	if _, err := tenants.Origin("http", schemaName, s.apiHost); err != nil {
		return nil, err
	}
	t := &tenants.Tenant{SchemaName: schemaName, Name: name}
	if err := s.tenants.Upsert(t); err != nil {
		return nil, errors.Wrapf(err, "[devserver AddTenant] %s", schemaName)
	}
	return t, nil
}

// AddUser creates an operator account on an existing tenant.
func (s *Server) AddUser(schemaName, email, password, firstName, lastName string) (*users.User, error) {
	if _, err := s.tenants.Get(schemaName); err != nil {
		return nil, errors.Wrapf(err, "[devserver AddUser] %s", schemaName)
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, fmt.Errorf("[devserver AddUser] %s: %w", email, err)
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrapf(err, "[devserver AddUser] hashing password")
	}
	u := &users.User{
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		SchemaName:   schemaName,
		DateJoined:   s.now(),
	}
	if err := s.users.Upsert(u); err != nil {
		return nil, errors.Wrapf(err, "[devserver AddUser] %s", email)
	}
	return u, nil
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path := "", route
		if parts := strings.SplitN(route, " ", 2); len(parts) > 1 {
			method, path = parts[0], parts[1]
		}
		s.logger.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}
