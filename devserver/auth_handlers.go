package devserver

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/tenants"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int64             `json:"expires_in"`
	User         map[string]string `json:"user"`
}

// LoginHandler serves POST /company/login on a tenant host.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, detail("malformed JSON body"))
			return
		}

		problems := fieldErrors{}
		if strings.TrimSpace(req.Email) == "" {
			problems.add("email", "This field is required.")
		}
		if req.Password == "" {
			problems.add("password", "This field is required.")
		}
		if len(problems) > 0 {
			writeJSON(w, http.StatusBadRequest, problems)
			return
		}

		schema := tenantFrom(r.Context())
		user, err := s.users.GetByEmail(schema, req.Email)
		if err != nil || user.Blocked || !user.CheckPassword(req.Password) {
			writeJSON(w, http.StatusUnauthorized, detail("No active account found with the given credentials"))
			return
		}

		pair, err := s.tokens.IssueTokens(user)
		if err != nil {
			s.logger.Error().Err(err).Str("tenant", schema).Msg("issuing tokens")
			writeJSON(w, http.StatusInternalServerError, detail("could not issue tokens"))
			return
		}
		if err := s.users.SetLastLogin(user.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("recording last login")
		}

		writeJSON(w, http.StatusOK, loginResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    pair.ExpiresIn,
			User:         user.Profile(),
		})
	}
}

// TenantRefreshHandler serves POST /company/token/refresh/ with
// {"refresh": ...} and answers {"access": ...}. The refresh token must have
// been issued on the same tenant.
func (s *Server) TenantRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Refresh string `json:"refresh"`
		}
		if err := decodeBody(w, r, &req); err != nil || req.Refresh == "" {
			writeJSON(w, http.StatusBadRequest, fieldErrors{"refresh": {"This field is required."}})
			return
		}

		access, err := s.tokens.Refresh(req.Refresh, tenantFrom(r.Context()))
		if err != nil {
			s.refreshRejected(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": access})
	}
}

// GlobalRefreshHandler serves POST /refresh-token/ on the bare API host with
// {"refresh_token": ...} and answers {"access_token": ...}.
func (s *Server) GlobalRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if schema, err := tenants.SchemaFromHost(r.Host, s.apiHost); err != nil || schema != "" {
			writeJSON(w, http.StatusNotFound, detail("Not found."))
			return
		}

		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := decodeBody(w, r, &req); err != nil || req.RefreshToken == "" {
			writeJSON(w, http.StatusBadRequest, fieldErrors{"refresh_token": {"This field is required."}})
			return
		}

		access, err := s.tokens.Refresh(req.RefreshToken, "")
		if err != nil {
			s.refreshRejected(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": access})
	}
}

func (s *Server) refreshRejected(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidRefreshToken),
		errors.Is(err, errors.ErrRefreshTokenExpired),
		errors.Is(err, errors.ErrUnauthorizedTenant):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("refreshing access token")
		writeJSON(w, http.StatusInternalServerError, detail("could not refresh token"))
	}
}
