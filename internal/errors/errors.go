package errors

import (
	"errors"
	"fmt"
)

// Common error types for the ERP client and the development backend
var (
	// Configuration errors
	ErrMissingSchemaName = errors.New("missing tenant schema name")
	ErrInvalidAPIHost    = errors.New("invalid api host")
	ErrInvalidOrigin     = errors.New("tenant origin cannot be formed")

	// Credential errors
	ErrNoCredentials    = errors.New("no credentials stored")
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrEmptyAccessToken = errors.New("refresh response carried no access token")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Tenant errors
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrUnauthorizedTenant = errors.New("unauthorized for tenant")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
