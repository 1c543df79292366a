package tenantclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-erp-client/internal/errors"
)

// Kind tags an Error so callers can branch on a stable shape instead of
// digging into payloads.
type Kind string

const (
	// KindConfiguration: the client cannot form a tenant origin.
	KindConfiguration Kind = "configuration"
	// KindAuth: 401 persisted after the single refresh-and-retry, or the
	// refresh itself failed. Treat the session as invalid.
	KindAuth Kind = "auth"
	// KindValidation: 400 or 422 with the server's validation payload.
	KindValidation Kind = "validation"
	// KindHTTP: any other non-2xx status.
	KindHTTP Kind = "http"
	// KindNetwork: no response was received.
	KindNetwork Kind = "network"
)

// Error is returned by every Client call that did not succeed. When a refresh
// fails, Status and Payload still describe the original 401; RefreshStatus
// reports what the refresh endpoint answered.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	URL     string
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.URL)
	}
	fmt.Fprintf(&b, "%s error", e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RefreshStatus returns the status of the failed refresh call behind a
// KindAuth error, or 0 when no refresh was attempted or no response came back.
func (e *Error) RefreshStatus() int {
	var re *RefreshError
	if errors.As(e.Err, &re) {
		return re.Status
	}
	return 0
}

// RefreshError describes a failed call to a refresh endpoint. It is wrapped
// inside a KindAuth Error and matches errors.ErrRefreshFailed. Status and
// Payload are the refresh endpoint's response, not the original request's.
type RefreshError struct {
	Status  int
	Payload json.RawMessage
	Err     error
}

func (e *RefreshError) Error() string {
	msg := "token refresh failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

func (e *RefreshError) Is(target error) bool {
	return target == errors.ErrRefreshFailed
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsAuth reports whether err means the session is no longer valid and the
// user has to authenticate again.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

func configError(err error) *Error {
	return &Error{Kind: KindConfiguration, Err: err}
}
