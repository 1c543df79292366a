package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string). All other fields are
// server-side metadata used for validation and token refresh operations.
type StoredRefreshToken struct {
	Token      string    // The actual random token string (sent to client)
	UserID     string    // Server-side metadata
	Email      string    // Server-side metadata, copied into refreshed access tokens
	SchemaName string    // Tenant the token was issued on
	Iat        time.Time // Issued at time
}

// Repo manages server-side storage of refresh token metadata, keyed by the
// token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
