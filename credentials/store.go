// Package credentials holds the client-side token storage the tenant client
// reads its bearer and refresh tokens from, and writes refreshed tokens to.
package credentials

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Store persists the session's token pair. Implementations must be safe for
// concurrent use. Concurrent Saves race and the last write wins.
type Store interface {
	// Load returns the stored token or errors.ErrNoCredentials.
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
	// Clear removes stored credentials. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// NewToken builds a bearer token. When the access token is a JWT its exp
// claim becomes the token's Expiry.
func NewToken(accessToken, refreshToken string) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       ExpiryFromJWT(accessToken),
	}
}

// ExpiryFromJWT reads the exp claim without verifying the signature. It
// returns the zero time for opaque tokens or tokens without exp.
func ExpiryFromJWT(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func clone(tok *oauth2.Token) *oauth2.Token {
	if tok == nil {
		return nil
	}
	c := *tok
	return &c
}
