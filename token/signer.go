package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-erp-client/internal/errors"
)

// Signer signs access token claims and supplies the key the parser verifies
// them with.
type Signer interface {
	Sign(claims *Claims) (string, error)
	Keyfunc(t *jwt.Token) (any, error)
	Alg() string
}

// HS256Signer signs with one secret shared by every tenant of the backend.
type HS256Signer struct {
	secret []byte
}

func NewHMACSigner(secret string) *HS256Signer {
	return &HS256Signer{secret: []byte(secret)}
}

// Sign refuses claims without a tenant: such a token would be accepted by
// no tenant and is always a caller bug.
func (s *HS256Signer) Sign(claims *Claims) (string, error) {
	if claims == nil || claims.Tenant == "" {
		return "", errors.Wrapf(errors.ErrInvalidToken, "signing access token without tenant")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrapf(err, "signing access token for tenant %s", claims.Tenant)
	}
	return signed, nil
}

func (s *HS256Signer) Keyfunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != s.Alg() {
		return nil, fmt.Errorf("access token signed with %v, want %s", t.Header["alg"], s.Alg())
	}
	return s.secret, nil
}

func (s *HS256Signer) Alg() string {
	return jwt.SigningMethodHS256.Alg()
}
