// Package token is the single signing and verification component shared by
// the configurator and the estimation service. Both sides hold the same
// pre-shared secret; the payload is exactly {subject, qualified, expiry}.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rmarch/car-config/internal/core/domain"
)

// Claims is the capability payload. Qualified is a coarse trust signal the
// estimation service uses to scale its estimate; it never bypasses any
// validation.
type Claims struct {
	Qualified bool `json:"qualified"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 capability tokens with a fixed lifetime.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Sign issues a token for the subject. Lifetime is short and the token is
// reissued on each dependent fetch, never cached long-term by the client.
func (i *Issuer) Sign(subjectID int64, qualified bool) (string, error) {
	now := time.Now()
	claims := Claims{
		Qualified: qualified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses and validates a token string. Any failure, expiry and
// signature mismatches included, maps to domain.ErrUnauthorized: the
// boundary fails closed.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// SubjectID extracts the numeric subject identity.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", domain.ErrUnauthorized, c.Subject)
	}
	return id, nil
}
