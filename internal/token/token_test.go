package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmarch/car-config/internal/core/domain"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)

	signed, err := issuer.Sign(42, true)
	require.NoError(t, err)

	claims, err := issuer.Verify(signed)
	require.NoError(t, err)
	assert.True(t, claims.Qualified)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerify_ExpiredTokenRejected(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	signed, err := issuer.Sign(42, false)
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_WrongSecretRejected(t *testing.T) {
	signed, err := NewIssuer("secret-a", time.Minute).Sign(42, false)
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", time.Minute).Verify(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_UnexpectedAlgorithmRejected(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)

	// Signed with the right secret but the wrong method; the verifier pins
	// HS256 and must refuse it.
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_GarbageRejected(t *testing.T) {
	_, err := NewIssuer("test-secret", time.Minute).Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSubjectID_NonNumericSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}
	_, err := claims.SubjectID()
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
