package credential

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenTTL_JWTExpBoundsTTL(t *testing.T) {
	tok := signedToken(t, time.Now().Add(30*time.Minute))

	ttl := tokenTTL(tok, DefaultTTL)
	assert.Greater(t, ttl, 29*time.Minute)
	assert.LessOrEqual(t, ttl, 30*time.Minute)
}

func TestTokenTTL_OpaqueTokenFallsBack(t *testing.T) {
	assert.Equal(t, DefaultTTL, tokenTTL("not-a-jwt", DefaultTTL))
	assert.Equal(t, DefaultTTL, tokenTTL("", DefaultTTL))
}

func TestTokenTTL_ExpiredJWTFallsBack(t *testing.T) {
	tok := signedToken(t, time.Now().Add(-time.Hour))
	assert.Equal(t, DefaultTTL, tokenTTL(tok, DefaultTTL))
}

func TestTokenTTL_JWTWithoutExpFallsBack(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, tokenTTL(s, DefaultTTL))
}

func TestTokenTTL_NeverExceedsFallback(t *testing.T) {
	tok := signedToken(t, time.Now().Add(100*24*time.Hour))
	assert.Equal(t, DefaultTTL, tokenTTL(tok, DefaultTTL))
}
