package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL bounds how long a credential may sit in the store when its
// lifetime cannot be read off the tokens themselves.
const DefaultTTL = 24 * time.Hour

// DefaultChallengeTTL bounds how long an OTP challenge stays pending.
const DefaultChallengeTTL = 10 * time.Minute

// tokenTTL derives a store TTL from a token's exp claim when the token
// happens to be a JWT. Tokens stay opaque everywhere else: this never
// verifies a signature and never influences an authorization decision, it
// only stops the store from outliving the upstream session. Non-JWT tokens
// and tokens without exp fall back to the given default.
func tokenTTL(token string, fallback time.Duration) time.Duration {
	if token == "" {
		return fallback
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 || ttl > fallback {
		return fallback
	}
	return ttl
}

// credentialTTL picks the store TTL for a credential: the refresh token
// bounds the session lifetime since the access token can be renewed.
func credentialTTL(refreshToken string, fallback time.Duration) time.Duration {
	return tokenTTL(refreshToken, fallback)
}
