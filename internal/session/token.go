package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway treats a token as expired slightly early so it does not lapse
// between the check and the request.
const expiryLeeway = 30 * time.Second

// TokenExpiry returns the exp claim of a JWT bearer token.
//
// The signature is not verified: the client has no key, and the backend
// remains the authority on validity. Opaque tokens report ok=false.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// tokenExpired reports whether token carries an exp that has passed at now.
func tokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return !now.Add(expiryLeeway).Before(exp)
}
