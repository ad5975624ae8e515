package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims is the advisory view of a JWT-shaped session token.
type Claims struct {
	jwt.StandardClaims

	// Role is read from a custom "role" claim when the backend includes one.
	Role string `json:"role,omitempty"`
}

// Expiry returns the expiry time, or the zero time if the token has none.
func (c *Claims) Expiry() time.Time {
	if c.StandardClaims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.StandardClaims.ExpiresAt, 0)
}

// Peek decodes token as a JWT without verifying its signature. ok is false for
// opaque tokens. The result is for display only and never decides validity.
func Peek(token string) (*Claims, bool) {
	if !IsValid(token) {
		return nil, false
	}

	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
