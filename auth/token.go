package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session cookies. The signing key and the
// expiry come from the credential configuration loaded once at startup.
type TokenIssuer struct {
	key    []byte
	expiry time.Duration
}

func NewTokenIssuer(key string, expiry time.Duration) (*TokenIssuer, error) {
	if key == "" {
		return nil, fmt.Errorf("cookie signing key must not be empty")
	}
	return &TokenIssuer{key: []byte(key), expiry: expiry}, nil
}

// Issue creates a signed HS256 token for an authenticated session. The jti
// claim identifies the session across subsequent polls.
func (i *TokenIssuer) Issue(username, displayName string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Username:    username,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "remarks",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// Validate parses a token string and checks its signature and expiration.
// Callers treat any error as an unauthenticated session, never as fatal.
func (i *TokenIssuer) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
