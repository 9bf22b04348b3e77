// Package auth verifies identity tokens issued by the external auth
// provider. This service never authenticates users itself; it only checks
// the HS256 signature with the shared secret and extracts the identity.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avelins/classmedia/internal/common"
)

// Claims carries the standard claims plus the verified identity.
type Claims struct {
	jwt.RegisteredClaims
	Identity string
}

// IdentityFromToken verifies tokenString against secretKey and returns the
// identity it carries. Returns common.ErrInvalidToken for malformed, expired
// or wrongly signed tokens, and for tokens without an identity.
func IdentityFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Identity == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Identity, nil
}

// GenerateToken signs an identity token the way the external provider does.
// Used by tests and local tooling.
func GenerateToken(identity string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Identity: identity,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
