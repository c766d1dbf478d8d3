package auth

import (
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/golang-jwt/jwt/v5"
)

// jwtKey is the secret used to sign session tokens. The default only exists
// for tests; main overrides it with the configured secret at startup.
var jwtKey = []byte("chat-hub-dev-only-signing-key")

// SetSigningKey replaces the signing secret. Call once at startup, before
// any token is issued or validated.
func SetSigningKey(key []byte) {
	jwtKey = key
}

// SessionClaims is the payload carried by a session token.
type SessionClaims struct {
	UserID domain.Identity `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed session token for a user.
func GenerateToken(userID domain.Identity, duration time.Duration) (string, error) {
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-hub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateToken parses and validates the signature and expiration of a
// session token. Any failure (absent, malformed, expired, wrong key) maps
// to ErrUnauthenticated; a token never partially validates.
func ValidateToken(tokenString string) (domain.Identity, error) {
	if tokenString == "" {
		return "", errors.ErrUnauthenticated
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return "", errors.ErrUnauthenticated
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrUnauthenticated
	}
	return claims.UserID, nil
}

// AdminClaims is the payload of the short-lived admin dashboard token.
type AdminClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs the admin secret into a short-lived token.
func GenerateAdminToken(secretKey string, duration time.Duration) (string, error) {
	claims := &AdminClaims{
		Key: secretKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-hub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateAdminToken checks the token signature and that the embedded key
// matches the configured admin secret.
func ValidateAdminToken(tokenString, secretKey string) error {
	if tokenString == "" {
		return errors.ErrUnauthenticated
	}
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return errors.ErrUnauthenticated
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Key != secretKey {
		return errors.ErrUnauthenticated
	}
	return nil
}
