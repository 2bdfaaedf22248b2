package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SignTestToken returns an HS256 token for userID accepted by an Auth in
// test mode with the same secret.
func SignTestToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("TEST_JWT_SECRET must be set")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
