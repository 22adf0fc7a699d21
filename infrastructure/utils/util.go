package utils

import (
	"time"

	"blog-social/infrastructure/logger"

	"github.com/golang-jwt/jwt"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// GenerateToken signs an HS256 token the way the identity service does. Used by
// local tooling and tests to call the authenticated social endpoints.
func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}
