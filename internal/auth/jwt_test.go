package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, expiresAt time.Time) string {
	t.Helper()
	claims := &accessClaims{
		UserID: "user-123",
		Email:  "guest@example.com",
		Role:   "guest",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "user-service",
		},
	}
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateAccessToken(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	claims, err := v.ValidateAccessToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "guest@example.com", claims.Email)
	assert.Equal(t, "guest", claims.Role)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.SigningMethodHS256, time.Now().Add(-time.Hour))

	_, err := v.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	v := NewVerifier(testSecret)
	tokenString := signToken(t, "some-other-secret", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	_, err := v.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}

func TestValidateAccessTokenMalformed(t *testing.T) {
	v := NewVerifier(testSecret)

	_, err := v.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}
