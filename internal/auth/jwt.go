package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/staybook/reviews/pkg/middleware"
)

// accessClaims mirrors the token claims issued by the user service.
type accessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates access tokens issued by the platform's user service.
// This service only verifies tokens; issuing stays with the user service.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for HMAC-signed access tokens.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ValidateAccessToken parses and validates an access token, returning the claims.
func (v *Verifier) ValidateAccessToken(tokenString string) (*middleware.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}

	return &middleware.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
