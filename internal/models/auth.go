package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest asks for a bearer token for the asserted identity.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse returns the issued token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
}

// JWTClaims is the bearer token payload. The role is deliberately absent:
// role checks always hit the store so promotions take effect immediately.
type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
