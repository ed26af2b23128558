package models

import "github.com/golang-jwt/jwt/v5"

// JwtCustomClaims is the token payload issued by the identity provider.
// Only UserID is used by this service.
type JwtCustomClaims struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
