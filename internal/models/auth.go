package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of host-issued access tokens.
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsStaff  bool   `json:"administrator"`
	jwt.RegisteredClaims
}
