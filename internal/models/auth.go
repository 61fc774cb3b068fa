package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by a session token.
type TokenClaims struct {
	ManagerID string `json:"manager_id"`
	jwt.RegisteredClaims
}
