package auth

import (
	"fmt"
	"time"

	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and verifies session tokens. It is stateless: a token
// is valid iff its signature checks out and it has not expired. There is no
// server-side revocation list; tokens die only by expiry.
type TokenManager struct {
	secret string
	expiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: secret,
		expiry: expiry,
	}
}

// Issue creates a signed session token for a manager
func (tm *TokenManager) Issue(managerID string) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		ManagerID: managerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Verify checks a token's signature and expiry and returns its claims.
// Expired, malformed, and mis-signed tokens all return ErrTokenInvalid;
// verification never panics and performs no I/O.
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil || !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	if claims.ManagerID == "" {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}
