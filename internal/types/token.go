package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID     uint   `json:"user_id"`
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
}
