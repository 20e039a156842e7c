package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed statement carried by both access and
// refresh tokens. Subject holds the user id.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshToken mirrors the refresh_tokens row: at most one per user,
// replaced on every login or refresh.
type RefreshToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is what the auth service hands back on register, login and
// refresh.
type TokenPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	User         PublicUser `json:"user"`
}
