package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"linguameet/internal/model"
)

// RefreshTokenStore persists the one-refresh-token-per-user mapping.
type RefreshTokenStore interface {
	Upsert(ctx context.Context, userID string, token string, expiresAt time.Time) error
	FindByToken(ctx context.Context, token string) (model.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
}

// TokenService signs and verifies session tokens. Access and refresh
// tokens use distinct secrets, so one kind never verifies as the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	store         RefreshTokenStore
	now           func() time.Time
}

func NewTokenService(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration, store RefreshTokenStore) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
		now:           time.Now,
	}
}

// IssuePair signs the claims under both secrets. Pure function of the
// inputs and the clock; persisting the refresh token is a separate
// step.
func (s *TokenService) IssuePair(userID string, email string) (accessToken string, refreshToken string, err error) {
	now := s.now().UTC()

	accessToken, err = s.sign(s.accessSecret, userID, email, now, s.accessTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = s.sign(s.refreshSecret, userID, email, now, s.refreshTTL)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// VerifyAccess is fail-soft: any malformed, expired, or mis-signed
// token is reported as invalid, never as an error.
func (s *TokenService) VerifyAccess(token string) (*model.TokenClaims, bool) {
	return s.verify(s.accessSecret, token)
}

func (s *TokenService) VerifyRefresh(token string) (*model.TokenClaims, bool) {
	return s.verify(s.refreshSecret, token)
}

// PersistRefresh rotates the stored refresh token for the user; the
// previous token stops authenticating immediately.
func (s *TokenService) PersistRefresh(ctx context.Context, userID string, token string) error {
	return s.store.Upsert(ctx, userID, token, s.now().UTC().Add(s.refreshTTL))
}

// LookupRefresh reports whether the presented token is still the
// current one for its user.
func (s *TokenService) LookupRefresh(ctx context.Context, token string) (model.RefreshToken, error) {
	return s.store.FindByToken(ctx, token)
}

// RevokeRefresh deletes the stored token; returns
// model.ErrTokenNotFound when it was already gone.
func (s *TokenService) RevokeRefresh(ctx context.Context, token string) error {
	return s.store.DeleteByToken(ctx, token)
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *TokenService) sign(secret []byte, userID string, email string, now time.Time, ttl time.Duration) (string, error) {
	claims := model.TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) verify(secret []byte, token string) (*model.TokenClaims, bool) {
	parsed, err := jwt.ParseWithClaims(token, &model.TokenClaims{},
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	claims, ok := parsed.Claims.(*model.TokenClaims)
	if !ok || claims.Subject == "" {
		return nil, false
	}

	return claims, true
}
