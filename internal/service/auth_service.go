package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"linguameet/internal/event"
	"linguameet/internal/model"
	"linguameet/pkg/apierror"
)

const bcryptCost = 12

// UserStore is the credential-store surface the auth service needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

type AuthService struct {
	users  UserStore
	tokens *TokenService
	bus    event.Bus
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenService, bus event.Bus) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		bus:    bus,
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return model.TokenPair{}, err
	}
	if exists {
		return model.TokenPair{}, apierror.New("ALREADY_EXISTS", "this email is already in use", req.Email, http.StatusConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return model.TokenPair{}, err
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AvatarURL:    req.AvatarURL,
		Balance:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.Profile = &model.UserProfile{UserID: user.ID, Interests: []string{}}

	if err := s.users.Create(ctx, user); err != nil {
		return model.TokenPair{}, err
	}

	pair, err := s.issueAndPersist(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.publish(event.TypeUserRegistered, user.ID, map[string]string{"email": user.Email})
	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, invalidCredentials()
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return model.TokenPair{}, invalidCredentials()
	}

	// Persisting a fresh refresh token replaces the previous one, so
	// logging in here invalidates any other live session.
	pair, err := s.issueAndPersist(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.publish(event.TypeUserLoggedIn, user.ID, map[string]string{"email": user.Email})
	return pair, nil
}

// Logout revokes the stored refresh token. An already-revoked token is
// not an error; logout is idempotent from the client's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.RevokeRefresh(ctx, refreshToken)
	if errors.Is(err, model.ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if claims, ok := s.tokens.VerifyRefresh(refreshToken); ok {
		s.publish(event.TypeUserLoggedOut, claims.Subject, nil)
	}
	return nil
}

// Refresh rotates the session: every successful call invalidates the
// token it was given.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		return model.TokenPair{}, apierror.Unauthorized()
	}

	claims, ok := s.tokens.VerifyRefresh(refreshToken)
	if !ok {
		return model.TokenPair{}, apierror.Unauthorized()
	}

	stored, err := s.tokens.LookupRefresh(ctx, refreshToken)
	if errors.Is(err, model.ErrTokenNotFound) {
		return model.TokenPair{}, apierror.Unauthorized()
	}
	if err != nil {
		return model.TokenPair{}, err
	}
	if stored.UserID != claims.Subject {
		return model.TokenPair{}, apierror.Unauthorized()
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, apierror.Unauthorized()
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	pair, err := s.issueAndPersist(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.publish(event.TypeSessionRefreshed, user.ID, nil)
	return pair, nil
}

func (s *AuthService) issueAndPersist(ctx context.Context, user model.User) (model.TokenPair, error) {
	accessToken, refreshToken, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.PersistRefresh(ctx, user.ID, refreshToken); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user.Public(),
	}, nil
}

func (s *AuthService) publish(t event.Type, actorID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	})
}

// The same message and status cover both an unknown email and a wrong
// password, so a caller cannot probe which accounts exist.
func invalidCredentials() *apierror.APIError {
	return apierror.New("INVALID_CREDENTIALS", "login or password is incorrect", "", http.StatusBadRequest)
}
