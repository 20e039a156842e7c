package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"linguameet/internal/event"
	"linguameet/internal/model"
	"linguameet/pkg/apierror"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[string]model.User
	byEmail map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]model.User),
	}
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return model.ErrUserAlreadyExists
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u
	return nil
}

func (s *fakeUserStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
}

type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe() (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	close(ch)
	return ch, func() {}
}

func (b *recordingBus) types() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]event.Type, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore, *recordingBus) {
	t.Helper()
	users := newFakeUserStore()
	bus := &recordingBus{}
	tokens := newTestTokenService(newFakeTokenStore())
	return NewAuthService(users, tokens, bus), users, bus
}

func register(t *testing.T, svc *AuthService, email string) model.TokenPair {
	t.Helper()
	pair, err := svc.Register(context.Background(), model.RegisterRequest{
		FirstName: "Ana",
		LastName:  "Petrova",
		Email:     email,
		Password:  "correct horse",
	})
	require.NoError(t, err)
	return pair
}

func TestAuthService_RegisterIssuesWorkingSession(t *testing.T) {
	t.Parallel()
	svc, _, bus := newTestAuthService(t)

	pair := register(t, svc, "ana@example.com")
	require.Equal(t, "Bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int64(0), pair.User.Balance)
	require.NotNil(t, pair.User.Profile)
	require.False(t, pair.User.Profile.Completed)

	claims, ok := svc.tokens.VerifyAccess(pair.AccessToken)
	require.True(t, ok)
	require.Equal(t, pair.User.ID, claims.Subject)

	require.Equal(t, []event.Type{event.TypeUserRegistered}, bus.types())
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	register(t, svc, "ana@example.com")

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "ana@example.com",
		Password:  "different password",
	})

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "ALREADY_EXISTS", apiErr.Code)
	require.Equal(t, 409, apiErr.HTTPStatus)
}

func TestAuthService_LoginWrongCredentialsAreIndistinguishable(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	register(t, svc, "ana@example.com")

	_, errUnknown := svc.Login(context.Background(), model.LoginRequest{
		Email: "nobody@example.com", Password: "correct horse",
	})
	_, errWrongPass := svc.Login(context.Background(), model.LoginRequest{
		Email: "ana@example.com", Password: "wrong password",
	})

	var a, b *apierror.APIError
	require.ErrorAs(t, errUnknown, &a)
	require.ErrorAs(t, errWrongPass, &b)
	require.Equal(t, a.Code, b.Code)
	require.Equal(t, a.Message, b.Message)
	require.Equal(t, a.HTTPStatus, b.HTTPStatus)
}

func TestAuthService_LoginInvalidatesPreviousSession(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	first := register(t, svc, "ana@example.com")

	svc.tokens.now = func() time.Time { return time.Now().Add(time.Second) }
	second, err := svc.Login(context.Background(), model.LoginRequest{
		Email: "ana@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)

	svc.tokens.now = func() time.Time { return time.Now().Add(2 * time.Second) }
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	pair := register(t, svc, "ana@example.com")

	svc.tokens.now = func() time.Time { return time.Now().Add(time.Second) }
	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The rotated-out token must stop working immediately.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestAuthService_RefreshRejectsBadInput(t *testing.T) {
	t.Parallel()
	svc, users, _ := newTestAuthService(t)
	pair := register(t, svc, "ana@example.com")

	var apiErr *apierror.APIError

	_, err := svc.Refresh(context.Background(), "")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)

	// A signed token whose user row is gone is also unauthorized.
	users.delete(pair.User.ID)
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	pair := register(t, svc, "ana@example.com")

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), "never-existed"))

	_, err := svc.Refresh(context.Background(), pair.RefreshToken)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)
}
