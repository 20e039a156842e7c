package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"linguameet/internal/model"
	"linguameet/pkg/apierror"
)

type fakeAuthService struct {
	registerFn func(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error)
	loginFn    func(ctx context.Context, req model.LoginRequest) (model.TokenPair, error)
	logoutFn   func(ctx context.Context, refreshToken string) error
	refreshFn  func(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

func (s *fakeAuthService) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	return s.registerFn(ctx, req)
}

func (s *fakeAuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	return s.loginFn(ctx, req)
}

func (s *fakeAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

func (s *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func testPair() model.TokenPair {
	return model.TokenPair{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresIn:    1800,
		User:         model.PublicUser{ID: "u1", Email: "ana@example.com"},
	}
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{
		registerFn: func(_ context.Context, req model.RegisterRequest) (model.TokenPair, error) {
			require.Equal(t, "ana@example.com", req.Email)
			return testPair(), nil
		},
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	body := `{"first_name":"Ana","last_name":"Petrova","email":"ana@example.com","password":"correct horse"}`
	req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	require.Equal(t, "refresh-1", cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.False(t, cookie.Secure)

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{
		registerFn: func(context.Context, model.RegisterRequest) (model.TokenPair, error) {
			t.Error("service must not be called for invalid payloads")
			return model.TokenPair{}, nil
		},
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing first name", `{"last_name":"P","email":"a@b.com","password":"longenough"}`},
		{"bad email", `{"first_name":"Ana","last_name":"P","email":"not-an-email","password":"longenough"}`},
		{"short password", `{"first_name":"Ana","last_name":"P","email":"a@b.com","password":"short"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp model.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.False(t, resp.Success)
			require.Equal(t, "BAD_REQUEST", resp.Error.Code)
		})
	}
}

func TestAuthHandler_LoginSetsSecureCookieInProd(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{
		loginFn: func(context.Context, model.LoginRequest) (model.TokenPair, error) {
			return testPair(), nil
		},
	}
	h := NewAuthHandler(svc, true, 720*time.Hour)

	body := `{"email":"ana@example.com","password":"correct horse"}`
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	require.True(t, cookie.Secure)
}

func TestAuthHandler_LoginErrorPassesThrough(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{
		loginFn: func(context.Context, model.LoginRequest) (model.TokenPair, error) {
			return model.TokenPair{}, apierror.New("INVALID_CREDENTIALS", "login or password is incorrect", "", http.StatusBadRequest)
		},
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	body := `{"email":"ana@example.com","password":"wrong"}`
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, refreshCookie(rec))

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestAuthHandler_RefreshReadsCookieFirst(t *testing.T) {
	t.Parallel()

	var seen string
	svc := &fakeAuthService{
		refreshFn: func(_ context.Context, refreshToken string) (model.TokenPair, error) {
			seen = refreshToken
			return testPair(), nil
		},
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	req := httptest.NewRequest("POST", "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"from-body"}`))
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "from-cookie"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "from-cookie", seen)
}

func TestAuthHandler_RefreshBodyFallback(t *testing.T) {
	t.Parallel()

	var seen string
	svc := &fakeAuthService{
		refreshFn: func(_ context.Context, refreshToken string) (model.TokenPair, error) {
			seen = refreshToken
			return testPair(), nil
		},
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	req := httptest.NewRequest("POST", "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"from-body"}`))
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "from-body", seen)
}

func TestAuthHandler_RefreshWithoutTokenIsUnauthorized(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{
		refreshFn: func(context.Context, string) (model.TokenPair, error) {
			t.Error("service must not be called without a token")
			return model.TokenPair{}, nil
		},
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	req := httptest.NewRequest("POST", "/api/v1/auth/refresh", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	t.Parallel()

	svc := &fakeAuthService{
		logoutFn: func(context.Context, string) error { return nil },
	}
	h := NewAuthHandler(svc, false, 720*time.Hour)

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", strings.NewReader(`{}`))
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "refresh-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}
