package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	mocks "github.com/openfolio/portfolio-api/internal/mocks/auth"
	"github.com/openfolio/portfolio-api/internal/service"
)

type authFixture struct {
	handlers *AuthHandlers
	store    *mocks.MockSessionStore
	sessions *mocks.MemoryAdminSessionStore
}

func newAuthFixture(t *testing.T, store *mocks.MockSessionStore, roles map[string]domainauth.Role) *authFixture {
	t.Helper()

	ctrl, err := service.NewAuthController(service.AuthControllerOptions{
		Sessions: store,
		Roles:    mocks.NewMockRoleResolver(roles),
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.Start(context.Background()))
	t.Cleanup(ctrl.Close)

	memory := mocks.NewMemoryAdminSessionStore()
	sessSvc, err := service.NewAdminSessionService(service.AdminSessionServiceOptions{Store: memory})
	require.NoError(t, err)

	return &authFixture{
		handlers: &AuthHandlers{Auth: ctrl, Sessions: sessSvc},
		store:    store,
		sessions: memory,
	}
}

func postLogin(t *testing.T, h *AuthHandlers, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(domainauth.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func adminSessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == AdminSessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_LoginAdmin(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			if creds.Email == "owner@example.com" && creds.Password == "pw" {
				return mocks.NewSession("user-1", creds.Email), nil
			}
			return nil, errors.New("unexpected credentials")
		},
	}
	fx := newAuthFixture(t, store, map[string]domainauth.Role{"user-1": domainauth.RoleAdmin})

	rec := postLogin(t, fx.handlers, "owner@example.com", "pw")

	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := adminSessionCookie(rec)
	require.NotNil(t, cookie, "admin session cookie must be set")
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)
	assert.Equal(t, 1, fx.sessions.Len())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, true, resp["is_admin"])
	user, ok := resp["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-1", user["id"])
}

func TestAuthHandlers_LoginNonAdminRejected(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("user-2", creds.Email), nil
		},
	}
	fx := newAuthFixture(t, store, map[string]domainauth.Role{"user-2": domainauth.RoleEditor})

	rec := postLogin(t, fx.handlers, "editor@example.com", "pw")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, adminSessionCookie(rec))
	assert.Equal(t, 0, fx.sessions.Len())
	// The session created during the attempt was forcibly signed out.
	assert.Equal(t, 1, fx.store.SignOutCalls)
}

func TestAuthHandlers_LoginErrorsAreIndistinguishable(t *testing.T) {
	badCreds := &mocks.MockSessionStore{} // default SignIn rejects
	fxBad := newAuthFixture(t, badCreds, nil)
	recBad := postLogin(t, fxBad.handlers, "someone@example.com", "wrong")

	nonAdmin := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("user-2", creds.Email), nil
		},
	}
	fxNonAdmin := newAuthFixture(t, nonAdmin, map[string]domainauth.Role{"user-2": domainauth.RoleViewer})
	recNonAdmin := postLogin(t, fxNonAdmin.handlers, "viewer@example.com", "pw")

	// Same status and body for a bad password and a valid non-admin, so
	// the endpoint cannot be used to probe which accounts exist.
	assert.Equal(t, recBad.Code, recNonAdmin.Code)
	assert.Equal(t, recBad.Body.String(), recNonAdmin.Body.String())
}

func TestAuthHandlers_LoginBackendUnavailable(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(context.Context, domainauth.Credentials) (*domainauth.Session, error) {
			return nil, errors.New("backend down")
		},
	}
	fx := newAuthFixture(t, store, nil)

	rec := postLogin(t, fx.handlers, "owner@example.com", "pw")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_backend_unavailable")
}

func TestAuthHandlers_LoginValidation(t *testing.T) {
	fx := newAuthFixture(t, &mocks.MockSessionStore{}, nil)

	rec := postLogin(t, fx.handlers, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a","unknown":1}`))
	rec = httptest.NewRecorder()
	fx.handlers.Login(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}

func TestAuthHandlers_Logout(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("user-1", creds.Email), nil
		},
	}
	store.SignOutFunc = func(context.Context) error {
		store.Emit(nil)
		return nil
	}
	fx := newAuthFixture(t, store, map[string]domainauth.Role{"user-1": domainauth.RoleAdmin})

	loginRec := postLogin(t, fx.handlers, "owner@example.com", "pw")
	cookie := adminSessionCookie(loginRec)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: cookie.Value})
	rec := httptest.NewRecorder()
	fx.handlers.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed_out")
	assert.Equal(t, 0, fx.sessions.Len())

	cleared := adminSessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestAuthHandlers_LogoutBackendFailure(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignOutFunc: func(context.Context) error { return errors.New("backend down") },
	}
	fx := newAuthFixture(t, store, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	fx.handlers.Logout(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthHandlers_LogoutBrowserRedirects(t *testing.T) {
	fx := newAuthFixture(t, &mocks.MockSessionStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout?redirect_uri=/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	fx.handlers.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAuthHandlers_StatusSignedOut(t *testing.T) {
	fx := newAuthFixture(t, &mocks.MockSessionStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	rec := httptest.NewRecorder()
	fx.handlers.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["authenticated"])
	assert.Equal(t, false, resp["is_admin"])
	assert.NotContains(t, resp, "user")
}

func TestAuthHandlers_StatusSignedIn(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("user-1", creds.Email), nil
		},
	}
	fx := newAuthFixture(t, store, map[string]domainauth.Role{"user-1": domainauth.RoleAdmin})

	loginRec := postLogin(t, fx.handlers, "owner@example.com", "pw")
	cookie := adminSessionCookie(loginRec)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: cookie.Value})
	rec := httptest.NewRecorder()
	fx.handlers.Status(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, true, resp["is_admin"])
}

func TestAuthHandlers_StatusClearsDeadCookie(t *testing.T) {
	fx := newAuthFixture(t, &mocks.MockSessionStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: "expired-or-unknown"})
	rec := httptest.NewRecorder()
	fx.handlers.Status(rec, req)

	cleared := adminSessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}
