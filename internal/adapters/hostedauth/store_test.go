package hostedauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

// signTestToken builds a signed JWT carrying the given claims. The store
// parses claims without verification when no JWKS URL is configured, so
// the signing key is irrelevant here.
func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func tokenEndpoint(t *testing.T, accessToken string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer","refresh_token":"refresh-1","expires_in":3600}`, accessToken)
	}))
}

func TestStore_SignIn(t *testing.T) {
	accessToken := signTestToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "owner@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	srv := tokenEndpoint(t, accessToken, http.StatusOK)
	defer srv.Close()

	store, err := New(Config{TokenURL: srv.URL})
	require.NoError(t, err)

	sess, err := store.SignIn(context.Background(), domainauth.Credentials{Email: "owner@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.Identity.ID)
	assert.Equal(t, "owner@example.com", sess.Identity.Email)
	assert.Equal(t, accessToken, sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	current, err := store.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.Identity, current.Identity)
}

func TestStore_SignInInvalidCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		srv := tokenEndpoint(t, "", status)

		store, err := New(Config{TokenURL: srv.URL})
		require.NoError(t, err)

		_, err = store.SignIn(context.Background(), domainauth.Credentials{Email: "x", Password: "y"})
		assert.ErrorIs(t, err, ports.ErrInvalidCredentials, "status %d", status)
		srv.Close()
	}
}

func TestStore_SignInBackendFailure(t *testing.T) {
	srv := tokenEndpoint(t, "", http.StatusInternalServerError)
	defer srv.Close()

	store, err := New(Config{TokenURL: srv.URL})
	require.NoError(t, err)

	_, err = store.SignIn(context.Background(), domainauth.Credentials{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestStore_ClaimExpressions(t *testing.T) {
	accessToken := signTestToken(t, jwt.MapClaims{
		"sub": "ignored",
		"app_metadata": map[string]any{
			"identity": "mapped-user",
			"contact":  "mapped@example.com",
		},
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	srv := tokenEndpoint(t, accessToken, http.StatusOK)
	defer srv.Close()

	store, err := New(Config{
		TokenURL:        srv.URL,
		IDExpression:    "app_metadata.identity",
		EmailExpression: "app_metadata.contact",
	})
	require.NoError(t, err)

	sess, err := store.SignIn(context.Background(), domainauth.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)
	assert.Equal(t, "mapped-user", sess.Identity.ID)
	assert.Equal(t, "mapped@example.com", sess.Identity.Email)
}

func TestStore_MissingIdentityClaimFails(t *testing.T) {
	accessToken := signTestToken(t, jwt.MapClaims{
		"email": "owner@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	srv := tokenEndpoint(t, accessToken, http.StatusOK)
	defer srv.Close()

	store, err := New(Config{TokenURL: srv.URL})
	require.NoError(t, err)

	_, err = store.SignIn(context.Background(), domainauth.Credentials{Email: "a", Password: "b"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "identity id claim missing")
}

func TestStore_WatchNotifications(t *testing.T) {
	accessToken := signTestToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "owner@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	tokenSrv := tokenEndpoint(t, accessToken, http.StatusOK)
	defer tokenSrv.Close()

	var logoutCalls int
	var gotAuth string
	var mu sync.Mutex
	logoutSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		logoutCalls++
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer logoutSrv.Close()

	store, err := New(Config{TokenURL: tokenSrv.URL, LogoutURL: logoutSrv.URL})
	require.NoError(t, err)

	var seen []*domainauth.Session
	unsubscribe := store.Watch(func(sess *domainauth.Session) {
		seen = append(seen, sess)
	})
	defer unsubscribe()

	_, err = store.SignIn(context.Background(), domainauth.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)
	require.NoError(t, store.SignOut(context.Background()))

	require.Len(t, seen, 2)
	require.NotNil(t, seen[0])
	assert.Equal(t, "user-1", seen[0].Identity.ID)
	assert.Nil(t, seen[1])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, logoutCalls)
	assert.Equal(t, "Bearer "+accessToken, gotAuth)
}

// Concurrent swaps (refresh loop racing a sign-out) must reach watchers
// in swap order, so the last delivery always matches the stored session.
func TestStore_WatcherOrderMatchesSwapOrder(t *testing.T) {
	store, err := New(Config{TokenURL: "http://unused.invalid/token"})
	require.NoError(t, err)

	var mu sync.Mutex
	var last *domainauth.Session
	unsubscribe := store.Watch(func(sess *domainauth.Session) {
		mu.Lock()
		last = sess
		mu.Unlock()
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		sess := &domainauth.Session{Identity: domainauth.Identity{ID: fmt.Sprintf("user-%d", i)}}
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.setSession(sess, nil)
		}()
	}
	wg.Wait()

	current, err := store.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, last)
	assert.Equal(t, current.Identity, last.Identity)
}

func TestStore_SignOutWhenSignedOut(t *testing.T) {
	store, err := New(Config{TokenURL: "http://unused.invalid/token"})
	require.NoError(t, err)

	// No session, no backend call, no error.
	require.NoError(t, store.SignOut(context.Background()))
}

func TestStore_SignOutToleratesDeadToken(t *testing.T) {
	accessToken := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenSrv := tokenEndpoint(t, accessToken, http.StatusOK)
	defer tokenSrv.Close()

	logoutSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer logoutSrv.Close()

	store, err := New(Config{TokenURL: tokenSrv.URL, LogoutURL: logoutSrv.URL})
	require.NoError(t, err)

	_, err = store.SignIn(context.Background(), domainauth.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)

	require.NoError(t, store.SignOut(context.Background()))

	current, err := store.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestStore_UnsubscribeIsIdempotent(t *testing.T) {
	store, err := New(Config{TokenURL: "http://unused.invalid/token"})
	require.NoError(t, err)

	unsubscribe := store.Watch(func(*domainauth.Session) {})
	unsubscribe()
	unsubscribe()
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{TokenURL: "http://x/token", IDExpression: "not a [valid expr"})
	require.Error(t, err)

	_, err = New(Config{TokenURL: "http://x/token", EmailExpression: "]["})
	require.Error(t, err)
}
