package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	mocks "github.com/openfolio/portfolio-api/internal/mocks/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

func newTestController(t *testing.T, store *mocks.MockSessionStore, roles ports.RoleResolver) *AuthController {
	t.Helper()
	ctrl, err := NewAuthController(AuthControllerOptions{
		Sessions: store,
		Roles:    roles,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func waitForState(t *testing.T, ctrl *AuthController, want func(domainauth.AuthState) bool) domainauth.AuthState {
	t.Helper()
	var last domainauth.AuthState
	require.Eventually(t, func() bool {
		last = ctrl.CurrentState()
		return want(last)
	}, 2*time.Second, 5*time.Millisecond, "state never converged; last: %+v", last)
	return last
}

func TestNewAuthController_RequiresDependencies(t *testing.T) {
	_, err := NewAuthController(AuthControllerOptions{Roles: mocks.NewMockRoleResolver(nil)})
	assert.Error(t, err)

	_, err = NewAuthController(AuthControllerOptions{Sessions: &mocks.MockSessionStore{}})
	assert.Error(t, err)
}

func TestAuthController_StateBeforeStartIsLoading(t *testing.T) {
	ctrl := newTestController(t, &mocks.MockSessionStore{}, mocks.NewMockRoleResolver(nil))

	state := ctrl.CurrentState()
	assert.True(t, state.Loading)
	assert.Nil(t, state.Identity)
	assert.False(t, state.IsAdmin)
}

func TestAuthController_Start_NoExistingSession(t *testing.T) {
	store := &mocks.MockSessionStore{}
	ctrl := newTestController(t, store, mocks.NewMockRoleResolver(nil))

	require.NoError(t, ctrl.Start(context.Background()))

	state := ctrl.CurrentState()
	assert.Nil(t, state.Identity)
	assert.False(t, state.IsAdmin)
	assert.False(t, state.Loading, "loading clears once the first session check resolves")
	assert.Equal(t, 1, store.WatcherCount())
}

func TestAuthController_Start_ExistingAdminSession(t *testing.T) {
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) {
			return mocks.NewSession("admin-1", "owner@example.com"), nil
		},
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)

	require.NoError(t, ctrl.Start(context.Background()))

	state := ctrl.CurrentState()
	require.NotNil(t, state.Identity)
	assert.Equal(t, "admin-1", state.Identity.ID)
	assert.True(t, state.IsAdmin)
	assert.False(t, state.Loading)
}

func TestAuthController_Start_SessionCheckFailureTreatedAsSignedOut(t *testing.T) {
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) {
			return nil, errors.New("backend unreachable")
		},
	}
	ctrl := newTestController(t, store, mocks.NewMockRoleResolver(nil))

	require.NoError(t, ctrl.Start(context.Background()))

	state := ctrl.CurrentState()
	assert.Nil(t, state.Identity)
	assert.False(t, state.Loading)
}

func TestAuthController_Start_RoleLookupFailureDefaultsToNonAdmin(t *testing.T) {
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) {
			return mocks.NewSession("admin-1", "owner@example.com"), nil
		},
	}
	roles := &mocks.MockRoleResolver{
		ResolveFunc: func(context.Context, string) (domainauth.RoleRecord, error) {
			return domainauth.RoleRecord{}, errors.New("database down")
		},
	}
	ctrl := newTestController(t, store, roles)

	require.NoError(t, ctrl.Start(context.Background()), "lookup failures never escape initialization")

	state := ctrl.CurrentState()
	require.NotNil(t, state.Identity, "session is still valid, only the role is unknown")
	assert.False(t, state.IsAdmin)
	assert.False(t, state.Loading)
}

func TestAuthController_Start_Twice(t *testing.T) {
	ctrl := newTestController(t, &mocks.MockSessionStore{}, mocks.NewMockRoleResolver(nil))
	require.NoError(t, ctrl.Start(context.Background()))
	assert.Error(t, ctrl.Start(context.Background()))
}

func TestAuthController_Login_Admin(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			if creds.Email == "admin@example.com" && creds.Password == "correct" {
				return mocks.NewSession("admin-1", creds.Email), nil
			}
			return nil, ports.ErrInvalidCredentials
		},
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	sess, err := ctrl.Login(context.Background(), domainauth.Credentials{Email: "admin@example.com", Password: "correct"})

	require.NoError(t, err)
	require.NotNil(t, sess)
	state := ctrl.CurrentState()
	require.NotNil(t, state.Identity)
	assert.True(t, state.IsAdmin)
	assert.Equal(t, "admin-1", state.Identity.ID)
}

func TestAuthController_Login_NonAdminForcedOut(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("editor-1", creds.Email), nil
		},
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"editor-1": domainauth.RoleEditor})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	sess, err := ctrl.Login(context.Background(), domainauth.Credentials{Email: "user@example.com", Password: "correct"})

	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Nil(t, sess)
	assert.Equal(t, 1, store.SignOutCalls, "the just-created session must be invalidated")
	assert.Contains(t, roles.InvalidateCalls, "editor-1")

	state := ctrl.CurrentState()
	assert.Nil(t, state.Identity, "an authenticated non-admin never remains a stable state")
	assert.False(t, state.IsAdmin)
}

func TestAuthController_Login_MissingRoleRecordIsNotAuthorized(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("stranger-1", creds.Email), nil
		},
	}
	ctrl := newTestController(t, store, mocks.NewMockRoleResolver(nil))
	require.NoError(t, ctrl.Start(context.Background()))

	_, err := ctrl.Login(context.Background(), domainauth.Credentials{Email: "x@example.com", Password: "correct"})

	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, 1, store.SignOutCalls)
}

func TestAuthController_Login_InvalidCredentials(t *testing.T) {
	store := &mocks.MockSessionStore{}
	ctrl := newTestController(t, store, mocks.NewMockRoleResolver(nil))
	require.NoError(t, ctrl.Start(context.Background()))
	before := ctrl.CurrentState()

	sess, err := ctrl.Login(context.Background(), domainauth.Credentials{Email: "x", Password: "wrong"})

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, sess)
	assert.Equal(t, before, ctrl.CurrentState(), "credential failure mutates nothing")
	assert.Zero(t, store.SignOutCalls)
}

func TestAuthController_Login_BackendFailure(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(context.Context, domainauth.Credentials) (*domainauth.Session, error) {
			return nil, errors.New("http 502")
		},
	}
	ctrl := newTestController(t, store, mocks.NewMockRoleResolver(nil))
	require.NoError(t, ctrl.Start(context.Background()))

	_, err := ctrl.Login(context.Background(), domainauth.Credentials{Email: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAuthController_Logout_ConvergesViaNotification(t *testing.T) {
	sess := mocks.NewSession("admin-1", "owner@example.com")
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) { return sess, nil },
	}
	// The mock backend emits the signed-out notification from SignOut, the
	// way a real backend listener would.
	store.SignOutFunc = func(context.Context) error {
		store.Emit(nil)
		return nil
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))
	require.True(t, ctrl.CurrentState().IsAdmin)

	require.NoError(t, ctrl.Logout(context.Background()))

	state := waitForState(t, ctrl, func(s domainauth.AuthState) bool { return s.Identity == nil })
	assert.False(t, state.IsAdmin)
	assert.Contains(t, roles.InvalidateCalls, "admin-1")
}

func TestAuthController_Logout_WhenAlreadySignedOutIsIdempotent(t *testing.T) {
	store := &mocks.MockSessionStore{}
	ctrl := newTestController(t, store, mocks.NewMockRoleResolver(nil))
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.Logout(context.Background()))
	require.NoError(t, ctrl.Logout(context.Background()))

	state := ctrl.CurrentState()
	assert.Nil(t, state.Identity)
	assert.False(t, state.IsAdmin)
}

func TestAuthController_Logout_StoreFailureLeavesStateUntouched(t *testing.T) {
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) {
			return mocks.NewSession("admin-1", "owner@example.com"), nil
		},
		SignOutFunc: func(context.Context) error { return errors.New("http 503") },
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))
	before := ctrl.CurrentState()

	err := ctrl.Logout(context.Background())

	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, before, ctrl.CurrentState(), "do not optimistically clear state the backend could not confirm")
}

func TestAuthController_BackgroundDemotionIsPassive(t *testing.T) {
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) {
			return mocks.NewSession("admin-1", "owner@example.com"), nil
		},
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))
	require.True(t, ctrl.CurrentState().IsAdmin)

	// External demotion: the role record changes, then a session refresh
	// notification triggers re-derivation.
	roles.ResolveFunc = func(_ context.Context, id string) (domainauth.RoleRecord, error) {
		return domainauth.RoleRecord{IdentityID: id, Role: domainauth.RoleEditor}, nil
	}
	store.Emit(mocks.NewSession("admin-1", "owner@example.com"))

	state := waitForState(t, ctrl, func(s domainauth.AuthState) bool { return !s.IsAdmin })
	require.NotNil(t, state.Identity, "background demotion does not force a logout")
	assert.Equal(t, 0, store.SignOutCalls)
}

func TestAuthController_StaleDerivationNeverWins(t *testing.T) {
	releaseA := make(chan struct{})
	roles := &mocks.MockRoleResolver{
		ResolveFunc: func(_ context.Context, id string) (domainauth.RoleRecord, error) {
			if id == "user-a" {
				<-releaseA // user-a's lookup resolves after user-b's
				return domainauth.RoleRecord{IdentityID: id, Role: domainauth.RoleAdmin}, nil
			}
			return domainauth.RoleRecord{IdentityID: id, Role: domainauth.RoleEditor}, nil
		},
	}
	store := &mocks.MockSessionStore{}
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	store.Emit(mocks.NewSession("user-a", "a@example.com"))
	store.Emit(mocks.NewSession("user-b", "b@example.com"))

	// user-b's derivation lands first.
	waitForState(t, ctrl, func(s domainauth.AuthState) bool {
		return s.Identity != nil && s.Identity.ID == "user-b"
	})

	// Now let user-a's stale lookup complete; it must be discarded.
	close(releaseA)
	time.Sleep(50 * time.Millisecond)

	state := ctrl.CurrentState()
	require.NotNil(t, state.Identity)
	assert.Equal(t, "user-b", state.Identity.ID, "a stale, slower derivation must not overwrite fresher state")
	assert.False(t, state.IsAdmin)
}

func TestAuthController_ExpiredSessionTreatedAsSignedOut(t *testing.T) {
	expired := mocks.NewSession("admin-1", "owner@example.com")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	store := &mocks.MockSessionStore{
		CurrentSessionFunc: func(context.Context) (*domainauth.Session, error) { return expired, nil },
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)

	require.NoError(t, ctrl.Start(context.Background()))

	state := ctrl.CurrentState()
	assert.Nil(t, state.Identity)
	assert.False(t, state.IsAdmin)
}

func TestAuthController_Subscribe(t *testing.T) {
	store := &mocks.MockSessionStore{}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	ch, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	// Initial state is delivered immediately.
	select {
	case state := <-ch:
		assert.False(t, state.Loading)
		assert.Nil(t, state.Identity)
	case <-time.After(time.Second):
		t.Fatal("no initial state delivered")
	}

	store.Emit(mocks.NewSession("admin-1", "owner@example.com"))

	select {
	case state := <-ch:
		require.NotNil(t, state.Identity)
		assert.True(t, state.IsAdmin)
	case <-time.After(time.Second):
		t.Fatal("no state update delivered")
	}

	// Double unsubscribe is safe and closes the channel.
	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

// Subscribers must always get the channel back with the initial snapshot
// drainable, even when broadcasts race the registration. A blocking
// initial send would wedge the caller once broadcasts go quiet.
func TestAuthController_SubscribeDeliversInitialStateUnderBroadcastChurn(t *testing.T) {
	store := &mocks.MockSessionStore{}
	roles := mocks.NewMockRoleResolver(nil)
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				ctrl.broadcast(domainauth.AuthState{})
			}
		}
	}()
	defer wg.Wait()
	defer close(stop)

	for i := 0; i < 5000; i++ {
		done := make(chan struct{})
		go func() {
			ch, unsubscribe := ctrl.Subscribe()
			<-ch
			unsubscribe()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("subscriber wedged after %d completed Subscribe calls", i)
		}
	}
}

func TestAuthController_Close(t *testing.T) {
	store := &mocks.MockSessionStore{}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.Close()
	ctrl.Close() // second close is a no-op

	assert.Equal(t, 0, store.WatcherCount(), "the change subscription is torn down exactly once")

	// Notifications after close must not mutate state.
	before := ctrl.CurrentState()
	store.Emit(mocks.NewSession("admin-1", "owner@example.com"))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, ctrl.CurrentState())
}

// The admin flag can never be observed without an identity.
func TestAuthController_AdminImpliesIdentityInvariant(t *testing.T) {
	store := &mocks.MockSessionStore{
		SignInFunc: func(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
			return mocks.NewSession("admin-1", creds.Email), nil
		},
	}
	roles := mocks.NewMockRoleResolver(map[string]domainauth.Role{"admin-1": domainauth.RoleAdmin})
	ctrl := newTestController(t, store, roles)
	require.NoError(t, ctrl.Start(context.Background()))

	ch, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for state := range ch {
			if state.IsAdmin && state.Identity == nil {
				t.Error("observed IsAdmin with nil identity")
				return
			}
		}
	}()

	_, err := ctrl.Login(context.Background(), domainauth.Credentials{Email: "admin@example.com", Password: "correct"})
	require.NoError(t, err)
	store.Emit(nil)
	store.Emit(mocks.NewSession("admin-1", "admin@example.com"))
	waitForState(t, ctrl, func(s domainauth.AuthState) bool { return s.IsAdmin })

	unsubscribe()
	<-done
}
