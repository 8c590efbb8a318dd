package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore      = (*MockSessionStore)(nil)
	_ ports.RoleResolver      = (*MockRoleResolver)(nil)
	_ ports.AdminSessionStore = (*MemoryAdminSessionStore)(nil)
	_ ports.RoleMapper        = (StaticRoleMapper{})
)

// MockSessionStore simulates the hosted session backend for tests. Each
// behavior can be scripted with a func field; unset fields behave like a
// signed-out backend. Emit delivers a session-change notification to all
// registered watchers in registration order.
type MockSessionStore struct {
	CurrentSessionFunc func(ctx context.Context) (*domainauth.Session, error)
	SignInFunc         func(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error)
	SignOutFunc        func(ctx context.Context) error

	mu       sync.Mutex
	watchers []*watcher

	// SignOutCalls counts SignOut invocations (for forced-logout asserts).
	SignOutCalls int
}

type watcher struct {
	fn     func(*domainauth.Session)
	active bool
}

func (m *MockSessionStore) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	if m.CurrentSessionFunc != nil {
		return m.CurrentSessionFunc(ctx)
	}
	return nil, nil
}

func (m *MockSessionStore) SignIn(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, creds)
	}
	return nil, ports.ErrInvalidCredentials
}

func (m *MockSessionStore) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.SignOutCalls++
	m.mu.Unlock()
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	return nil
}

func (m *MockSessionStore) Watch(onChange func(*domainauth.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &watcher{fn: onChange, active: true}
	m.watchers = append(m.watchers, w)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		w.active = false
	}
}

// Emit delivers a session-change notification to all active watchers.
func (m *MockSessionStore) Emit(sess *domainauth.Session) {
	m.mu.Lock()
	watchers := make([]*watcher, len(m.watchers))
	copy(watchers, m.watchers)
	m.mu.Unlock()

	for _, w := range watchers {
		if w.active {
			w.fn(sess)
		}
	}
}

// WatcherCount reports how many active watchers are registered.
func (m *MockSessionStore) WatcherCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.watchers {
		if w.active {
			n++
		}
	}
	return n
}

// NewSession builds a backend session for an identity, expiring in an hour.
func NewSession(id, email string) *domainauth.Session {
	return &domainauth.Session{
		Identity:  domainauth.Identity{ID: id, Email: email},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// MockRoleResolver scripts role resolution per identity. Unscripted
// identities resolve to ports.ErrRoleNotFound. InvalidateCalls records
// cache-invalidation requests from the controller.
type MockRoleResolver struct {
	ResolveFunc func(ctx context.Context, identityID string) (domainauth.RoleRecord, error)

	mu              sync.Mutex
	roles           map[string]domainauth.Role
	InvalidateCalls []string
}

// NewMockRoleResolver creates a resolver with a fixed identity→role table.
func NewMockRoleResolver(roles map[string]domainauth.Role) *MockRoleResolver {
	return &MockRoleResolver{roles: roles}
}

func (m *MockRoleResolver) Resolve(ctx context.Context, identityID string) (domainauth.RoleRecord, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, identityID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[identityID]
	if !ok {
		return domainauth.RoleRecord{}, ports.ErrRoleNotFound
	}
	return domainauth.RoleRecord{IdentityID: identityID, Role: role}, nil
}

// Invalidate satisfies the controller's optional cache-invalidation hook.
func (m *MockRoleResolver) Invalidate(_ context.Context, identityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvalidateCalls = append(m.InvalidateCalls, identityID)
}

// StaticRoleMapper maps a stored role value to an application role using
// exact string comparison against the configured markers.
type StaticRoleMapper struct {
	AdminMarker string
}

func (m StaticRoleMapper) Map(stored string) domainauth.Role {
	if m.AdminMarker != "" && stored == m.AdminMarker {
		return domainauth.RoleAdmin
	}
	if stored == string(domainauth.RoleEditor) {
		return domainauth.RoleEditor
	}
	return domainauth.RoleViewer
}

// MemoryAdminSessionStore is an in-memory ports.AdminSessionStore.
type MemoryAdminSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.AdminSession

	// GetErr and SaveErr, when set, are returned by the matching method.
	GetErr  error
	SaveErr error
}

// NewMemoryAdminSessionStore creates an empty in-memory session store.
func NewMemoryAdminSessionStore() *MemoryAdminSessionStore {
	return &MemoryAdminSessionStore{sessions: make(map[string]domainauth.AdminSession)}
}

func (m *MemoryAdminSessionStore) Save(_ context.Context, sess domainauth.AdminSession) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemoryAdminSessionStore) Get(_ context.Context, id string) (domainauth.AdminSession, error) {
	if m.GetErr != nil {
		return domainauth.AdminSession{}, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.AdminSession{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemoryAdminSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemoryAdminSessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned when a session is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrNotFound error = notFoundError{}
