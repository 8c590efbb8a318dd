package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
)

// ErrInvalidCredentials is returned by SessionStore.SignIn when the backend
// rejects the identifier/secret pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrRoleNotFound is returned by RoleResolver.Resolve when no role record
// exists for the identity. Callers must treat it as "not an admin", never
// as a failure that aborts the flow.
var ErrRoleNotFound = errors.New("role record not found")

// SessionStore is the hosted session backend: it issues, persists, and
// notifies about login sessions. This service only observes sessions; it
// never stores backend sessions itself.
type SessionStore interface {
	// CurrentSession returns the existing session, or nil when signed out.
	CurrentSession(ctx context.Context) (*domainauth.Session, error)

	// SignIn exchanges credentials for a session. A credential rejection is
	// reported as ErrInvalidCredentials; any other error is infrastructure.
	SignIn(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error)

	// SignOut invalidates the current session on the backend.
	SignOut(ctx context.Context) error

	// Watch registers a callback invoked, in order, on every session change
	// (sign-in, refresh, sign-out, expiry). The callback receives nil when
	// the session ended. The returned func cancels the registration and is
	// safe to call more than once.
	Watch(onChange func(*domainauth.Session)) (unsubscribe func())
}

// RoleResolver maps an identity to its role record. A missing record is
// ErrRoleNotFound; any other error is a transport/backend lookup failure.
type RoleResolver interface {
	Resolve(ctx context.Context, identityID string) (domainauth.RoleRecord, error)
}

// RoleMapper normalizes a stored role value to an application role.
type RoleMapper interface {
	Map(stored string) domainauth.Role
}

// AdminSessionStore persists the server-side admin-area sessions bound to
// browser cookies after a successful admin login.
type AdminSessionStore interface {
	Save(ctx context.Context, sess domainauth.AdminSession) error
	Get(ctx context.Context, id string) (domainauth.AdminSession, error)
	Delete(ctx context.Context, id string) error
}

// MediaUploader uploads an image to the hosted media CDN and returns its
// public URL.
type MediaUploader interface {
	Upload(ctx context.Context, filename string, content []byte) (string, error)
}
