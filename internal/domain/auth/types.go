package auth

// Package auth contains domain-level types for authentication and
// authorization state. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role as stored on the
// role-bearing profile record. Keep string form for easy persistence.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// IsAdmin reports whether the role grants access to the admin area.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Identity is the stable reference to an authenticated principal issued by
// the hosted session backend. It is used only as a lookup key into role
// resolution; this service never creates identities.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the backend-issued proof of authentication for an identity.
// Sessions are owned by the session backend; this service only observes
// them and never persists them itself.
type Session struct {
	Identity     Identity  `json:"identity"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return s != nil && !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// RoleRecord is the backend-stored authorization classification for an
// identity: one record per identity, looked up by identity id.
type RoleRecord struct {
	IdentityID string `json:"identity_id"`
	Role       Role   `json:"role"`
}

// Credentials is the identifier/secret pair exchanged for a session.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthState is the controller-owned authentication state shared read-only
// with the rest of the application.
//
// Invariants:
//   - IsAdmin is true only when Identity is non-nil and the identity's role
//     record carries the admin role.
//   - Loading is true from process start until the first session check (and
//     any role lookup it triggers) completes, and false thereafter.
type AuthState struct {
	Identity *Identity `json:"identity"`
	IsAdmin  bool      `json:"is_admin"`
	Loading  bool      `json:"loading"`
}

// Authenticated reports whether a principal is currently signed in.
func (s AuthState) Authenticated() bool { return s.Identity != nil }

// AdminSession is the server-side record bound to a browser of the admin
// area after a successful admin login. ID is an opaque random identifier.
type AdminSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
