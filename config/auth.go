package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeHosted uses the hosted session backend for authentication.
	AuthModeHosted AuthMode = "hosted"
	// AuthModeDev uses an in-process dev identity (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "hosted", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: hosted, dev)", v)
	}
}

// HostedAuthConfig contains hosted session backend configuration.
type HostedAuthConfig struct {
	TokenURL     string `env:"TOKEN_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	ClientID     string `env:"CLIENT_ID"     envDefault:"portfolio"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// JWKSURL, Issuer and Audience enable access token verification.
	// When JWKSURL is empty, token claims are read without verification
	// (acceptable only when the token endpoint is trusted transport).
	JWKSURL  string `env:"JWKS_URL"`
	Issuer   string `env:"ISSUER"`
	Audience string `env:"AUDIENCE"`

	// IdentityExpression and EmailExpression are JMESPath expressions
	// selecting the identity id and email from the token claims.
	IdentityExpression string `env:"IDENTITY_EXPRESSION" envDefault:"sub"`
	EmailExpression    string `env:"EMAIL_EXPRESSION"    envDefault:"email"`

	// RefreshLeeway is how long before expiry a session token is
	// proactively refreshed.
	RefreshLeeway time.Duration `env:"REFRESH_LEEWAY" envDefault:"2m"`
}

// DevAuthConfig controls the dev identity. Used when AUTH_MODE=dev for
// development and testing.
type DevAuthConfig struct {
	UserID          string        `env:"USER_ID"          envDefault:"dev-user"`
	Email           string        `env:"EMAIL"            envDefault:"dev@example.com"`
	Password        string        `env:"PASSWORD"         envDefault:"dev-password"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which session backend to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"hosted"`

	// Hosted backend configuration (used when Mode=hosted).
	Hosted HostedAuthConfig `envPrefix:"HOSTED_AUTH_"`

	// Dev identity configuration (used when Mode=dev).
	Dev DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminMarker is the role-record value that grants admin access.
	AdminMarker string `env:"ADMIN_MARKER" envDefault:"admin"`

	// EditorMarker is the role-record value mapped to the editor role.
	EditorMarker string `env:"EDITOR_MARKER" envDefault:"editor"`

	// SessionTTL bounds the lifetime of the cookie-bound admin session.
	SessionTTL time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"12h"`

	// RoleCacheTTL bounds how long resolved role records are cached.
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL" envDefault:"5m"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < time.Minute {
		a.SessionTTL = time.Minute
	}
	if a.RoleCacheTTL <= 0 {
		a.RoleCacheTTL = 5 * time.Minute
	}
	if a.Dev.SessionDuration <= 0 {
		a.Dev.SessionDuration = 8 * time.Hour
	}
}
