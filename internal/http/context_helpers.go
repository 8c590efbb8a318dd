package httpx

import (
	"context"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
)

// adminSessionKey is an unexported context key type to avoid collisions
// across packages. Centralized here so all handlers/middleware use the
// same key.
type adminSessionKey struct{}

// SetAdminSessionInContext returns a child context that carries the given
// admin session. If session is nil, the original ctx is returned unchanged.
func SetAdminSessionInContext(ctx context.Context, session *domainauth.AdminSession) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, adminSessionKey{}, session)
}

// GetAdminSessionFromContext returns the admin session from context and a
// boolean indicating presence.
func GetAdminSessionFromContext(ctx context.Context) (*domainauth.AdminSession, bool) {
	if session, ok := ctx.Value(adminSessionKey{}).(*domainauth.AdminSession); ok && session != nil {
		return session, true
	}
	return nil, false
}
