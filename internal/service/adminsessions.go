package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

// ErrSessionExpired is returned by AdminSessionService.Get for sessions
// past their expiry; the stale record is cleaned up on the way out.
var ErrSessionExpired = errors.New("session expired")

const defaultAdminSessionTTL = 8 * time.Hour

// AdminSessionServiceOptions groups dependencies for AdminSessionService.
type AdminSessionServiceOptions struct {
	Store ports.AdminSessionStore

	// TTL caps how long an issued session may live even when the backend
	// session reports a later expiry.
	TTL time.Duration
}

// AdminSessionService issues and validates the server-side sessions that
// bind an admin's browser to an authenticated backend session.
type AdminSessionService struct {
	store ports.AdminSessionStore
	ttl   time.Duration
}

// NewAdminSessionService constructs an AdminSessionService.
func NewAdminSessionService(opts AdminSessionServiceOptions) (*AdminSessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("admin session service: store is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultAdminSessionTTL
	}
	return &AdminSessionService{store: opts.Store, ttl: ttl}, nil
}

// Issue persists a new admin session for an authenticated backend session
// and returns it. The expiry is the backend session's expiry clamped to the
// configured TTL.
func (s *AdminSessionService) Issue(ctx context.Context, sess *domainauth.Session, role domainauth.Role) (domainauth.AdminSession, error) {
	if sess == nil {
		return domainauth.AdminSession{}, errors.New("backend session is required")
	}

	expiresAt := time.Now().Add(s.ttl)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(expiresAt) {
		expiresAt = sess.ExpiresAt
	}

	admin := domainauth.AdminSession{
		ID:        uuid.NewString(),
		UserID:    sess.Identity.ID,
		Email:     sess.Identity.Email,
		Role:      role,
		ExpiresAt: expiresAt,
	}
	if err := s.store.Save(ctx, admin); err != nil {
		return domainauth.AdminSession{}, fmt.Errorf("save admin session: %w", err)
	}
	return admin, nil
}

// Get retrieves a session by ID, deleting and rejecting expired records.
func (s *AdminSessionService) Get(ctx context.Context, id string) (*domainauth.AdminSession, error) {
	if id == "" {
		return nil, errors.New("session ID is required")
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get admin session: %w", err)
	}

	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.store.Delete(ctx, id); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete admin session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	return &sess, nil
}

// Revoke removes a session. Revoking an unknown or empty ID is a no-op.
func (s *AdminSessionService) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}
	return nil
}
