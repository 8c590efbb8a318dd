package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

// Sentinel errors surfaced by AuthController to callers for display.
var (
	// ErrInvalidCredentials reports a bad identifier/secret pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthorized reports valid credentials whose role is not admin.
	// The session created during the attempt has already been invalidated.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrStoreUnavailable reports a session-backend infrastructure failure;
	// local state is left unchanged when it is returned.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// roleCacheInvalidator is implemented by role resolvers that cache results
// per identity; the controller invalidates the entry when that identity's
// session ends.
type roleCacheInvalidator interface {
	Invalidate(ctx context.Context, identityID string)
}

// AuthControllerOptions groups dependencies for AuthController.
type AuthControllerOptions struct {
	Sessions ports.SessionStore
	Roles    ports.RoleResolver
	Logger   *slog.Logger
}

// AuthController is the sole owner of the process-wide authentication
// state. It orchestrates login/logout against the session backend,
// subscribes to session-change notifications, and derives the admin flag
// from the role resolver. All other components read its state strictly
// read-only, via CurrentState or Subscribe.
//
// Role-lookup failures are absorbed here: a transient lookup error defaults
// to non-admin (logged, never surfaced), because temporarily hiding the
// admin UI is cheaper than exposing it. Credential and backend failures
// propagate to the caller.
type AuthController struct {
	sessions ports.SessionStore
	roles    ports.RoleResolver
	logger   *slog.Logger

	mu      sync.Mutex
	state   domainauth.AuthState
	started bool
	closed  bool

	// latestSeq is the token of the most recently issued derivation.
	// A derivation commits only while it still holds the latest token, so
	// a stale, slower-resolving lookup can never overwrite fresher state.
	latestSeq uint64

	unwatch   func()
	closeOnce sync.Once

	subsMu sync.Mutex
	subs   map[chan domainauth.AuthState]struct{}
}

// NewAuthController constructs an AuthController in the pre-initialize
// state: no identity, not admin, loading until Start completes its first
// session check.
func NewAuthController(opts AuthControllerOptions) (*AuthController, error) {
	if opts.Sessions == nil {
		return nil, errors.New("auth controller: session store is required")
	}
	if opts.Roles == nil {
		return nil, errors.New("auth controller: role resolver is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthController{
		sessions: opts.Sessions,
		roles:    opts.Roles,
		logger:   logger,
		state:    domainauth.AuthState{Loading: true},
		subs:     make(map[chan domainauth.AuthState]struct{}),
	}, nil
}

// Start performs the one-shot initialization: it checks the backend for an
// existing session, derives the admin flag, clears Loading regardless of
// outcome, and subscribes to session-change notifications. It must be
// called once; the subscription is released by Close.
func (c *AuthController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("auth controller already started")
	}
	c.started = true
	c.mu.Unlock()

	sess, err := c.sessions.CurrentSession(ctx)
	if err != nil {
		// Initialization never fails hard: an unreachable backend is
		// treated as signed out, and Loading still clears.
		c.logger.WarnContext(ctx, "initial session check failed, treating as signed out", "error", err)
		sess = nil
	}

	seq := c.nextSeq()
	identity, isAdmin := c.deriveRole(ctx, sess)
	c.commit(seq, identity, isAdmin)

	// Subscribe after the initial derivation so notification-driven
	// derivations always carry a fresher token than the initial one.
	c.unwatch = c.sessions.Watch(c.onSessionChange)
	return nil
}

// onSessionChange handles one backend notification. The token is claimed
// synchronously, in notification order; the role derivation then proceeds
// concurrently and commits only if no fresher derivation was issued since.
func (c *AuthController) onSessionChange(sess *domainauth.Session) {
	seq := c.nextSeq()

	prev := c.CurrentState()
	go func() {
		ctx := context.Background()
		identity, isAdmin := c.deriveRole(ctx, sess)
		c.commit(seq, identity, isAdmin)

		// The backend session ended for the previously known identity:
		// its cached role entry must not outlive the session.
		if identity == nil && prev.Identity != nil {
			c.invalidateRoleCache(ctx, prev.Identity.ID)
		}
	}()
}

// Login exchanges credentials for a session and requires the resolved role
// to be admin. A valid-but-non-admin login is forcibly signed out before
// ErrNotAuthorized is returned, so an authenticated non-admin never
// retains a session.
func (c *AuthController) Login(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	sess, err := c.sessions.SignIn(ctx, creds)
	if err != nil {
		if errors.Is(err, ports.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	seq := c.nextSeq()
	identity, isAdmin := c.deriveRole(ctx, sess)

	if !isAdmin {
		// Invalidate the just-created session locally and remotely. A
		// failed remote sign-out is logged but does not change the outcome.
		if signOutErr := c.sessions.SignOut(ctx); signOutErr != nil {
			c.logger.WarnContext(ctx, "forced sign-out after non-admin login failed", "error", signOutErr)
		}
		if identity != nil {
			c.invalidateRoleCache(ctx, identity.ID)
		}
		c.commit(seq, nil, false)
		return nil, ErrNotAuthorized
	}

	c.commit(seq, identity, true)
	return sess, nil
}

// Logout asks the backend to invalidate the current session. On success the
// local state converges through the same change-notification path as every
// other transition; on failure the local state is left untouched. Logging
// out while already signed out is a no-op success.
func (c *AuthController) Logout(ctx context.Context) error {
	prev := c.CurrentState()
	if err := c.sessions.SignOut(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if prev.Identity != nil {
		c.invalidateRoleCache(ctx, prev.Identity.ID)
	}
	return nil
}

// CurrentState returns a snapshot of the current authentication state. It
// never blocks on I/O.
func (c *AuthController) CurrentState() domainauth.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a read-only state listener. The channel carries the
// latest state and coalesces intermediate values; the current state is
// delivered immediately. The returned func cancels the subscription and is
// safe to call more than once.
func (c *AuthController) Subscribe() (<-chan domainauth.AuthState, func()) {
	ch := make(chan domainauth.AuthState, 1)

	// Register and deliver the initial snapshot under subsMu: broadcast
	// holds the same lock, so the freshly created buffer is still empty
	// here and the send cannot block.
	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	ch <- c.CurrentState()
	c.subsMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			if _, ok := c.subs[ch]; !ok {
				return
			}
			delete(c.subs, ch)
			drainAndClose(ch)
		})
	}
	return ch, unsubscribe
}

// Close tears down the session-change subscription exactly once and stops
// further state writes. In-flight derivations become no-ops.
func (c *AuthController) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		unwatch := c.unwatch
		c.mu.Unlock()

		if unwatch != nil {
			unwatch()
		}

		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		for ch := range c.subs {
			delete(c.subs, ch)
			drainAndClose(ch)
		}
	})
}

// deriveRole runs the role-derivation sub-algorithm for a session: a
// missing role record means "not an admin", and a failed lookup is logged
// and treated the same, so a transient backend error can neither crash the
// controller nor leave a stale admin flag.
func (c *AuthController) deriveRole(ctx context.Context, sess *domainauth.Session) (*domainauth.Identity, bool) {
	if sess == nil || sess.Expired() {
		return nil, false
	}

	identity := sess.Identity
	record, err := c.roles.Resolve(ctx, identity.ID)
	switch {
	case err == nil:
		return &identity, record.Role.IsAdmin()
	case errors.Is(err, ports.ErrRoleNotFound):
		return &identity, false
	default:
		c.logger.WarnContext(ctx, "role lookup failed, defaulting to non-admin",
			"identity_id", identity.ID, "error", err)
		return &identity, false
	}
}

// nextSeq issues a derivation token. Tokens increase in the order work is
// accepted, so the newest token always belongs to the freshest derivation.
func (c *AuthController) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latestSeq++
	return c.latestSeq
}

// commit applies a derivation result if it still holds the latest token
// and the controller is not closed. Loading clears on the first commit and
// stays cleared: identity and the admin flag always change together, never
// torn across writes.
func (c *AuthController) commit(seq uint64, identity *domainauth.Identity, isAdmin bool) {
	c.mu.Lock()
	if c.closed || seq != c.latestSeq {
		c.mu.Unlock()
		return
	}
	c.state = domainauth.AuthState{Identity: identity, IsAdmin: isAdmin, Loading: false}
	state := c.state
	c.mu.Unlock()

	c.broadcast(state)
}

func (c *AuthController) broadcast(state domainauth.AuthState) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for ch := range c.subs {
		// Coalesce: drop the stale value if the subscriber has not
		// consumed it yet, then deliver the latest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (c *AuthController) invalidateRoleCache(ctx context.Context, identityID string) {
	if inv, ok := c.roles.(roleCacheInvalidator); ok {
		inv.Invalidate(ctx, identityID)
	}
}

// drainAndClose removes any buffered value before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan domainauth.AuthState) {
	select {
	case <-ch:
	default:
	}
	close(ch)
}
