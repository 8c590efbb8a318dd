// Package hostedauth implements ports.SessionStore against a hosted
// OAuth2/JWT auth backend (GoTrue-style password grant).
package hostedauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

const (
	defaultRefreshLeeway  = 2 * time.Minute
	defaultIDExpression   = "sub"
	defaultMailExpression = "email"
)

// Config holds configuration for the hosted auth store.
type Config struct {
	// TokenURL is the backend's password-grant token endpoint.
	TokenURL string
	// LogoutURL revokes the backend session; optional.
	LogoutURL string
	// ClientID and ClientSecret identify this service to the backend.
	ClientID     string
	ClientSecret string

	// JWKSURL enables signature verification of access tokens. Without
	// it claims are parsed unverified, which is acceptable only because
	// the token came straight from the backend over TLS.
	JWKSURL string
	// Issuer and Audience are checked when JWKSURL is set.
	Issuer   string
	Audience string

	// IDExpression and EmailExpression are JMESPath expressions applied
	// to the token claims to extract the identity. Defaults: "sub",
	// "email".
	IDExpression    string
	EmailExpression string

	// RefreshLeeway is how long before expiry the watch loop refreshes.
	RefreshLeeway time.Duration

	HTTPClient *http.Client // optional, defaults to a 30s-timeout client
	Logger     *slog.Logger
}

// Store implements ports.SessionStore. It owns at most one backend
// session at a time and notifies watchers whenever it changes.
type Store struct {
	oauth    *oauth2.Config
	ctx      context.Context // carries the custom HTTP client for oauth2
	verifier *gooidc.IDTokenVerifier

	logoutURL  string
	idExpr     string
	emailExpr  string
	leeway     time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	// notifyMu serializes session swaps with their watcher callbacks so
	// watchers observe changes in swap order.
	notifyMu sync.Mutex

	mu      sync.Mutex
	current *domainauth.Session
	token   *oauth2.Token

	watchMu  sync.Mutex
	watchers []*watcher
}

type watcher struct {
	fn     func(*domainauth.Session)
	active bool
}

// New constructs a hosted auth store.
func New(cfg Config) (*Store, error) {
	if cfg.TokenURL == "" {
		return nil, errors.New("hosted auth: token URL is required")
	}
	if strings.TrimSpace(cfg.IDExpression) == "" {
		cfg.IDExpression = defaultIDExpression
	}
	if strings.TrimSpace(cfg.EmailExpression) == "" {
		cfg.EmailExpression = defaultMailExpression
	}
	// Validate the expressions up front so a config typo fails at boot,
	// not on the first login.
	for _, expr := range []string{cfg.IDExpression, cfg.EmailExpression} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("hosted auth: invalid claim expression %q: %w", expr, err)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	leeway := cfg.RefreshLeeway
	if leeway <= 0 {
		leeway = defaultRefreshLeeway
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
		ctx:        context.WithValue(context.Background(), oauth2.HTTPClient, httpClient),
		logoutURL:  cfg.LogoutURL,
		idExpr:     cfg.IDExpression,
		emailExpr:  cfg.EmailExpression,
		leeway:     leeway,
		httpClient: httpClient,
		logger:     logger,
	}

	if cfg.JWKSURL != "" {
		keySet := gooidc.NewRemoteKeySet(s.ctx, cfg.JWKSURL)
		verifierCfg := &gooidc.Config{ClientID: cfg.Audience}
		if cfg.Audience == "" {
			verifierCfg.SkipClientIDCheck = true
		}
		if cfg.Issuer == "" {
			verifierCfg.SkipIssuerCheck = true
		}
		s.verifier = gooidc.NewVerifier(cfg.Issuer, keySet, verifierCfg)
	}

	return s, nil
}

// compile-time conformance
var _ ports.SessionStore = (*Store)(nil)

// CurrentSession returns the active backend session, refreshing it when
// expired and a refresh token is available.
func (s *Store) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	s.mu.Lock()
	current, token := s.current, s.token
	s.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if !current.Expired() {
		return current, nil
	}
	if token == nil || token.RefreshToken == "" {
		return nil, nil
	}

	refreshed, err := s.refresh(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return refreshed, nil
}

// SignIn exchanges credentials for a backend session via the password
// grant. Invalid credentials are reported as ports.ErrInvalidCredentials.
func (s *Store) SignIn(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	token, err := s.oauth.PasswordCredentialsToken(s.requestCtx(ctx), creds.Email, creds.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) &&
			(retrieveErr.Response.StatusCode == http.StatusBadRequest ||
				retrieveErr.Response.StatusCode == http.StatusUnauthorized) {
			return nil, ports.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("password grant: %w", err)
	}

	sess, err := s.sessionFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	s.setSession(sess, token)
	return sess, nil
}

// SignOut revokes the backend session and clears local state. Watchers
// are notified with a nil session.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return nil
	}

	if s.logoutURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.logoutURL, nil)
		if err != nil {
			return fmt.Errorf("build logout request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+current.AccessToken)
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("logout request: %w", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("logout failed: status %d", resp.StatusCode)
		}
		// 4xx means the token was already dead; local cleanup still applies.
	}

	s.setSession(nil, nil)
	return nil
}

// Watch registers a callback invoked on every session change. The
// returned function unsubscribes; calling it more than once is safe.
func (s *Store) Watch(onChange func(*domainauth.Session)) func() {
	w := &watcher{fn: onChange, active: true}
	s.watchMu.Lock()
	s.watchers = append(s.watchers, w)
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			defer s.watchMu.Unlock()
			w.active = false
			for i, ww := range s.watchers {
				if ww == w {
					s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
					break
				}
			}
		})
	}
}

// Run keeps the backend session fresh until ctx is canceled, refreshing
// ahead of expiry and notifying watchers when the session dies.
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refreshIfNeeded(ctx)
		}
	}
}

func (s *Store) refreshIfNeeded(ctx context.Context) {
	s.mu.Lock()
	current, token := s.current, s.token
	s.mu.Unlock()

	if current == nil || token == nil {
		return
	}
	if time.Until(current.ExpiresAt) > s.leeway {
		return
	}

	if _, err := s.refresh(ctx, token); err != nil {
		s.logger.WarnContext(ctx, "session refresh failed; signing out", "error", err)
		s.setSession(nil, nil)
	}
}

func (s *Store) refresh(ctx context.Context, token *oauth2.Token) (*domainauth.Session, error) {
	// Force the refresh by presenting an expired token to the source.
	stale := *token
	stale.Expiry = time.Now().Add(-time.Minute)
	fresh, err := s.oauth.TokenSource(s.requestCtx(ctx), &stale).Token()
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionFromToken(ctx, fresh)
	if err != nil {
		return nil, err
	}
	s.setSession(sess, fresh)
	return sess, nil
}

// sessionFromToken extracts the identity from the access token claims.
func (s *Store) sessionFromToken(ctx context.Context, token *oauth2.Token) (*domainauth.Session, error) {
	claims, err := s.tokenClaims(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	id, err := s.claimString(s.idExpr, claims)
	if err != nil {
		return nil, fmt.Errorf("extract identity id from claims: %w", err)
	}
	if id == "" {
		return nil, errors.New("identity id claim missing")
	}
	email, err := s.claimString(s.emailExpr, claims)
	if err != nil {
		s.logger.Warn("extract email from claims failed", "error", err)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		if exp, ok := claims["exp"].(float64); ok {
			expiresAt = time.Unix(int64(exp), 0)
		}
	}

	return &domainauth.Session{
		Identity:     domainauth.Identity{ID: id, Email: email},
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Store) tokenClaims(ctx context.Context, accessToken string) (map[string]any, error) {
	if s.verifier != nil {
		idTok, err := s.verifier.Verify(ctx, accessToken)
		if err != nil {
			return nil, fmt.Errorf("verify access token: %w", err)
		}
		var claims map[string]any
		if err := idTok.Claims(&claims); err != nil {
			return nil, fmt.Errorf("decode verified claims: %w", err)
		}
		return claims, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}

func (s *Store) claimString(expr string, claims map[string]any) (string, error) {
	result, err := jmespath.Search(expr, map[string]any(claims))
	if err != nil {
		return "", err
	}
	str, _ := result.(string)
	return str, nil
}

// setSession swaps the current session and notifies watchers. notifyMu
// spans the swap and the callbacks: a second swap cannot start delivering
// until the first one's watchers have all run, so callbacks arrive in
// swap order. Watcher callbacks must not call back into the store.
func (s *Store) setSession(sess *domainauth.Session, token *oauth2.Token) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current, s.token = sess, token
	s.mu.Unlock()

	s.watchMu.Lock()
	watchers := make([]*watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		if w.active {
			watchers = append(watchers, w)
		}
	}
	s.watchMu.Unlock()

	for _, w := range watchers {
		w.fn(sess)
	}
}

func (s *Store) requestCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}
