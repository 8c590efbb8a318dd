package devauth

// Package devauth provides a simple, config-driven session backend for
// local development. It accepts exactly one configured credential pair
// and keeps the session in memory.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

// Config controls the dev session store behavior.
type Config struct {
	UserID          string
	Email           string
	Password        string
	SessionDuration time.Duration // default 8h when zero
}

// Store implements ports.SessionStore for local development. SignIn
// compares against the configured credential pair; any other pair is
// ErrInvalidCredentials. Tokens are random strings with no structure.
type Store struct {
	userID          string
	email           string
	password        string
	sessionDuration time.Duration

	mu       sync.Mutex
	current  *domainauth.Session
	watchers []*watcher
}

type watcher struct {
	fn     func(*domainauth.Session)
	active bool
}

var _ ports.SessionStore = (*Store)(nil)

// New constructs a dev session store from Config.
func New(cfg Config) (*Store, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	return &Store{
		userID:          cfg.UserID,
		email:           cfg.Email,
		password:        cfg.Password,
		sessionDuration: dur,
	}, nil
}

func (s *Store) CurrentSession(_ context.Context) (*domainauth.Session, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current.Expired() {
		s.setSession(nil)
		return nil, nil
	}
	return current, nil
}

func (s *Store) SignIn(_ context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	if creds.Email != s.email || creds.Password != s.password {
		return nil, ports.ErrInvalidCredentials
	}

	token, err := randomString(32)
	if err != nil {
		return nil, err
	}
	sess := &domainauth.Session{
		Identity:    domainauth.Identity{ID: s.userID, Email: s.email},
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.sessionDuration),
	}
	s.setSession(sess)
	return sess, nil
}

func (s *Store) SignOut(_ context.Context) error {
	s.setSession(nil)
	return nil
}

func (s *Store) Watch(onChange func(*domainauth.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &watcher{fn: onChange, active: true}
	s.watchers = append(s.watchers, w)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			w.active = false
		})
	}
}

// setSession swaps the session and notifies watchers in swap order.
func (s *Store) setSession(sess *domainauth.Session) {
	s.mu.Lock()
	s.current = sess
	watchers := make([]*watcher, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, w := range watchers {
		if w.active {
			w.fn(sess)
		}
	}
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		// pad
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
