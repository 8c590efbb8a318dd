package devauth

import (
	"context"
	"errors"
	"testing"
	"time"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(Config{UserID: "dev-user", Email: "dev@example.com", Password: "dev-pass"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return store
}

func TestStore_SignInAndCurrentSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.SignIn(ctx, domainauth.Credentials{Email: "dev@example.com", Password: "dev-pass"})
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if sess.Identity.ID != "dev-user" || sess.Identity.Email != "dev@example.com" {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}
	if sess.AccessToken == "" {
		t.Fatal("access token should be generated")
	}

	current, err := store.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession error: %v", err)
	}
	if current == nil || current.Identity.ID != "dev-user" {
		t.Fatalf("unexpected current session: %+v", current)
	}
}

func TestStore_SignInRejectsWrongCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := []domainauth.Credentials{
		{Email: "dev@example.com", Password: "wrong"},
		{Email: "other@example.com", Password: "dev-pass"},
		{},
	}
	for _, creds := range cases {
		if _, err := store.SignIn(ctx, creds); !errors.Is(err, ports.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", creds, err)
		}
	}
}

func TestStore_SignOutNotifiesWatchers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var seen []*domainauth.Session
	unsubscribe := store.Watch(func(sess *domainauth.Session) {
		seen = append(seen, sess)
	})
	defer unsubscribe()

	if _, err := store.SignIn(ctx, domainauth.Credentials{Email: "dev@example.com", Password: "dev-pass"}); err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if err := store.SignOut(ctx); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0] == nil || seen[1] != nil {
		t.Fatalf("expected sign-in then sign-out notification, got %+v", seen)
	}

	current, err := store.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession error: %v", err)
	}
	if current != nil {
		t.Fatalf("expected signed-out state, got %+v", current)
	}
}

func TestStore_ExpiredSessionIsDropped(t *testing.T) {
	store, err := New(Config{
		UserID:          "dev-user",
		Email:           "dev@example.com",
		Password:        "dev-pass",
		SessionDuration: -time.Minute,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	ctx := context.Background()

	if _, err := store.SignIn(ctx, domainauth.Credentials{Email: "dev@example.com", Password: "dev-pass"}); err != nil {
		t.Fatalf("SignIn error: %v", err)
	}

	current, err := store.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession error: %v", err)
	}
	if current != nil {
		t.Fatalf("expected expired session to be dropped, got %+v", current)
	}
}

func TestStore_UnsubscribeStopsNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	unsubscribe := store.Watch(func(*domainauth.Session) { calls++ })
	unsubscribe()
	unsubscribe() // safe to call twice

	if _, err := store.SignIn(ctx, domainauth.Credentials{Email: "dev@example.com", Password: "dev-pass"}); err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no notifications after unsubscribe, got %d", calls)
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Email: "dev@example.com", Password: "p"},
		{UserID: "u", Password: "p"},
		{UserID: "u", Email: "dev@example.com"},
	} {
		if _, err := New(cfg); err == nil {
			t.Fatalf("expected error for config %+v", cfg)
		}
	}
}
