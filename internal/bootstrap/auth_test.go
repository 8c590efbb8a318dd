package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openfolio/portfolio-api/config"
	"github.com/openfolio/portfolio-api/internal/data"
	"github.com/openfolio/portfolio-api/internal/testutil"
)

func devAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode: config.AuthModeDev,
		Dev: config.DevAuthConfig{
			UserID:          "dev-user",
			Email:           "dev@example.com",
			Password:        "dev-password",
			SessionDuration: time.Hour,
		},
		AdminMarker:  "admin",
		EditorMarker: "editor",
		SessionTTL:   time.Hour,
		RoleCacheTTL: time.Minute,
	}
}

func TestBuildAuthRequiresRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := BuildAuth(AuthOptions{
		Auth:     devAuthConfig(),
		Profiles: data.NewProfileRepo(nil),
		Logger:   logger,
	})
	if err == nil {
		t.Fatal("BuildAuth() without redis client should fail")
	}
}

func TestBuildAuthDevMode(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, client := testutil.SetupMiniredis(t)

	auth, err := BuildAuth(AuthOptions{
		Auth:        devAuthConfig(),
		Profiles:    data.NewProfileRepo(nil),
		Cache:       data.NewRedisCacheRepo(client),
		RedisClient: client,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("BuildAuth() error = %v", err)
	}
	if auth.Controller == nil {
		t.Fatal("BuildAuth() returned nil controller")
	}
	if auth.Sessions == nil {
		t.Fatal("BuildAuth() returned nil admin session service")
	}
	if auth.Runner != nil {
		t.Fatal("dev session store should not need a refresh runner")
	}
}

func TestBuildAuthHostedMode(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, client := testutil.SetupMiniredis(t)

	cfg := devAuthConfig()
	cfg.Mode = config.AuthModeHosted
	cfg.Hosted = config.HostedAuthConfig{
		TokenURL:     "https://auth.example.com/token",
		ClientID:     "portfolio",
		ClientSecret: "secret",
	}

	auth, err := BuildAuth(AuthOptions{
		Auth:        cfg,
		Profiles:    data.NewProfileRepo(nil),
		Cache:       data.NewRedisCacheRepo(client),
		RedisClient: client,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("BuildAuth() error = %v", err)
	}
	if auth.Runner == nil {
		t.Fatal("hosted session store should expose its refresh runner")
	}
}

func TestBuildAuthHostedRequiresTokenURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, client := testutil.SetupMiniredis(t)

	cfg := devAuthConfig()
	cfg.Mode = config.AuthModeHosted

	if _, err := BuildAuth(AuthOptions{
		Auth:        cfg,
		Profiles:    data.NewProfileRepo(nil),
		Cache:       data.NewRedisCacheRepo(client),
		RedisClient: client,
		Logger:      logger,
	}); err == nil {
		t.Fatal("BuildAuth() in hosted mode without a token URL should fail")
	}
}

func TestBuildAuthUnknownMode(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, client := testutil.SetupMiniredis(t)

	cfg := devAuthConfig()
	cfg.Mode = config.AuthMode("oauth")

	if _, err := BuildAuth(AuthOptions{
		Auth:        cfg,
		Profiles:    data.NewProfileRepo(nil),
		Cache:       data.NewRedisCacheRepo(client),
		RedisClient: client,
		Logger:      logger,
	}); err == nil {
		t.Fatal("BuildAuth() with an unknown mode should fail")
	}
}
