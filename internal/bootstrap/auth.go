package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openfolio/portfolio-api/config"
	"github.com/openfolio/portfolio-api/internal/adapters/authroles"
	"github.com/openfolio/portfolio-api/internal/adapters/devauth"
	"github.com/openfolio/portfolio-api/internal/adapters/hostedauth"
	redisadapter "github.com/openfolio/portfolio-api/internal/adapters/redis"
	"github.com/openfolio/portfolio-api/internal/core"
	"github.com/openfolio/portfolio-api/internal/ports"
	"github.com/openfolio/portfolio-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// SessionRunner is a background loop that keeps the backend session
// fresh. The hosted store implements it; the dev store does not need one.
type SessionRunner interface {
	Run(ctx context.Context) error
}

// AuthComponents groups the fully wired authentication stack.
type AuthComponents struct {
	Controller *service.AuthController
	Sessions   *service.AdminSessionService

	// Runner is nil when the configured session backend needs no
	// background refresh loop.
	Runner SessionRunner
}

// AuthOptions contains the dependencies for building the auth stack.
type AuthOptions struct {
	Auth        config.AuthConfig
	Profiles    core.ProfileRepository
	Cache       core.CacheRepository
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuth wires the session backend for the configured auth mode, the
// cached role resolver over profile records, the auth controller, and the
// cookie-bound admin session service. Unlike most optional subsystems the
// auth stack is required: the admin area cannot function without it, so
// configuration problems fail the boot instead of degrading.
func BuildAuth(opts AuthOptions) (*AuthComponents, error) {
	if opts.RedisClient == nil {
		return nil, errors.New("auth requires a redis client for sessions and role caching")
	}
	if opts.Profiles == nil {
		return nil, errors.New("auth requires the profile repository for role records")
	}

	store, runner, err := buildSessionStore(opts.Auth, opts.Logger)
	if err != nil {
		return nil, err
	}

	resolver, err := service.NewCachedRoleResolver(service.RoleResolverOptions{
		Profiles: opts.Profiles,
		Mapper: authroles.StaticRoleMapper{
			AdminMarker:  opts.Auth.AdminMarker,
			EditorMarker: opts.Auth.EditorMarker,
		},
		Cache:    opts.Cache,
		CacheTTL: opts.Auth.RoleCacheTTL,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build role resolver: %w", err)
	}

	controller, err := service.NewAuthController(service.AuthControllerOptions{
		Sessions: store,
		Roles:    resolver,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth controller: %w", err)
	}

	sessions, err := service.NewAdminSessionService(service.AdminSessionServiceOptions{
		Store: redisadapter.NewAdminSessionStore(opts.RedisClient),
		TTL:   opts.Auth.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build admin session service: %w", err)
	}

	return &AuthComponents{
		Controller: controller,
		Sessions:   sessions,
		Runner:     runner,
	}, nil
}

//nolint:ireturn // the session store port is what both backends implement.
func buildSessionStore(cfg config.AuthConfig, logger *slog.Logger) (ports.SessionStore, SessionRunner, error) {
	switch cfg.Mode {
	case config.AuthModeDev:
		store, err := devauth.New(devauth.Config{
			UserID:          cfg.Dev.UserID,
			Email:           cfg.Dev.Email,
			Password:        cfg.Dev.Password,
			SessionDuration: cfg.Dev.SessionDuration,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build dev session store: %w", err)
		}
		return store, nil, nil

	case config.AuthModeHosted:
		store, err := hostedauth.New(hostedauth.Config{
			TokenURL:        cfg.Hosted.TokenURL,
			LogoutURL:       cfg.Hosted.LogoutURL,
			ClientID:        cfg.Hosted.ClientID,
			ClientSecret:    cfg.Hosted.ClientSecret,
			JWKSURL:         cfg.Hosted.JWKSURL,
			Issuer:          cfg.Hosted.Issuer,
			Audience:        cfg.Hosted.Audience,
			IDExpression:    cfg.Hosted.IdentityExpression,
			EmailExpression: cfg.Hosted.EmailExpression,
			RefreshLeeway:   cfg.Hosted.RefreshLeeway,
			Logger:          logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build hosted session store: %w", err)
		}
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
