package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openfolio/portfolio-api/config"
	"github.com/openfolio/portfolio-api/internal/adapters/cloudinary"
	"github.com/openfolio/portfolio-api/internal/data"
	"github.com/openfolio/portfolio-api/internal/ports"
	"github.com/openfolio/portfolio-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthController
	AdminSessions *service.AdminSessionService
	SessionRunner SessionRunner

	Profile  *service.ProfileService
	Projects *service.ProjectService
	Skills   *service.SkillService
	Contact  *service.ContactService
	Media    *service.MediaService

	Observability ObservabilityContainer
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB          *sql.DB
	Redis       redis.UniversalClient
	ProfileRepo *data.ProfileRepo
	ProjectRepo *data.ProjectRepo
	SkillRepo   *data.SkillRepo
	ContactRepo *data.ContactRepo
	CacheRepo   *data.RedisCacheRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		DB:          db,
		Redis:       redisClient,
		ProfileRepo: data.NewProfileRepo(db),
		ProjectRepo: data.NewProjectRepo(db),
		SkillRepo:   data.NewSkillRepo(db),
		ContactRepo: data.NewContactRepo(db),
		CacheRepo:   data.NewRedisCacheRepo(redisClient),
	}
}

// NewServices wires repositories, observability adapters, and business
// services into a container the HTTP layer consumes.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	observability := buildObservability(logger, appCfg.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient)

	auth, err := BuildAuth(AuthOptions{
		Auth:        appCfg.Auth,
		Profiles:    repos.ProfileRepo,
		Cache:       repos.CacheRepo,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth: %w", err)
	}

	profileSvc, err := service.NewProfileService(service.ProfileServiceOptions{Repo: repos.ProfileRepo})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build profile service: %w", err)
	}
	projectSvc, err := service.NewProjectService(service.ProjectServiceOptions{Repo: repos.ProjectRepo})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build project service: %w", err)
	}
	skillSvc, err := service.NewSkillService(service.SkillServiceOptions{Repo: repos.SkillRepo})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build skill service: %w", err)
	}
	contactSvc, err := service.NewContactService(service.ContactServiceOptions{
		Repo:   repos.ContactRepo,
		Events: observability.Events,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build contact service: %w", err)
	}
	mediaSvc, err := buildMediaService(appCfg.Media, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build media service: %w", err)
	}

	return ServiceContainer{
		Auth:          auth.Controller,
		AdminSessions: auth.Sessions,
		SessionRunner: auth.Runner,
		Profile:       profileSvc,
		Projects:      projectSvc,
		Skills:        skillSvc,
		Contact:       contactSvc,
		Media:         mediaSvc,
		Observability: observability,
	}, nil
}

// buildMediaService wires the CDN uploader when credentials are present
// and otherwise installs a stub that rejects uploads with a clear error,
// so the admin area stays usable without a media account.
func buildMediaService(cfg config.MediaConfig, logger *slog.Logger) (*service.MediaService, error) {
	var uploader ports.MediaUploader

	if cfg.IsConfigured() {
		client, err := cloudinary.New(cloudinary.Config{
			CloudName: cfg.CloudName,
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Folder:    cfg.Folder,
			BaseURL:   cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		uploader = client
	} else {
		logger.Warn("media uploads disabled: CDN credentials not configured")
		uploader = disabledUploader{}
	}

	return service.NewMediaService(service.MediaServiceOptions{Uploader: uploader})
}

// ErrUploadsDisabled is returned for uploads when no CDN is configured.
var ErrUploadsDisabled = errors.New("media uploads are not configured")

type disabledUploader struct{}

func (disabledUploader) Upload(context.Context, string, []byte) (string, error) {
	return "", ErrUploadsDisabled
}
