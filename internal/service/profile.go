package service

import (
	"context"
	"errors"

	"github.com/openfolio/portfolio-api/internal/core"
	"github.com/openfolio/portfolio-api/internal/domain/model"
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Repo core.ProfileRepository
}

// ProfileService orchestrates reads and updates of the display profile.
type ProfileService struct {
	repo core.ProfileRepository
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) (*ProfileService, error) {
	if opts.Repo == nil {
		return nil, errors.New("profile service: repository is required")
	}
	return &ProfileService{repo: opts.Repo}, nil
}

// Get returns the public display profile.
func (s *ProfileService) Get(ctx context.Context) (*model.Profile, error) {
	return s.repo.Get(ctx)
}

// Update validates and applies a profile update.
func (s *ProfileService) Update(ctx context.Context, req model.UpdateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, req)
}
