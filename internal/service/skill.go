package service

import (
	"context"
	"errors"

	"github.com/openfolio/portfolio-api/internal/core"
	"github.com/openfolio/portfolio-api/internal/domain/model"
)

// SkillServiceOptions groups dependencies for SkillService.
type SkillServiceOptions struct {
	Repo core.SkillRepository
}

// SkillService orchestrates skill CRUD.
type SkillService struct {
	repo core.SkillRepository
}

// NewSkillService constructs a new SkillService.
func NewSkillService(opts SkillServiceOptions) (*SkillService, error) {
	if opts.Repo == nil {
		return nil, errors.New("skill service: repository is required")
	}
	return &SkillService{repo: opts.Repo}, nil
}

// Create validates and creates a skill.
func (s *SkillService) Create(ctx context.Context, req *model.CreateSkillRequest) (*model.Skill, error) {
	if req == nil {
		return nil, errors.New("create skill request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

// List returns all skills ordered by id.
func (s *SkillService) List(ctx context.Context) ([]*model.Skill, error) {
	return s.repo.List(ctx)
}

// Update validates and applies a skill update.
func (s *SkillService) Update(ctx context.Context, id int, req model.UpdateSkillRequest) (*model.Skill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes a skill. Skills still linked to projects are rejected by
// the repository with a foreign-key error.
func (s *SkillService) Delete(ctx context.Context, id int) (bool, error) {
	return s.repo.Delete(ctx, id)
}
