package service

import (
	"context"
	"errors"

	"github.com/openfolio/portfolio-api/internal/core"
	"github.com/openfolio/portfolio-api/internal/domain/model"
)

// ProjectServiceOptions groups dependencies for ProjectService.
type ProjectServiceOptions struct {
	Repo core.ProjectRepository
}

// ProjectService orchestrates project CRUD. Skill linking is handled by the
// repository transactionally so a project and its links never diverge.
type ProjectService struct {
	repo core.ProjectRepository
}

// NewProjectService constructs a new ProjectService.
func NewProjectService(opts ProjectServiceOptions) (*ProjectService, error) {
	if opts.Repo == nil {
		return nil, errors.New("project service: repository is required")
	}
	return &ProjectService{repo: opts.Repo}, nil
}

// Create validates and creates a project with its skill links.
func (s *ProjectService) Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	if req == nil {
		return nil, errors.New("create project request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

// GetByID retrieves a project with its linked skills.
func (s *ProjectService) GetByID(ctx context.Context, id int) (*model.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPublished returns published projects, newest first. This is the only
// project listing the public site sees.
func (s *ProjectService) ListPublished(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	return s.repo.List(ctx, model.ProjectsListOptions{
		Limit:         limit,
		Offset:        offset,
		PublishedOnly: true,
	})
}

// ListAll returns all projects including unpublished drafts (admin view).
func (s *ProjectService) ListAll(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	return s.repo.List(ctx, model.ProjectsListOptions{Limit: limit, Offset: offset})
}

// Update validates and applies a project update; a present SkillIDs field
// replaces the full link set.
func (s *ProjectService) Update(ctx context.Context, id int, req model.UpdateProjectRequest) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes a project and, through the schema's cascade, its links.
func (s *ProjectService) Delete(ctx context.Context, id int) (bool, error) {
	return s.repo.Delete(ctx, id)
}
