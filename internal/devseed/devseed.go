// Package devseed populates a development database with sample portfolio
// content so the app is browsable immediately after a reset.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/openfolio/portfolio-api/internal/data"
	"github.com/openfolio/portfolio-api/internal/domain/model"
	apperrors "github.com/openfolio/portfolio-api/internal/errors"
	"github.com/openfolio/portfolio-api/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	profile  *service.ProfileService
	projects *service.ProjectService
	skills   *service.SkillService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	profileSvc, err := service.NewProfileService(service.ProfileServiceOptions{
		Repo: data.NewProfileRepo(db),
	})
	if err != nil {
		panic(fmt.Sprintf("devseed: build profile service: %v", err))
	}
	projectSvc, err := service.NewProjectService(service.ProjectServiceOptions{
		Repo: data.NewProjectRepo(db),
	})
	if err != nil {
		panic(fmt.Sprintf("devseed: build project service: %v", err))
	}
	skillSvc, err := service.NewSkillService(service.SkillServiceOptions{
		Repo: data.NewSkillRepo(db),
	})
	if err != nil {
		panic(fmt.Sprintf("devseed: build skill service: %v", err))
	}

	return Services{
		profile:  profileSvc,
		projects: projectSvc,
		skills:   skillSvc,
	}
}

// Run executes the full development seeding workflow against the provided DB.
// Seeding is idempotent: existing records are left alone.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	failures += seedProfile(ctx, svcs.profile, logger)

	skillIDs, skillFailures := seedSkills(ctx, svcs.skills, logger)
	failures += skillFailures

	failures += seedProjects(ctx, svcs.projects, skillIDs, logger)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedProfile(ctx context.Context, svc *service.ProfileService, logger *slog.Logger) int {
	existing, err := svc.Get(ctx)
	if err != nil {
		logError(ctx, logger, "failed to read display profile", err)
		return 1
	}
	if existing.Name != "" {
		logInfo(ctx, logger, "display profile already populated", "name", existing.Name)
		return 0
	}

	name := "Dev Owner"
	headline := "Full-stack developer"
	bio := "This profile was created by the development seeder."
	github := "https://github.com/devowner"
	if _, err := svc.Update(ctx, model.UpdateProfileRequest{
		Name:      &name,
		Headline:  &headline,
		Bio:       &bio,
		GithubURL: &github,
	}); err != nil {
		logError(ctx, logger, "failed to seed display profile", err)
		return 1
	}
	logInfo(ctx, logger, "seeded display profile", "name", name)
	return 0
}

// seedSkills creates the sample skills and returns name -> id so project
// seeding can link them. A skill that already exists counts as success.
func seedSkills(ctx context.Context, svc *service.SkillService, logger *slog.Logger) (map[string]int, int) {
	failures := 0
	seeds := []model.CreateSkillRequest{
		{Name: "Go", Level: 90},
		{Name: "PostgreSQL", Level: 80},
		{Name: "TypeScript", Level: 75},
		{Name: "Kubernetes", Level: 60},
	}

	for i := range seeds {
		req := seeds[i]
		if _, err := svc.Create(ctx, &req); err != nil {
			if apperrors.IsConflict(err) {
				logInfo(ctx, logger, "skill already exists", "name", req.Name)
				continue
			}
			logError(ctx, logger, "failed to create skill", err, "name", req.Name)
			failures++
		} else {
			logInfo(ctx, logger, "seeded skill", "name", req.Name)
		}
	}

	ids := make(map[string]int)
	skills, err := svc.List(ctx)
	if err != nil {
		logError(ctx, logger, "failed to list skills after seeding", err)
		return ids, failures + 1
	}
	for _, s := range skills {
		ids[s.Name] = s.ID
	}
	return ids, failures
}

func seedProjects(ctx context.Context, svc *service.ProjectService, skillIDs map[string]int, logger *slog.Logger) int {
	existing, err := svc.ListAll(ctx, 1, 0)
	if err != nil {
		logError(ctx, logger, "failed to list projects", err)
		return 1
	}
	if len(existing) > 0 {
		logInfo(ctx, logger, "projects already seeded")
		return 0
	}

	published := true
	draft := false
	liveURL := "https://demo.example.com"
	seeds := []model.CreateProjectRequest{
		{
			Title:       "Portfolio API",
			Description: "The Go service serving this very site.",
			Tags:        []string{"go", "postgres", "redis"},
			LiveURL:     &liveURL,
			Published:   &published,
			SkillIDs:    lookupSkillIDs(skillIDs, "Go", "PostgreSQL"),
		},
		{
			Title:       "Deployment Dashboard",
			Description: "Cluster rollout status at a glance.",
			Tags:        []string{"typescript", "kubernetes"},
			Published:   &published,
			SkillIDs:    lookupSkillIDs(skillIDs, "TypeScript", "Kubernetes"),
		},
		{
			Title:       "Unfinished Experiment",
			Description: "A draft only admins can see.",
			Published:   &draft,
		},
	}

	failures := 0
	for i := range seeds {
		req := seeds[i]
		if _, createErr := svc.Create(ctx, &req); createErr != nil {
			logError(ctx, logger, "failed to create project", createErr, "title", req.Title)
			failures++
			continue
		}
		logInfo(ctx, logger, "seeded project", "title", req.Title)
	}
	return failures
}

func lookupSkillIDs(ids map[string]int, names ...string) []int {
	out := make([]int, 0, len(names))
	for _, name := range names {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func logInfo(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.InfoContext(ctx, msg, args...)
	}
}

func logError(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) {
	if logger != nil {
		logger.ErrorContext(ctx, msg, append(args, "error", err)...)
	}
}
