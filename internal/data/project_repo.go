package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/openfolio/portfolio-api/internal/data/database"
	"github.com/openfolio/portfolio-api/internal/data/pgxutil"
	"github.com/openfolio/portfolio-api/internal/domain/model"
	apperrors "github.com/openfolio/portfolio-api/internal/errors"
)

const projectColumns = `id, title, description, image_url, tags, live_url, case_study, published, created_at, updated_at`

// ProjectRepo provides database operations for projects and their skill
// links. Project writes and link replacement run in one transaction so a
// project and its links never diverge.
type ProjectRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProjectRepo creates a new ProjectRepo with real time provider.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProjectRepoWithTimeProvider creates a new ProjectRepo with a custom time provider (useful for tests).
func NewProjectRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProjectRepo {
	return &ProjectRepo{DB: db, timeProvider: tp}
}

// Create inserts a new project and links the requested skills.
func (r *ProjectRepo) Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	if req == nil {
		return nil, apperrors.Validation("create project request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	published := false
	if req.Published != nil {
		published = *req.Published
	}
	createdAt := r.timeProvider.Now().UTC()

	var out model.Project
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO projects (
				title, description, image_url, tags, live_url, case_study, published, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $8
			) RETURNING `+projectColumns,
			strings.TrimSpace(req.Title),
			req.Description,
			req.ImageURL,
			req.Tags,
			req.LiveURL,
			req.CaseStudy,
			published,
			createdAt,
		)
		if err != nil {
			return err
		}
		out, err = collectProject(rows)
		if err != nil {
			return err
		}
		if err := replaceSkillLinks(ctx, tx, out.ID, req.SkillIDs); err != nil {
			return err
		}
		skills, err := linkedSkills(ctx, tx, out.ID)
		if err != nil {
			return err
		}
		out.Skills = skills
		return nil
	}})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a project with its linked skills.
func (r *ProjectRepo) GetByID(ctx context.Context, id int) (*model.Project, error) {
	var out model.Project
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+projectColumns+`
			FROM projects
			WHERE id = $1`, id)
		if err != nil {
			return err
		}
		out, err = collectProject(rows)
		if err != nil {
			return err
		}
		skills, err := linkedSkills(ctx, conn, out.ID)
		if err != nil {
			return err
		}
		out.Skills = skills
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("project not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves projects with pagination, optionally restricted to
// published entries. Linked skills are loaded in one batch query.
func (r *ProjectRepo) List(ctx context.Context, opts model.ProjectsListOptions) ([]*model.Project, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(strings.Split(projectColumns, ", ")...),
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.PublishedOnly {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("published", database.Equal, true),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("projects", queryOpts...))

	var projects []model.Project
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		projects, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Project])
		if err != nil {
			return err
		}
		return attachSkills(ctx, conn, projects)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Project, len(projects))
	for i := range projects {
		res[i] = &projects[i]
	}
	return res, nil
}

// Update updates fields of a project. A non-nil SkillIDs replaces the full
// set of skill links.
func (r *ProjectRepo) Update(ctx context.Context, id int, req model.UpdateProjectRequest) (*model.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.Project
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		setClause, args := r.buildUpdateClause(req)
		if setClause == "" {
			rows, err := tx.Query(ctx, `
				SELECT `+projectColumns+`
				FROM projects WHERE id = $1`, id)
			if err != nil {
				return err
			}
			var e error
			out, e = collectProject(rows)
			if e != nil {
				return e
			}
		} else {
			args = append(args, id)
			query := "UPDATE projects SET " + setClause +
				" WHERE id = $" + strconv.Itoa(len(args)) +
				" RETURNING " + projectColumns
			rows, err := tx.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			var e error
			out, e = collectProject(rows)
			if e != nil {
				return e
			}
		}

		if req.SkillIDs != nil {
			if err := replaceSkillLinks(ctx, tx, out.ID, req.SkillIDs); err != nil {
				return err
			}
		}
		skills, err := linkedSkills(ctx, tx, out.ID)
		if err != nil {
			return err
		}
		out.Skills = skills
		return nil
	}})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("project not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete deletes a project by ID. Skill links go with it through the
// schema's cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id int) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", apperrors.MapDBError(err))
	}
	return rows > 0, nil
}

func (r *ProjectRepo) buildUpdateClause(req model.UpdateProjectRequest) (string, []any) {
	setParts := make([]string, 0, 8)
	args := make([]any, 0, 9)
	nextIdx := func() int { return len(args) + 1 }

	if req.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", nextIdx()))
		args = append(args, *req.Description)
	}
	if req.ImageURL != nil {
		setParts = append(setParts, fmt.Sprintf("image_url = $%d", nextIdx()))
		args = append(args, *req.ImageURL)
	}
	if req.Tags != nil {
		setParts = append(setParts, fmt.Sprintf("tags = $%d", nextIdx()))
		args = append(args, req.Tags)
	}
	if req.LiveURL != nil {
		if strings.TrimSpace(*req.LiveURL) == "" {
			setParts = append(setParts, "live_url = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("live_url = $%d", nextIdx()))
			args = append(args, *req.LiveURL)
		}
	}
	if req.CaseStudy != nil {
		setParts = append(setParts, fmt.Sprintf("case_study = $%d", nextIdx()))
		args = append(args, req.CaseStudy)
	}
	if req.Published != nil {
		setParts = append(setParts, fmt.Sprintf("published = $%d", nextIdx()))
		args = append(args, *req.Published)
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

func collectProject(rows pgx.Rows) (model.Project, error) {
	defer rows.Close()
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Project])
}

// replaceSkillLinks swaps the project's full link set for skillIDs.
func replaceSkillLinks(ctx context.Context, tx pgx.Tx, projectID int, skillIDs []int) error {
	if _, err := tx.Exec(ctx, `DELETE FROM project_skills WHERE project_id = $1`, projectID); err != nil {
		return err
	}
	for _, skillID := range skillIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO project_skills (project_id, skill_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, projectID, skillID); err != nil {
			return err
		}
	}
	return nil
}

type skillQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func linkedSkills(ctx context.Context, q skillQuerier, projectID int) ([]model.Skill, error) {
	rows, err := q.Query(ctx, `
		SELECT s.id, s.name, s.level, s.icon_url
		FROM skills s
		JOIN project_skills ps ON ps.skill_id = s.id
		WHERE ps.project_id = $1
		ORDER BY s.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowToStructByName[model.Skill])
}

// attachSkills loads the skill links for a page of projects in one query.
func attachSkills(ctx context.Context, q skillQuerier, projects []model.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]int, len(projects))
	index := make(map[int]*model.Project, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		index[projects[i].ID] = &projects[i]
	}

	rows, err := q.Query(ctx, `
		SELECT ps.project_id, s.id, s.name, s.level, s.icon_url
		FROM skills s
		JOIN project_skills ps ON ps.skill_id = s.id
		WHERE ps.project_id = ANY($1)
		ORDER BY ps.project_id, s.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var projectID int
		var skill model.Skill
		if err := rows.Scan(&projectID, &skill.ID, &skill.Name, &skill.Level, &skill.IconURL); err != nil {
			return err
		}
		if p, ok := index[projectID]; ok {
			p.Skills = append(p.Skills, skill)
		}
	}
	return rows.Err()
}
