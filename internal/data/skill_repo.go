package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/openfolio/portfolio-api/internal/data/pgxutil"
	"github.com/openfolio/portfolio-api/internal/domain/model"
	apperrors "github.com/openfolio/portfolio-api/internal/errors"
)

const skillColumns = `id, name, level, icon_url`

// SkillRepo provides database operations for skills.
type SkillRepo struct {
	DB *sql.DB
}

// NewSkillRepo creates a new SkillRepo.
func NewSkillRepo(db *sql.DB) *SkillRepo {
	return &SkillRepo{DB: db}
}

// Create inserts a new skill.
func (r *SkillRepo) Create(ctx context.Context, req *model.CreateSkillRequest) (*model.Skill, error) {
	if req == nil {
		return nil, apperrors.Validation("create skill request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.Skill
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO skills (name, level, icon_url)
			VALUES ($1, $2, $3)
			RETURNING `+skillColumns,
			strings.TrimSpace(req.Name),
			req.Level,
			req.IconURL,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Skill])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves all skills ordered by id.
func (r *SkillRepo) List(ctx context.Context) ([]*model.Skill, error) {
	var skills []model.Skill
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+skillColumns+`
			FROM skills
			ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		skills, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Skill])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Skill, len(skills))
	for i := range skills {
		res[i] = &skills[i]
	}
	return res, nil
}

// Update updates fields of a skill.
func (r *SkillRepo) Update(ctx context.Context, id int, req model.UpdateSkillRequest) (*model.Skill, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.Skill
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := buildSkillUpdateClause(req)
		if setClause == "" {
			rows, err := conn.Query(ctx, `
				SELECT `+skillColumns+`
				FROM skills WHERE id = $1`, id)
			if err != nil {
				return err
			}
			defer rows.Close()
			var e error
			out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Skill])
			return e
		}
		args = append(args, id)
		query := "UPDATE skills SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + skillColumns
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Skill])
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("skill not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete deletes a skill by ID. Skills still linked to a project fail with
// a foreign-key error.
func (r *SkillRepo) Delete(ctx context.Context, id int) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return rows > 0, nil
}

func buildSkillUpdateClause(req model.UpdateSkillRequest) (string, []any) {
	setParts := make([]string, 0, 3)
	args := make([]any, 0, 3)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Level != nil {
		setParts = append(setParts, fmt.Sprintf("level = $%d", nextIdx()))
		args = append(args, *req.Level)
	}
	if req.IconURL != nil {
		if strings.TrimSpace(*req.IconURL) == "" {
			setParts = append(setParts, "icon_url = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("icon_url = $%d", nextIdx()))
			args = append(args, *req.IconURL)
		}
	}

	if len(setParts) == 0 {
		return "", nil
	}
	return strings.Join(setParts, ", "), args
}
