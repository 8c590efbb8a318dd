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

const profileColumns = `id, user_id, role, name, headline, bio, avatar_url, github_url, linked_url, updated_at`

// singletonProfileID is the fixed row the public site reads. Role records
// for other identities live in further rows keyed by user_id.
const singletonProfileID = 1

// ProfileRepo provides database operations for the display profile and
// role records.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// Get retrieves the singleton display profile.
func (r *ProfileRepo) Get(ctx context.Context) (*model.Profile, error) {
	return r.getByQuery(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1`, singletonProfileID)
}

// GetByUserID retrieves the profile record bound to an identity.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Validation("user ID is required")
	}
	return r.getByQuery(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE user_id = $1`, userID)
}

// Update applies the present fields of req to the display profile.
func (r *ProfileRepo) Update(ctx context.Context, req model.UpdateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	setClause, args := r.buildUpdateClause(req)
	if setClause == "" {
		return r.Get(ctx)
	}

	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		args = append(args, singletonProfileID)
		query := "UPDATE profiles SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + profileColumns
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return e
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// SetRole binds an identity to a role, creating the record when the
// identity has none. The singleton row claims the first bound identity;
// additional identities get their own rows.
func (r *ProfileRepo) SetRole(ctx context.Context, userID, role string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperrors.Validation("user ID is required")
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return apperrors.Validation("role is required")
	}

	now := r.timeProvider.Now().UTC()
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE profiles SET role = $2, updated_at = $3 WHERE user_id = $1`,
			userID, role, now)
		if err != nil {
			return err
		}
		if ct.RowsAffected() > 0 {
			return nil
		}

		// No record yet: claim the singleton row if it's unbound,
		// otherwise insert a bare role record.
		ct, err = conn.Exec(ctx, `
			UPDATE profiles SET user_id = $1, role = $2, updated_at = $3
			WHERE id = $4 AND user_id IS NULL`,
			userID, role, now, singletonProfileID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() > 0 {
			return nil
		}

		_, err = conn.Exec(ctx, `
			INSERT INTO profiles (user_id, role, name, updated_at)
			VALUES ($1, $2, '', $3)`,
			userID, role, now)
		return err
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

func (r *ProfileRepo) buildUpdateClause(req model.UpdateProfileRequest) (string, []any) {
	setParts := make([]string, 0, 7)
	args := make([]any, 0, 8)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Headline != nil {
		setParts = append(setParts, fmt.Sprintf("headline = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Headline))
	}
	if req.Bio != nil {
		setParts = append(setParts, fmt.Sprintf("bio = $%d", nextIdx()))
		args = append(args, *req.Bio)
	}
	if req.AvatarURL != nil {
		setParts = append(setParts, nullableURLClause("avatar_url", *req.AvatarURL, &args, nextIdx))
	}
	if req.GithubURL != nil {
		setParts = append(setParts, nullableURLClause("github_url", *req.GithubURL, &args, nextIdx))
	}
	if req.LinkedURL != nil {
		setParts = append(setParts, nullableURLClause("linked_url", *req.LinkedURL, &args, nextIdx))
	}

	if len(setParts) == 0 {
		return "", nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// nullableURLClause treats an empty string as clearing the column.
func nullableURLClause(column, value string, args *[]any, nextIdx func() int) string {
	if strings.TrimSpace(value) == "" {
		return column + " = NULL"
	}
	clause := fmt.Sprintf("%s = $%d", column, nextIdx())
	*args = append(*args, strings.TrimSpace(value))
	return clause
}

func (r *ProfileRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.Profile, error) {
	var profile model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		profile, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("profile not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &profile, nil
}
