package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/openfolio/portfolio-api/internal/data/database"
	"github.com/openfolio/portfolio-api/internal/data/pgxutil"
	"github.com/openfolio/portfolio-api/internal/domain/model"
	apperrors "github.com/openfolio/portfolio-api/internal/errors"
)

const contactColumns = `id, name, email, message, created_at`

// ContactRepo provides database operations for contact messages.
type ContactRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContactRepo creates a new ContactRepo with real time provider.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewContactRepoWithTimeProvider creates a new ContactRepo with a custom time provider (useful for tests).
func NewContactRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: tp}
}

// Create stores a contact form submission.
func (r *ContactRepo) Create(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	if req == nil {
		return nil, apperrors.Validation("contact message request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.ContactMessage
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO contact_messages (name, email, message, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING `+contactColumns,
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.Email),
			req.Message,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves messages with pagination, newest first.
func (r *ContactRepo) List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)

	query, args := database.BuildListQuery(database.NewListQueryOptions("contact_messages",
		database.WithColumns(strings.Split(contactColumns, ", ")...),
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	))

	var messages []model.ContactMessage
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		messages, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.ContactMessage, len(messages))
	for i := range messages {
		res[i] = &messages[i]
	}
	return res, nil
}

// Delete removes a message by ID.
func (r *ContactRepo) Delete(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, apperrors.Validation("message ID is required")
	}

	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete contact message: %w", apperrors.MapDBError(err))
	}
	return rows > 0, nil
}
