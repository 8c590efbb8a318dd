package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfolio/portfolio-api/internal/domain/model"
	"github.com/openfolio/portfolio-api/internal/testutil"
)

func TestContactRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		tp := NewFixedTimeProvider(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		repo := NewContactRepoWithTimeProvider(db, tp)

		t.Run("create", func(t *testing.T) {
			msg, err := repo.Create(ctx, &model.CreateContactMessageRequest{
				Name:    "Visitor",
				Email:   "visitor@example.com",
				Message: "Nice site!",
			})
			require.NoError(t, err)
			assert.NotEmpty(t, msg.ID)
			assert.Equal(t, tp.Now(), msg.CreatedAt.UTC())
		})

		t.Run("list newest first", func(t *testing.T) {
			tp.AddTime(time.Hour)
			_, err := repo.Create(ctx, &model.CreateContactMessageRequest{
				Name:    "Second visitor",
				Email:   "second@example.com",
				Message: "Hello again",
			})
			require.NoError(t, err)

			msgs, err := repo.List(ctx, 10, 0)
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, "Second visitor", msgs[0].Name)
		})

		t.Run("pagination", func(t *testing.T) {
			page, err := repo.List(ctx, 1, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "Visitor", page[0].Name)
		})

		t.Run("delete", func(t *testing.T) {
			msgs, err := repo.List(ctx, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, msgs)

			deleted, err := repo.Delete(ctx, msgs[0].ID)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = repo.Delete(ctx, msgs[0].ID)
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	})
}
