//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
)

func TestRepositoryFiltersExercisesByDateRange(t *testing.T) {
	ctx := context.Background()
	repo, pool := setupRepository(t, ctx)

	user, err := repo.CreateUser(ctx, "alice")
	require.NoError(t, err)

	for _, date := range []string{"2023-01-01", "2023-06-15", "2023-12-31"} {
		_, err := repo.CreateExercise(ctx, domain.Exercise{
			UserID:      user.ID,
			Username:    user.Username,
			Description: "run",
			Duration:    30,
			Date:        date,
		})
		require.NoError(t, err)
	}

	results, err := repo.ListExercises(ctx, domain.LogQuery{UserID: user.ID, From: "2023-01-01", To: "2023-06-30"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "2023-01-01", results[0].Date)
	require.Equal(t, "2023-06-15", results[1].Date)
	require.Equal(t, 30, results[0].Duration)

	limited, err := repo.ListExercises(ctx, domain.LogQuery{UserID: user.ID, From: domain.EpochDate, To: "2099-01-01", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "2023-01-01", limited[0].Date)

	var outboxRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE event_type=$1`, events.TypeExerciseRecorded).Scan(&outboxRows))
	require.Equal(t, 3, outboxRows)
}

func TestRepositoryUsersInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t, ctx)

	first, err := repo.CreateUser(ctx, "alice")
	require.NoError(t, err)
	second, err := repo.CreateUser(ctx, "alice")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.User{first, second}, users)

	missing, err := repo.GetUser(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.Nil(t, missing)

	found, err := repo.GetUser(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, *found)
}

func setupRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool) {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercises"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool)
	require.NoError(t, repo.ApplyMigrations())
	return repo, pool
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
