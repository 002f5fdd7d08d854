//go:build integration

package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/postgres"
)

func TestDispatcherDrainsRepositoryOutbox(t *testing.T) {
	ctx := context.Background()
	pool, repo := setupPostgres(t, ctx)

	user, err := repo.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = repo.CreateExercise(ctx, domain.Exercise{UserID: user.ID, Username: user.Username, Duration: 20, Date: "2024-01-01"})
	require.NoError(t, err)

	producer := &stubProducer{}
	dispatcher := NewDispatcher(NewPostgresStore(pool), producer, nil, 10*time.Millisecond, 10)
	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 2)
	require.Equal(t, postgres.UserEventsTopic, producer.writes[0].topic)
	require.Equal(t, postgres.ExerciseEventsTopic, producer.writes[1].topic)
	require.Equal(t, []byte(user.ID), producer.writes[1].messages[0].Key)

	var unpublished int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&unpublished))
	require.Zero(t, unpublished)
}

func TestDLQManagerRequeuesAndQuarantines(t *testing.T) {
	ctx := context.Background()
	pool, repo := setupPostgres(t, ctx)

	_, err := repo.CreateUser(ctx, "alice")
	require.NoError(t, err)

	failing := NewDispatcher(NewPostgresStore(pool), &stubProducer{err: errors.New("kafka down")}, nil, 10*time.Millisecond, 10)
	require.NoError(t, failing.processBatch(ctx))

	var dlqRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&dlqRows))
	require.Equal(t, 1, dlqRows)

	manager := NewDLQManager(pool, nil, 1, time.Minute)
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&pending))
	require.Equal(t, 1, pending)
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&dlqRows))
	require.Zero(t, dlqRows)

	_, err = pool.Exec(ctx, `INSERT INTO outbox_dlq (event_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, reason, retry_count)
        VALUES (99, 'user', 'u1', 'user.created', 'user_events', 'u1', '{}', 'boom', 1)`)
	require.NoError(t, err)

	processed, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
}

func setupPostgres(t *testing.T, ctx context.Context) (*pgxpool.Pool, *postgres.Repository) {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercises"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := postgres.NewRepository(pool)
	require.NoError(t, repo.ApplyMigrations())
	return pool, repo
}
