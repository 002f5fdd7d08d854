package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
)

// Repository provides Postgres-backed persistence for users, exercises and their outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping verifies the pool can reach the database.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// CreateUser persists the user and records a user.created outbox event inside a single transaction.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{ID: uuid.NewString(), Username: username}
	now := time.Now().UTC()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.User{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `INSERT INTO users (user_id, username, created_at) VALUES ($1,$2,$3)`, user.ID, user.Username, now); err != nil {
		return domain.User{}, err
	}

	if err = insertOutbox(ctx, tx, "user", user.ID, events.TypeUserCreated, user.ID, events.UserCreated{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
	}); err != nil {
		return domain.User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT user_id, username FROM users WHERE user_id=$1`, id)
	var user domain.User
	if err := row.Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user ordered by insertion.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, username FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateExercise persists the exercise and records an exercise.recorded outbox event inside a single transaction.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	exercise.ID = uuid.NewString()
	now := time.Now().UTC()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Exercise{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertExercise = `INSERT INTO exercises (exercise_id, user_id, username, description, duration, exercise_date, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, insertExercise,
		exercise.ID,
		exercise.UserID,
		exercise.Username,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
		now,
	)
	if err != nil {
		return domain.Exercise{}, err
	}

	if err = insertOutbox(ctx, tx, "exercise", exercise.ID, events.TypeExerciseRecorded, exercise.UserID, events.ExerciseRecorded{
		ExerciseID:  exercise.ID,
		UserID:      exercise.UserID,
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date,
		RecordedAt:  now,
	}); err != nil {
		return domain.Exercise{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Exercise{}, err
	}
	return exercise, nil
}

// ListExercises returns the user's exercises dated within the query range, in insertion order.
func (r *Repository) ListExercises(ctx context.Context, query domain.LogQuery) ([]domain.Exercise, error) {
	args := []interface{}{query.UserID, query.From, query.To}
	stmt := `SELECT exercise_id, user_id, username, description, duration, exercise_date
        FROM exercises WHERE user_id=$1 AND exercise_date >= $2 AND exercise_date <= $3
        ORDER BY seq`
	if query.Limit > 0 {
		stmt += ` LIMIT $4`
		args = append(args, query.Limit)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var exercise domain.Exercise
		if err := rows.Scan(&exercise.ID, &exercise.UserID, &exercise.Username, &exercise.Description, &exercise.Duration, &exercise.Date); err != nil {
			return nil, err
		}
		results = append(results, exercise)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	topic, ok := eventTopics[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}
	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt, aggregateType, aggregateID, eventType, topic, partitionKey, body, dedupeKey)
	return err
}

// Topic names for published events. Both are keyed by user ID so a user's events stay ordered.
const (
	UserEventsTopic     = "user_events"
	ExerciseEventsTopic = "exercise_events"
)

var eventTopics = map[string]string{
	events.TypeUserCreated:      UserEventsTopic,
	events.TypeExerciseRecorded: ExerciseEventsTopic,
}
