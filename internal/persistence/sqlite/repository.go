// Package sqlite provides an embedded single-file repository backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"example.com/exercisetracker/internal/domain"
)

// Repository persists users and exercises in a SQLite database.
type Repository struct {
	db *sql.DB
}

// Open opens the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }

// Ping verifies the database connection is still alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{ID: uuid.NewString(), Username: username}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO users (user_id, username) VALUES (?, ?)`, user.ID, user.Username); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetUser implements domain.UserRepository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, `SELECT user_id, username FROM users WHERE user_id = ?`, id).Scan(&user.ID, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers implements domain.UserRepository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, username FROM users ORDER BY seq`)
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
	return users, rows.Err()
}

// CreateExercise implements domain.ExerciseRepository.
func (r *Repository) CreateExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	exercise.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exercises (exercise_id, user_id, username, description, duration, exercise_date) VALUES (?, ?, ?, ?, ?, ?)`,
		exercise.ID, exercise.UserID, exercise.Username, exercise.Description, exercise.Duration, exercise.Date,
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	return exercise, nil
}

// ListExercises implements domain.ExerciseRepository.
func (r *Repository) ListExercises(ctx context.Context, query domain.LogQuery) ([]domain.Exercise, error) {
	// SQLite treats a negative LIMIT as unbounded.
	limit := -1
	if query.Limit > 0 {
		limit = query.Limit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT exercise_id, user_id, username, description, duration, exercise_date
		   FROM exercises
		  WHERE user_id = ? AND exercise_date >= ? AND exercise_date <= ?
		  ORDER BY seq
		  LIMIT ?`,
		query.UserID, query.From, query.To, limit,
	)
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
	return results, rows.Err()
}
