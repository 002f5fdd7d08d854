// Package domain defines the users and exercise log workflows.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/exercisetracker/internal/observability"
)

var (
	// ErrUserNotFound is returned when no user exists for the supplied ID.
	ErrUserNotFound = errors.New("there are no users with that ID")
	// ErrValidation wraps input that cannot be coerced into a valid record or query.
	ErrValidation = errors.New("validation failed")
	// ErrStorage wraps failures reported by the underlying datastore.
	ErrStorage = errors.New("storage failure")
)

// Service orchestrates user and exercise workflows.
type Service struct {
	users     UserRepository
	exercises ExerciseRepository
	now       func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(users UserRepository, exercises ExerciseRepository, opts ...Option) *Service {
	s := &Service{
		users:     users,
		exercises: exercises,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser records a user. Empty and duplicate usernames are accepted.
func (s *Service) CreateUser(ctx context.Context, username string) (*User, error) {
	user, err := s.users.CreateUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: create user: %w", ErrStorage, err)
	}
	observability.RecordUserCreated()
	return &user, nil
}

// ListUsers returns all users in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrStorage, err)
	}
	return users, nil
}

// AddExerciseInput captures the payload from the API layer.
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    int
	Date        string // optional, defaults to today (UTC)
}

// AddExercise records an exercise for an existing user.
func (s *Service) AddExercise(ctx context.Context, input AddExerciseInput) (*Exercise, error) {
	if input.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}
	date := input.Date
	if date == "" {
		date = s.today()
	} else if !IsDate(date) {
		return nil, fmt.Errorf("%w: date must use the YYYY-MM-DD format", ErrValidation)
	}

	user, err := s.lookupUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	exercise, err := s.exercises.CreateExercise(ctx, Exercise{
		UserID:      user.ID,
		Username:    user.Username,
		Description: input.Description,
		Duration:    input.Duration,
		Date:        date,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create exercise: %w", ErrStorage, err)
	}
	observability.RecordExerciseRecorded(exercise.Duration)
	return &exercise, nil
}

// GetLogsInput captures the optional log filters. Empty bounds fall back to the epoch and today.
type GetLogsInput struct {
	UserID string
	From   string
	To     string
	Limit  int
}

// GetLogs returns the user's exercises dated within the inclusive [From, To] range.
func (s *Service) GetLogs(ctx context.Context, input GetLogsInput) (*ExerciseLog, error) {
	from := input.From
	if from == "" {
		from = EpochDate
	}
	to := input.To
	if to == "" {
		to = s.today()
	}
	if !IsDate(from) || !IsDate(to) {
		return nil, fmt.Errorf("%w: from and to must use the YYYY-MM-DD format", ErrValidation)
	}

	user, err := s.lookupUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit < 0 {
		limit = 0
	}
	exercises, err := s.exercises.ListExercises(ctx, LogQuery{
		UserID: user.ID,
		From:   from,
		To:     to,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list exercises: %w", ErrStorage, err)
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	observability.RecordLogQuery(len(exercises))
	return &ExerciseLog{User: *user, Exercises: exercises}, nil
}

func (s *Service) lookupUser(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %w", ErrStorage, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) today() string {
	return s.now().UTC().Format(DateLayout)
}
