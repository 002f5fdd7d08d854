package domain

import (
	"context"
	"time"
)

// Exercise is a single logged exercise. Username is copied from the owning user at write time.
type Exercise struct {
	ID          string
	UserID      string
	Username    string
	Description string
	Duration    int
	Date        string // YYYY-MM-DD
}

// DisplayDate renders the stored date in the weekday-month-day-year form used by the API.
func (e Exercise) DisplayDate() string {
	return FormatDisplayDate(e.Date)
}

// LogQuery selects a user's exercises whose date falls within [From, To].
// Limit <= 0 means no cap.
type LogQuery struct {
	UserID string
	From   string
	To     string
	Limit  int
}

// ExerciseLog is the result of a log query.
type ExerciseLog struct {
	User      User
	Exercises []Exercise
}

// Count reports the number of exercises in the log.
func (l ExerciseLog) Count() int {
	return len(l.Exercises)
}

// ExerciseRepository captures persistence operations for exercises.
type ExerciseRepository interface {
	// CreateExercise persists the exercise and returns it with the assigned ID.
	CreateExercise(ctx context.Context, exercise Exercise) (Exercise, error)
	// ListExercises returns matching exercises in insertion order, capped at query.Limit when positive.
	ListExercises(ctx context.Context, query LogQuery) ([]Exercise, error)
}

// Repository is implemented by every storage driver.
type Repository interface {
	UserRepository
	ExerciseRepository
}

// DateLayout is the storage and request format for exercise dates.
const DateLayout = "2006-01-02"

// DisplayLayout is the human-readable response format for exercise dates.
const DisplayLayout = "Mon Jan 02 2006"

// EpochDate is the default lower bound for log queries.
const EpochDate = "1970-01-01"

// FormatDisplayDate converts a YYYY-MM-DD date to DisplayLayout. Unparseable input is returned unchanged.
func FormatDisplayDate(date string) string {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return parsed.Format(DisplayLayout)
}

// IsDate reports whether value is a valid YYYY-MM-DD date.
func IsDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}
