// Package events defines the payloads published for user and exercise changes.
package events

import "time"

// Event type names carried in the outbox and in the Kafka event_type header.
const (
	TypeUserCreated      = "user.created"
	TypeExerciseRecorded = "exercise.recorded"
)

// UserCreated is emitted when a user is persisted.
type UserCreated struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseRecorded is emitted when an exercise is appended to a user's log.
type ExerciseRecorded struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        string    `json:"date"`
	RecordedAt  time.Time `json:"recorded_at"`
}
