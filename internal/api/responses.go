package api

import (
	"encoding/json"
	"net/http"

	"example.com/exercisetracker/internal/domain"
)

// UserView is the public shape of a user.
type UserView struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// ExerciseView is returned after an exercise is recorded. ID is the owning user's ID.
type ExerciseView struct {
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
	ID          string `json:"_id"`
}

// LogEntryView is a single exercise in a log response.
type LogEntryView struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogView is the response body for a log query.
type LogView struct {
	ID       string         `json:"_id"`
	Username string         `json:"username"`
	Count    int            `json:"count"`
	Log      []LogEntryView `json:"log"`
}

// ErrorView is the uniform error body.
type ErrorView struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func toUserView(user domain.User) UserView {
	return UserView{Username: user.Username, ID: user.ID}
}

func toExerciseView(exercise domain.Exercise) ExerciseView {
	return ExerciseView{
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.DisplayDate(),
		ID:          exercise.UserID,
	}
}

func toLogView(log domain.ExerciseLog) LogView {
	entries := make([]LogEntryView, 0, len(log.Exercises))
	for _, exercise := range log.Exercises {
		entries = append(entries, LogEntryView{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        exercise.DisplayDate(),
		})
	}
	return LogView{
		ID:       log.User.ID,
		Username: log.User.Username,
		Count:    len(entries),
		Log:      entries,
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorView{Type: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
