package domain

import "context"

// User is an account that owns exercise records by reference. Usernames are not unique.
type User struct {
	ID       string
	Username string
}

// UserRepository captures persistence operations for users.
type UserRepository interface {
	// CreateUser persists a new user and returns it with the assigned ID.
	CreateUser(ctx context.Context, username string) (User, error)
	// GetUser returns nil, nil when the user does not exist.
	GetUser(ctx context.Context, id string) (*User, error)
	// ListUsers returns every user in insertion order.
	ListUsers(ctx context.Context) ([]User, error)
}
