package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateIdentity is returned when the username or email is
	// already taken. Username and email are each globally unique.
	ErrDuplicateIdentity = errors.New("username or email already exists")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repository interface {
	// Create inserts the user. Implementations return ErrDuplicateIdentity
	// when the username or email unique constraint is violated.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByUsernameOrEmail returns any user holding either identity.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
}
