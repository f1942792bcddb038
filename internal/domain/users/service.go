// Package users implements the credential store and verifier: account
// creation with duplicate-identity checks, bcrypt credential verification,
// and profile lookup.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gatherbase/server/internal/auth"
	"github.com/gatherbase/server/internal/domain/ids"
)

var (
	// ErrInvalidCredentials is returned on login failure. Unknown username
	// and wrong password are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

type RegisterParams struct {
	Username string `validate:"required,min=3,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Register creates a user account with role "user". The raw password is
// hashed before it reaches the repository and is never logged.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: username, email, and password are required", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		return nil, err
	}

	existing, err := s.repo.GetByUsernameOrEmail(ctx, params.Username, params.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint user id: %w", err)
	}

	user := &User{
		ID:           id,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         string(auth.RoleUser),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// The unique constraint backstops the pre-check under concurrent
		// registration of the same identity.
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate verifies username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
