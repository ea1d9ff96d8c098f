package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// App handles user records for connected users
type App struct {
	repo UsersRepository
}

// NewApp creates a new users App
func NewApp(repo UsersRepository) *App {
	return &App{
		repo: repo,
	}
}

// CreateUser registers a connected user with validation
func (a *App) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := a.validateCreateUserRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	// usernames are unique among connected users
	existing, err := a.repo.GetUserByUsername(ctx, req.Username)
	if err == nil && existing != nil && existing.ID != id {
		return nil, fmt.Errorf("user with username %s already exists", req.Username)
	}

	user := newUser(models.User{
		ID:          id,
		Username:    req.Username,
		ConnectedAt: time.Now().UTC(),
	})
	if err := a.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", id.String()).Str("username", req.Username).Msg("user registered")
	return user, nil
}

// GetUser looks up the record of a connected user.
func (a *App) GetUser(userID uuid.UUID) (*User, bool) {
	user, err := a.repo.GetUser(context.Background(), userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get user")
		}
		return nil, false
	}
	return user, true
}

// Exists reports whether userID is registered
func (a *App) Exists(userID uuid.UUID) bool {
	_, ok := a.GetUser(userID)
	return ok
}

// DeleteUser removes a connected user
func (a *App) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := a.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (a *App) validateCreateUserRequest(req CreateUserRequest) error {
	if req.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(req.Username) > 50 {
		return fmt.Errorf("username must be 50 characters or less")
	}
	return nil
}
