package users

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user record exists for an ID.
var ErrUserNotFound = errors.New("user not found")

// MemoryRepository keeps connected user records in memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

// NewMemoryRepository creates a new in-memory users repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[uuid.UUID]*User),
	}
}

// CreateUser stores a user record, replacing any record with the same ID.
func (r *MemoryRepository) CreateUser(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

// GetUser retrieves a user record by ID
func (r *MemoryRepository) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetUserByUsername retrieves a user record by username
func (r *MemoryRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// DeleteUser removes a user record
func (r *MemoryRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}
