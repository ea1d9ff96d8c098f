package users

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/models"
)

// CreateUserRequest represents the data needed to register a connected user
type CreateUserRequest struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// DraftBinding is a draft session bound to one of the user's draft seats.
type DraftBinding interface {
	DraftID() uuid.UUID
	PlayerID() uuid.UUID
}

// User is a mutable user record with its registry of active drafts, keyed by player ID.
type User struct {
	models.User

	mu     sync.RWMutex
	drafts map[uuid.UUID]DraftBinding
}

func newUser(u models.User) *User {
	return &User{
		User:   u,
		drafts: make(map[uuid.UUID]DraftBinding),
	}
}

// Name returns the user's display name
func (u *User) Name() string {
	return u.Username
}

// AddDraft binds a draft session to a player identity of this user.
// A later binding for the same player replaces the earlier one.
func (u *User) AddDraft(playerID uuid.UUID, binding DraftBinding) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.drafts[playerID] = binding
}

// RemoveDraft detaches the draft bound to playerID. It reports whether a binding existed.
func (u *User) RemoveDraft(playerID uuid.UUID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.drafts[playerID]; !ok {
		return false
	}
	delete(u.drafts, playerID)
	return true
}

// Draft returns the binding for playerID, if any.
func (u *User) Draft(playerID uuid.UUID) (DraftBinding, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	b, ok := u.drafts[playerID]
	return b, ok
}

// Drafts returns a snapshot of the active draft bindings.
func (u *User) Drafts() map[uuid.UUID]DraftBinding {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[uuid.UUID]DraftBinding, len(u.drafts))
	for k, v := range u.drafts {
		out[k] = v
	}
	return out
}
