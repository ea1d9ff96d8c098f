package table

import (
	"sync"

	"github.com/google/uuid"
)

// UserPlayers maps connected users to their seat (player identity) at a table.
// It is shared between the table and its draft controller.
type UserPlayers struct {
	mu sync.RWMutex
	m  map[uuid.UUID]uuid.UUID
}

// NewUserPlayers creates an empty mapping
func NewUserPlayers() *UserPlayers {
	return &UserPlayers{m: make(map[uuid.UUID]uuid.UUID)}
}

// Set binds userID to playerID.
func (u *UserPlayers) Set(userID, playerID uuid.UUID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.m[userID] = playerID
}

// Get returns the player identity of userID.
func (u *UserPlayers) Get(userID uuid.UUID) (uuid.UUID, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	p, ok := u.m[userID]
	return p, ok
}

// Remove drops userID from the mapping. It reports whether the user was mapped.
func (u *UserPlayers) Remove(userID uuid.UUID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.m[userID]; !ok {
		return false
	}
	delete(u.m, userID)
	return true
}

// UserOf returns the user seated as playerID.
func (u *UserPlayers) UserOf(playerID uuid.UUID) (uuid.UUID, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for userID, p := range u.m {
		if p == playerID {
			return userID, true
		}
	}
	return uuid.Nil, false
}

// Len returns the number of mapped users
func (u *UserPlayers) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.m)
}
