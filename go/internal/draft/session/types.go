package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/mcdev12/boosterdraft/go/internal/users"
)

// Model defines what a session needs from the draft model
type Model interface {
	ID() uuid.UUID
	AddPick(playerID, cardID uuid.UUID, hiddenCards []uuid.UUID) bool
	View(playerID uuid.UUID) models.DraftView
	PickView(playerID uuid.UUID, timeout time.Duration) models.DraftPickView
}

// Client is the player-facing channel a session pushes draft state through.
type Client interface {
	DraftStarted(userID uuid.UUID, view models.DraftView) error
	DraftUpdate(userID uuid.UUID, view models.DraftView) error
	DraftPick(userID uuid.UUID, view models.DraftPickView) error
	DraftOver(userID, draftID uuid.UUID) error
}

// Users resolves user records
type Users interface {
	GetUser(userID uuid.UUID) (*users.User, bool)
}

// TimeoutFunc is invoked when a pick window elapses without a confirmed pick.
type TimeoutFunc func(userID uuid.UUID)

// Deps holds the collaborators of a session
type Deps struct {
	Model     Model
	Client    Client
	Users     Users
	Clock     clockwork.Clock
	OnTimeout TimeoutFunc
}
