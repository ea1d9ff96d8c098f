package controller

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
	"github.com/mcdev12/boosterdraft/go/internal/draft/outbox"
	"github.com/mcdev12/boosterdraft/go/internal/draft/session"
	"github.com/mcdev12/boosterdraft/go/internal/models"
)

var (
	// ErrNoPlayer is returned when a user has no seat in the draft.
	ErrNoPlayer = errors.New("user has no player in draft")
	// ErrDraftEnded is returned for operations on a draft that already ended.
	ErrDraftEnded = errors.New("draft already ended")
)

// Model is the external draft state machine. It owns packs, rotation and pick
// legality; the controller only observes its events and drives its lifecycle.
// The model must emit events through a single-subscriber stream and emit END
// once it ends or is aborted.
type Model interface {
	session.Model

	Players() []models.DraftPlayer
	SetJoined(playerID uuid.UUID)
	AllJoined() bool
	IsStarted() bool
	SetStarted()
	Start()
	Leave(playerID uuid.UUID)
	AutoPick(playerID uuid.UUID)
	ReplacePlayer(oldPlayerID, newPlayerID uuid.UUID) bool
	SetAborted()
	Subscribe() (<-chan events.Event, error)
}

// UserPlayers is the user->player mapping shared with the owning table.
type UserPlayers interface {
	Get(userID uuid.UUID) (uuid.UUID, bool)
	Remove(userID uuid.UUID) bool
}

// TableNotifier is told when a table's draft is over.
type TableNotifier interface {
	EndDraft(tableID, draftID uuid.UUID)
}

// DraftRegistry owns the set of live drafts.
type DraftRegistry interface {
	RemoveDraft(draftID uuid.UUID)
}

// Executor runs fire-and-forget work off the calling goroutine. Tasks must
// not run inline: the start sequence is submitted while holding the phase lock.
type Executor interface {
	Submit(task func())
}

// Publisher emits draft lifecycle events to other services.
type Publisher interface {
	Publish(ctx context.Context, event outbox.Event) error
}

// Deps holds the collaborators of a controller
type Deps struct {
	Users     session.Users
	Client    session.Client
	Tables    TableNotifier
	Registry  DraftRegistry
	Executor  Executor
	Publisher Publisher
	Clock     clockwork.Clock
}

type goExecutor struct{}

func (goExecutor) Submit(task func()) { go task() }
