package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the lifecycle status of a draft.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "NOT_STARTED"
	DraftStatusStarted    DraftStatus = "STARTED"
	DraftStatusEnded      DraftStatus = "ENDED"
	DraftStatusAborted    DraftStatus = "ABORTED"
)

// DraftPlayer is one seat at the draft table.
type DraftPlayer struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Human  bool      `json:"human"`
	Joined bool      `json:"joined"`
}

// DraftView is a player's slice of the draft state.
type DraftView struct {
	DraftID    uuid.UUID     `json:"draft_id"`
	PlayerID   uuid.UUID     `json:"player_id"`
	Status     DraftStatus   `json:"status"`
	Boosters   int           `json:"boosters"`
	BoosterNum int           `json:"booster_num"`
	CardNum    int           `json:"card_num"`
	Players    []DraftPlayer `json:"players"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
}
