package draft

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/models"
)

// CreateTableRequest represents a request to open a table and start its draft
type CreateTableRequest struct {
	Name            string      `json:"name"`
	UserIDs         []uuid.UUID `json:"user_ids"`
	Bots            int         `json:"bots"`
	Boosters        int         `json:"boosters,omitempty"`
	CardsPerBooster int         `json:"cards_per_booster,omitempty"`
	PickTimeoutSec  int         `json:"pick_timeout_sec,omitempty"`
}

// SeatInfo describes one seat of a new draft
type SeatInfo struct {
	PlayerID uuid.UUID  `json:"player_id"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	Name     string     `json:"name"`
	Human    bool       `json:"human"`
}

// CreateTableResponse is returned once the table and its draft exist
type CreateTableResponse struct {
	TableID uuid.UUID  `json:"table_id"`
	DraftID uuid.UUID  `json:"draft_id"`
	Seats   []SeatInfo `json:"seats"`
}

// DraftSummary represents a summary of a live draft
type DraftSummary struct {
	DraftID    uuid.UUID          `json:"draft_id"`
	TableID    uuid.UUID          `json:"table_id"`
	Status     models.DraftStatus `json:"status"`
	StartedAt  *time.Time         `json:"started_at,omitempty"`
	Boosters   int                `json:"boosters"`
	BoosterNum int                `json:"booster_num"`
	CardNum    int                `json:"card_num"`
	Players    int                `json:"players"`
	Sessions   int                `json:"sessions"`
}

// DraftState is a player's view of a live draft
type DraftState struct {
	Draft models.DraftView      `json:"draft"`
	Pick  *models.DraftPickView `json:"pick,omitempty"`
}
