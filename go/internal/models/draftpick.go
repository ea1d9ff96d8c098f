package models

import (
	"github.com/google/uuid"
)

// Card is a card as shown to a drafting player.
type Card struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SetCode  string    `json:"set_code"`
	ManaCost string    `json:"mana_cost,omitempty"`
	Rarity   string    `json:"rarity,omitempty"`
}

// DraftPickView describes one pick window or its result for a single player.
type DraftPickView struct {
	DraftID     uuid.UUID   `json:"draft_id"`
	PlayerID    uuid.UUID   `json:"player_id"`
	Booster     []Card      `json:"booster"`
	Picks       []Card      `json:"picks"`
	HiddenCards []uuid.UUID `json:"hidden_cards,omitempty"`
	TimeoutSec  int         `json:"timeout_sec"`
	Picking     bool        `json:"picking"`
}
