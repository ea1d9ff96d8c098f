package events

import (
	"time"
)

// Lifecycle payloads published to the event stream for other services (gateway, stats, archiving).

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID   string    `json:"draft_id"`
	TableID   string    `json:"table_id"`
	SessionID string    `json:"session_id"`
	Players   int       `json:"players"`
	StartedAt time.Time `json:"started_at"`
}

// DraftStartFailedPayload is the payload for a DraftStartFailed event.
// The draft stays in STARTED without the model running.
type DraftStartFailedPayload struct {
	DraftID  string    `json:"draft_id"`
	PlayerID string    `json:"player_id"`
	FailedAt time.Time `json:"failed_at"`
}

// PickStartedPayload is the payload for a PickStarted event
type PickStartedPayload struct {
	DraftID    string    `json:"draft_id"`
	PlayerID   string    `json:"player_id"`
	StartedAt  time.Time `json:"started_at"`
	TimeoutAt  time.Time `json:"timeout_at"`
	TimeoutSec int       `json:"timeout_sec"`
}

// PlayerLeftPayload is the payload for a PlayerLeft event
type PlayerLeftPayload struct {
	DraftID  string    `json:"draft_id"`
	PlayerID string    `json:"player_id"`
	UserID   string    `json:"user_id"`
	Reason   string    `json:"reason"`
	LeftAt   time.Time `json:"left_at"`
}

// DraftEndedPayload is the payload for a DraftEnded event
type DraftEndedPayload struct {
	DraftID string    `json:"draft_id"`
	TableID string    `json:"table_id"`
	Aborted bool      `json:"aborted"`
	EndedAt time.Time `json:"ended_at"`
}

const (
	TypeDraftStarted     = "DraftStarted"
	TypeDraftStartFailed = "DraftStartFailed"
	TypePickStarted      = "PickStarted"
	TypePlayerLeft       = "PlayerLeft"
	TypeDraftEnded       = "DraftEnded"
)
