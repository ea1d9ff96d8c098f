package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
)

// ClientEvent is the envelope of every message sent to a WebSocket client
type ClientEvent struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventType represents the type of a client event
type EventType string

const (
	// session pushes
	EventTypeDraftInit   EventType = "draftInit"
	EventTypeDraftUpdate EventType = "draftUpdate"
	EventTypeDraftPick   EventType = "draftPick"
	EventTypeDraftOver   EventType = "draftOver"

	// command replies
	EventTypePickResult EventType = "pickResult"
	EventTypeError      EventType = "error"

	// lifecycle broadcasts from the event stream
	EventTypeDraftStarted     EventType = events.TypeDraftStarted
	EventTypeDraftStartFailed EventType = events.TypeDraftStartFailed
	EventTypePickStarted      EventType = events.TypePickStarted
	EventTypePlayerLeft       EventType = events.TypePlayerLeft
	EventTypeDraftEnded       EventType = events.TypeDraftEnded
)

// NewClientEvent marshals data into a client event for draftID.
func NewClientEvent(draftID uuid.UUID, eventType EventType, data interface{}) (*ClientEvent, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
		}
		raw = b
	}
	return &ClientEvent{
		ID:        uuid.New().String(),
		DraftID:   draftID.String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// ErrorPayload is the data of an error event
type ErrorPayload struct {
	Command string `json:"command"`
	Message string `json:"message"`
}

// CommandType is the type of a command sent by a client
type CommandType string

const (
	CommandJoin  CommandType = "join"
	CommandPick  CommandType = "pick"
	CommandMark  CommandType = "mark"
	CommandLeave CommandType = "leave"
)

// ClientCommand is a message received from a WebSocket client
type ClientCommand struct {
	Type        CommandType `json:"type"`
	DraftID     uuid.UUID   `json:"draft_id"`
	CardID      uuid.UUID   `json:"card_id,omitempty"`
	HiddenCards []uuid.UUID `json:"hidden_cards,omitempty"`
}

// ParseCommand decodes and validates a client command.
func ParseCommand(message []byte) (ClientCommand, error) {
	var cmd ClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		return cmd, fmt.Errorf("decode command: %w", err)
	}
	if cmd.DraftID == uuid.Nil {
		return cmd, fmt.Errorf("draft_id is required")
	}
	switch cmd.Type {
	case CommandJoin, CommandLeave:
	case CommandPick, CommandMark:
		if cmd.CardID == uuid.Nil {
			return cmd, fmt.Errorf("card_id is required for %s", cmd.Type)
		}
	default:
		return cmd, fmt.Errorf("unknown command type %q", cmd.Type)
	}
	return cmd, nil
}

// isLifecycleEvent reports whether eventType is broadcast from the event stream.
func isLifecycleEvent(eventType string) bool {
	switch EventType(eventType) {
	case EventTypeDraftStarted, EventTypeDraftStartFailed, EventTypePickStarted,
		EventTypePlayerLeft, EventTypeDraftEnded:
		return true
	}
	return false
}
