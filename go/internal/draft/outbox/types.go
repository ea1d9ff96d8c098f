package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a draft lifecycle event on its way to the event stream
type Event struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent marshals payload into a new event for draftID.
func NewEvent(draftID uuid.UUID, eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		DraftID:   draftID,
		EventType: eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// envelope is the wire format shared with consumers of the stream
type envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	DraftID   string          `json:"draftId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func (e Event) envelope() envelope {
	return envelope{
		EventID:   e.ID.String(),
		EventType: e.EventType,
		DraftID:   e.DraftID.String(),
		Timestamp: e.CreatedAt,
		Payload:   e.Payload,
	}
}

// Marshal encodes the event in its stream envelope.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e.envelope())
}
