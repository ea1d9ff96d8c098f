package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tells table events apart from player query events.
type Kind int

const (
	KindTable Kind = iota + 1
	KindPlayerQuery
)

// TableEventType is a lifecycle event emitted by a draft model.
type TableEventType string

const (
	TableEventUpdate TableEventType = "UPDATE"
	TableEventEnd    TableEventType = "END"
)

// PlayerQueryType is a request from the draft model to a single player.
type PlayerQueryType string

const (
	PlayerQueryPickCard PlayerQueryType = "PICK_CARD"
)

// Event is a single message on a draft's event stream.
type Event struct {
	Kind      Kind
	Table     TableEventType
	Query     PlayerQueryType
	PlayerID  uuid.UUID
	Timeout   time.Duration
	EmittedAt time.Time
}

// Update returns an UPDATE table event.
func Update() Event {
	return Event{Kind: KindTable, Table: TableEventUpdate, EmittedAt: time.Now()}
}

// End returns an END table event.
func End() Event {
	return Event{Kind: KindTable, Table: TableEventEnd, EmittedAt: time.Now()}
}

// PickCard returns a PICK_CARD query addressed to playerID.
func PickCard(playerID uuid.UUID, timeout time.Duration) Event {
	return Event{
		Kind:      KindPlayerQuery,
		Query:     PlayerQueryPickCard,
		PlayerID:  playerID,
		Timeout:   timeout,
		EmittedAt: time.Now(),
	}
}

func (e Event) String() string {
	switch e.Kind {
	case KindTable:
		return fmt.Sprintf("table:%s", e.Table)
	case KindPlayerQuery:
		return fmt.Sprintf("query:%s player=%s timeout=%s", e.Query, e.PlayerID, e.Timeout)
	default:
		return "unknown"
	}
}
