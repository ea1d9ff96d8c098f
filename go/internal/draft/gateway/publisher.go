package gateway

import (
	"context"

	"github.com/mcdev12/boosterdraft/go/internal/draft/outbox"
)

// BroadcastPublisher hands lifecycle events straight to connected clients.
// It stands in for the JetStream round trip when a single process serves
// both the drafts and the WebSocket clients.
type BroadcastPublisher struct {
	broadcaster Broadcaster
}

func NewBroadcastPublisher(b Broadcaster) *BroadcastPublisher {
	return &BroadcastPublisher{broadcaster: b}
}

func (p *BroadcastPublisher) Publish(ctx context.Context, event outbox.Event) error {
	if !isLifecycleEvent(event.EventType) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.broadcaster.BroadcastToDraft(event.DraftID, &ClientEvent{
		ID:        event.ID.String(),
		DraftID:   event.DraftID.String(),
		Type:      EventType(event.EventType),
		Timestamp: event.CreatedAt,
		Data:      event.Payload,
	})
	return nil
}
