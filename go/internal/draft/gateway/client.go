package gateway

import (
	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/models"
)

// Client pushes draft session state to players over their WebSocket connections.
type Client struct {
	connections *ConnectionManager
}

func NewClient(cm *ConnectionManager) *Client {
	return &Client{connections: cm}
}

// DraftStarted fails with ErrNotConnected when the player has no open connection.
func (c *Client) DraftStarted(userID uuid.UUID, view models.DraftView) error {
	return c.send(userID, view.DraftID, EventTypeDraftInit, view)
}

func (c *Client) DraftUpdate(userID uuid.UUID, view models.DraftView) error {
	return c.send(userID, view.DraftID, EventTypeDraftUpdate, view)
}

func (c *Client) DraftPick(userID uuid.UUID, view models.DraftPickView) error {
	return c.send(userID, view.DraftID, EventTypeDraftPick, view)
}

func (c *Client) DraftOver(userID, draftID uuid.UUID) error {
	defer c.connections.UnsubscribeDraft(userID, draftID)
	return c.send(userID, draftID, EventTypeDraftOver, nil)
}

func (c *Client) send(userID, draftID uuid.UUID, eventType EventType, data interface{}) error {
	event, err := NewClientEvent(draftID, eventType, data)
	if err != nil {
		return err
	}
	return c.connections.SendToUser(userID, event)
}
