package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned when a user has no open connection.
var ErrNotConnected = errors.New("user not connected")

// CommandHandler handles commands received on a connection
type CommandHandler interface {
	HandleCommand(ctx context.Context, conn *Connection, cmd ClientCommand)
}

// ConnectionManager manages WebSocket connections of draft players
type ConnectionManager struct {
	// Connection pools organized by user ID
	userConnections map[uuid.UUID]map[*Connection]bool
	// Users following each draft's lifecycle broadcasts
	draftUsers map[uuid.UUID]map[uuid.UUID]bool
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  CommandHandler

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	UserID  uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to broadcast to a draft's users
type BroadcastMessage struct {
	DraftID uuid.UUID
	Event   *ClientEvent
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	return &ConnectionManager{
		userConnections: make(map[uuid.UUID]map[*Connection]bool),
		draftUsers:      make(map[uuid.UUID]map[uuid.UUID]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// SetCommandHandler sets the handler for client commands. Call before serving connections.
func (cm *ConnectionManager) SetCommandHandler(h CommandHandler) {
	cm.handler = h
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID.String()).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.userConnections[conn.UserID] == nil {
		cm.userConnections[conn.UserID] = make(map[*Connection]bool)
	}
	cm.userConnections[conn.UserID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID.String()).
		Int("user_connections", len(cm.userConnections[conn.UserID])).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. The player stays
// seated in its drafts; a disconnect is not a leave.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.userConnections[conn.UserID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.userConnections, conn.UserID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID.String()).
		Msg("connection unregistered")
}

// SubscribeDraft makes userID receive the lifecycle broadcasts of draftID.
func (cm *ConnectionManager) SubscribeDraft(userID, draftID uuid.UUID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.draftUsers[draftID] == nil {
		cm.draftUsers[draftID] = make(map[uuid.UUID]bool)
	}
	cm.draftUsers[draftID][userID] = true
}

// UnsubscribeDraft stops lifecycle broadcasts of draftID to userID.
func (cm *ConnectionManager) UnsubscribeDraft(userID, draftID uuid.UUID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if users, ok := cm.draftUsers[draftID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(cm.draftUsers, draftID)
		}
	}
}

// SendToUser queues an event on every connection of userID. It returns
// ErrNotConnected when no connection accepted the event.
func (cm *ConnectionManager) SendToUser(userID uuid.UUID, event *ClientEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if cm.sendToUsers([]uuid.UUID{userID}, data) == 0 {
		return fmt.Errorf("send %s to %s: %w", event.Type, userID, ErrNotConnected)
	}
	return nil
}

// BroadcastToDraft sends an event to all users following a draft
func (cm *ConnectionManager) BroadcastToDraft(draftID uuid.UUID, event *ClientEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{DraftID: draftID, Event: event}:
	default:
		log.Warn().Str("draft_id", draftID.String()).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	var users []uuid.UUID
	for userID := range cm.draftUsers[message.DraftID] {
		users = append(users, userID)
	}
	cm.mu.RUnlock()
	if len(users) == 0 {
		return
	}

	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}
	delivered := cm.sendToUsers(users, eventData)

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("draft_id", message.DraftID.String()).
		Int("connections", delivered).
		Msg("event broadcasted")
}

// sendToUsers queues data on every connection of users and returns how many
// connections accepted it. Connections with a full buffer are closed.
func (cm *ConnectionManager) sendToUsers(users []uuid.UUID, data []byte) int {
	var delivered int
	var slow []*Connection

	cm.mu.RLock()
	for _, userID := range users {
		for conn := range cm.userConnections[userID] {
			select {
			case conn.Send <- data:
				delivered++
			default:
				slow = append(slow, conn)
			}
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("user_id", conn.UserID.String()).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
	return delivered
}

// Connected reports whether userID has at least one open connection
func (cm *ConnectionManager) Connected(userID uuid.UUID) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.userConnections[userID]) > 0
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	totalConnections := 0
	for _, connections := range cm.userConnections {
		totalConnections += len(connections)
	}

	return map[string]interface{}{
		"total_connections": totalConnections,
		"connected_users":   len(cm.userConnections),
		"followed_drafts":   len(cm.draftUsers),
	}
}

// reply queues data on this connection only.
func (c *Connection) reply(event *ClientEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal reply")
		return
	}
	c.Manager.mu.RLock()
	defer c.Manager.mu.RUnlock()
	if !c.Manager.userConnections[c.UserID][c] {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("connection send buffer full, dropping reply")
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	cmd, err := ParseCommand(message)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Str("user_id", c.UserID.String()).
			Msg("invalid client command")
		if ev, evErr := NewClientEvent(cmd.DraftID, EventTypeError, ErrorPayload{Command: string(cmd.Type), Message: err.Error()}); evErr == nil {
			c.reply(ev)
		}
		return
	}
	if c.Manager.handler == nil {
		return
	}
	c.Manager.handler.HandleCommand(context.Background(), c, cmd)
}
