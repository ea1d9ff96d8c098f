package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserLookup tells registered users apart from unknown ones
type UserLookup interface {
	Exists(userID uuid.UUID) bool
}

// WebSocketHandler handles WebSocket upgrade requests for draft players
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	users             UserLookup
}

// NewWebSocketHandler creates a new WebSocket handler. users may be nil to accept any user ID.
func NewWebSocketHandler(cm *ConnectionManager, users UserLookup) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		users:             users,
	}
}

// HandleDraftConnection upgrades a player's connection. Commands for any of the
// player's drafts flow over it.
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	userIDStr := r.URL.Query().Get("user_id")
	if userIDStr == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		http.Error(w, "invalid user_id format", http.StatusBadRequest)
		return
	}
	if h.users != nil && !h.users.Exists(userID) {
		http.Error(w, "unknown user", http.StatusNotFound)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID); err != nil {
		// the upgrader already replied to the client
		log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/draft", h.HandleDraftConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
