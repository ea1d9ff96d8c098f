package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/draft"
	"github.com/mcdev12/boosterdraft/go/internal/table"
	"github.com/mcdev12/boosterdraft/go/internal/users"
	"github.com/rs/zerolog/log"
)

// TableProvider opens tables and reports on them
type TableProvider interface {
	CreateTable(req draft.CreateTableRequest) (*draft.CreateTableResponse, error)
	Table(tableID uuid.UUID) (table.Table, error)
}

// UserRegistrar registers connected users
type UserRegistrar interface {
	CreateUser(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

// TableResponse is the JSON shape of a table
type TableResponse struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Status    table.Status `json:"status"`
	DraftID   uuid.UUID    `json:"draft_id"`
	Players   int          `json:"players"`
	CreatedAt time.Time    `json:"created_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}

// UserResponse is the JSON shape of a registered user
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// TableHandler handles HTTP requests that set up drafts
type TableHandler struct {
	tables TableProvider
	users  UserRegistrar
}

// NewTableHandler creates a new table handler
func NewTableHandler(tables TableProvider, users UserRegistrar) *TableHandler {
	return &TableHandler{tables: tables, users: users}
}

// HandleCreateUser handles POST /api/users
func (h *TableHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req users.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{ID: user.ID, Username: user.Username})
}

// HandleCreateTable handles POST /api/tables
func (h *TableHandler) HandleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req draft.CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.tables.CreateTable(req)
	switch {
	case errors.Is(err, draft.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Error().Err(err).Msg("failed to create table")
		http.Error(w, "failed to create table", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleGetTable handles GET /api/tables/{id}
func (h *TableHandler) HandleGetTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid table ID format", http.StatusBadRequest)
		return
	}

	t, err := h.tables.Table(tableID)
	if errors.Is(err, table.ErrTableNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to get table", http.StatusInternalServerError)
		return
	}

	resp := TableResponse{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status,
		DraftID:   t.DraftID,
		CreatedAt: t.CreatedAt,
		EndedAt:   t.EndedAt,
	}
	if t.UserPlayers != nil {
		resp.Players = t.UserPlayers.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegisterTableRoutes registers table and user HTTP routes
func (h *TableHandler) RegisterTableRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.HandleCreateUser)
	mux.HandleFunc("POST /api/tables", h.HandleCreateTable)
	mux.HandleFunc("GET /api/tables/{id}", h.HandleGetTable)
}
