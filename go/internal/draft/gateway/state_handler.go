package gateway

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/draft"
	"github.com/mcdev12/boosterdraft/go/internal/draft/controller"
	"github.com/mcdev12/boosterdraft/go/internal/draft/manager"
	"github.com/rs/zerolog/log"
)

// StateProvider interface defines methods for retrieving draft state
type StateProvider interface {
	DraftState(draftID, userID uuid.UUID) (*draft.DraftState, error)
	ActiveDrafts() []draft.DraftSummary
}

// StateHandler handles HTTP requests for draft state. Clients use it to
// resync after a reconnect.
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetDraftState handles GET /api/drafts/{id}/state?user_id=
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft ID format", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, "valid user_id is required", http.StatusBadRequest)
		return
	}

	state, err := h.stateProvider.DraftState(draftID, userID)
	switch {
	case errors.Is(err, manager.ErrDraftNotFound), errors.Is(err, controller.ErrNoPlayer):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get draft state")
		http.Error(w, "failed to get draft state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// HandleGetActiveDrafts handles GET /api/drafts/active
func (h *StateHandler) HandleGetActiveDrafts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateProvider.ActiveDrafts())
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/drafts/active", h.HandleGetActiveDrafts)
	mux.HandleFunc("GET /api/drafts/{id}/state", h.HandleGetDraftState)
}
