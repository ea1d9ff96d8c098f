package manager

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/draft/controller"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

var (
	// ErrDraftNotFound is returned when no live draft exists for an ID.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrPickRejected is returned when a pick could not be committed.
	ErrPickRejected = errors.New("pick rejected")
)

// Manager owns the live drafts of this process and routes player actions to them.
type Manager struct {
	deps controller.Deps

	mu     sync.RWMutex
	drafts map[uuid.UUID]*controller.Controller
}

// NewManager creates a draft manager. deps.Registry is replaced by the manager itself.
func NewManager(deps controller.Deps) *Manager {
	m := &Manager{
		drafts: make(map[uuid.UUID]*controller.Controller),
	}
	deps.Registry = m
	m.deps = deps
	return m
}

// CreateDraft starts orchestrating draft for the players seated at tableID.
func (m *Manager) CreateDraft(draft controller.Model, userPlayers controller.UserPlayers, tableID uuid.UUID) (*controller.Controller, error) {
	m.mu.Lock()
	if _, exists := m.drafts[draft.ID()]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("draft %s already running", draft.ID())
	}
	m.mu.Unlock()

	c, err := controller.New(draft, userPlayers, tableID, m.deps)
	if err != nil {
		return nil, fmt.Errorf("create draft controller: %w", err)
	}

	m.mu.Lock()
	m.drafts[draft.ID()] = c
	m.mu.Unlock()

	// a draft can end before it was registered
	if c.Ended() {
		m.RemoveDraft(draft.ID())
	}

	log.Info().
		Str("draft_id", draft.ID().String()).
		Str("table_id", tableID.String()).
		Msg("draft registered")
	return c, nil
}

// Get returns the controller of a live draft
func (m *Manager) Get(draftID uuid.UUID) (*controller.Controller, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.drafts[draftID]
	return c, ok
}

// RemoveDraft deregisters a draft. Removing an unknown draft is a no-op.
func (m *Manager) RemoveDraft(draftID uuid.UUID) {
	m.mu.Lock()
	_, ok := m.drafts[draftID]
	delete(m.drafts, draftID)
	m.mu.Unlock()

	if ok {
		log.Info().Str("draft_id", draftID.String()).Msg("draft removed")
	}
}

// Count returns the number of live drafts
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}

// List returns the live drafts
func (m *Manager) List() []*controller.Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*controller.Controller, 0, len(m.drafts))
	for _, c := range m.drafts {
		out = append(out, c)
	}
	return out
}

// State returns userID's view of a live draft.
func (m *Manager) State(draftID, userID uuid.UUID) (models.DraftView, *models.DraftPickView, error) {
	c, err := m.lookup(draftID)
	if err != nil {
		return models.DraftView{}, nil, err
	}
	view, pick, ok := c.State(userID)
	if !ok {
		return models.DraftView{}, nil, fmt.Errorf("user %s in draft %s: %w", userID, draftID, controller.ErrNoPlayer)
	}
	return view, pick, nil
}

func (m *Manager) lookup(draftID uuid.UUID) (*controller.Controller, error) {
	c, ok := m.Get(draftID)
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", draftID, ErrDraftNotFound)
	}
	return c, nil
}

func (m *Manager) Join(draftID, userID uuid.UUID) error {
	c, err := m.lookup(draftID)
	if err != nil {
		return err
	}
	return c.Join(userID)
}

func (m *Manager) SendCardPick(draftID, userID, cardID uuid.UUID, hiddenCards []uuid.UUID) (*models.DraftPickView, error) {
	c, err := m.lookup(draftID)
	if err != nil {
		return nil, err
	}
	view, ok := c.SendCardPick(userID, cardID, hiddenCards)
	if !ok {
		return nil, fmt.Errorf("card %s in draft %s: %w", cardID, draftID, ErrPickRejected)
	}
	return view, nil
}

func (m *Manager) SendCardMark(draftID, userID, cardID uuid.UUID) error {
	c, err := m.lookup(draftID)
	if err != nil {
		return err
	}
	c.SendCardMark(userID, cardID)
	return nil
}

func (m *Manager) Timeout(draftID, userID uuid.UUID) error {
	c, err := m.lookup(draftID)
	if err != nil {
		return err
	}
	c.Timeout(userID)
	return nil
}

func (m *Manager) Kill(draftID, userID uuid.UUID) error {
	c, err := m.lookup(draftID)
	if err != nil {
		return err
	}
	c.Kill(userID)
	return nil
}

func (m *Manager) ReplacePlayer(draftID, oldPlayerID, newPlayerID uuid.UUID) (bool, error) {
	c, err := m.lookup(draftID)
	if err != nil {
		return false, err
	}
	return c.ReplacePlayer(oldPlayerID, newPlayerID), nil
}

// AbortDraft aborts a single draft. Teardown errors are returned for logging.
func (m *Manager) AbortDraft(draftID uuid.UUID) error {
	c, err := m.lookup(draftID)
	if err != nil {
		return err
	}
	return c.AbortDraft()
}

// AbortAll aborts every live draft, used on shutdown.
func (m *Manager) AbortAll() error {
	live := m.List()

	var errs error
	for _, c := range live {
		if err := c.AbortDraft(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("abort draft %s: %w", c.DraftID(), err))
		}
	}
	if len(live) > 0 {
		log.Info().Int("drafts", len(live)).Msg("aborted live drafts")
	}
	return errs
}
