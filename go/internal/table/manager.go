package table

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrTableNotFound is returned when no table exists for an ID.
var ErrTableNotFound = errors.New("table not found")

// Status defines the status of a table.
type Status string

const (
	StatusDrafting Status = "DRAFTING"
	StatusFinished Status = "FINISHED"
)

// Table is the enclosing multiplayer context of a draft.
type Table struct {
	ID          uuid.UUID
	Name        string
	Status      Status
	DraftID     uuid.UUID
	UserPlayers *UserPlayers
	CreatedAt   time.Time
	EndedAt     *time.Time
}

// Manager keeps track of tables and is notified when their draft ends.
type Manager struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*Table
}

// NewManager creates a new table manager
func NewManager() *Manager {
	return &Manager{
		tables: make(map[uuid.UUID]*Table),
	}
}

// AddTable registers a new drafting table with its user->player mapping.
func (m *Manager) AddTable(name string, userPlayers *UserPlayers) *Table {
	t := &Table{
		ID:          uuid.New(),
		Name:        name,
		Status:      StatusDrafting,
		UserPlayers: userPlayers,
		CreatedAt:   time.Now().UTC(),
	}

	m.mu.Lock()
	m.tables[t.ID] = t
	m.mu.Unlock()

	log.Info().Str("table_id", t.ID.String()).Str("name", name).Msg("table created")
	return t
}

// Table returns a copy of the table state.
func (m *Manager) Table(tableID uuid.UUID) (Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[tableID]
	if !ok {
		return Table{}, ErrTableNotFound
	}
	return *t, nil
}

// BindDraft records which draft runs at the table.
func (m *Manager) BindDraft(tableID, draftID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return ErrTableNotFound
	}
	t.DraftID = draftID
	return nil
}

// EndDraft marks the table's draft finished. Repeated notifications are ignored.
func (m *Manager) EndDraft(tableID, draftID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[tableID]
	if !ok {
		log.Warn().
			Str("table_id", tableID.String()).
			Str("draft_id", draftID.String()).
			Msg("end of draft for unknown table")
		return
	}
	if t.Status == StatusFinished {
		log.Debug().Str("table_id", tableID.String()).Msg("table already finished")
		return
	}

	now := time.Now().UTC()
	t.Status = StatusFinished
	t.DraftID = draftID
	t.EndedAt = &now

	log.Info().
		Str("table_id", tableID.String()).
		Str("draft_id", draftID.String()).
		Msg("draft ended for table")
}

// RemoveTable drops a table from the registry
func (m *Manager) RemoveTable(tableID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, tableID)
}
