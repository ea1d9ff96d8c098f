package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Session bridges the draft controller and one connected player. It holds the
// player's marked card and liveness, and owns the player's pick timer.
type Session struct {
	userID   uuid.UUID
	playerID uuid.UUID

	model     Model
	client    Client
	users     Users
	clock     clockwork.Clock
	onTimeout TimeoutFunc

	mu         sync.Mutex
	markedCard *uuid.UUID
	killed     bool

	timer      clockwork.Timer
	timerStop  chan struct{}
	deadline   time.Time
	generation uint64
}

// New creates a session for userID seated as playerID.
func New(userID, playerID uuid.UUID, deps Deps) *Session {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{
		userID:    userID,
		playerID:  playerID,
		model:     deps.Model,
		client:    deps.Client,
		users:     deps.Users,
		clock:     clock,
		onTimeout: deps.OnTimeout,
	}
}

// UserID returns the user this session serves
func (s *Session) UserID() uuid.UUID { return s.userID }

// PlayerID returns the player identity this session serves
func (s *Session) PlayerID() uuid.UUID { return s.playerID }

// DraftID returns the ID of the draft this session belongs to
func (s *Session) DraftID() uuid.UUID { return s.model.ID() }

// Init performs first contact with the player's client. It reports whether
// the client accepted the draft.
func (s *Session) Init() bool {
	if s.Killed() {
		return false
	}
	if err := s.client.DraftStarted(s.userID, s.model.View(s.playerID)); err != nil {
		log.Error().
			Err(err).
			Str("draft_id", s.DraftID().String()).
			Str("user_id", s.userID.String()).
			Msg("failed to init draft client")
		return false
	}
	return true
}

// Update pushes a fresh draft view to the player.
func (s *Session) Update() error {
	if s.Killed() {
		return nil
	}
	return s.client.DraftUpdate(s.userID, s.model.View(s.playerID))
}

// PickCard opens a pick window of the given length and shows the booster to the player.
// When the window elapses without a confirmed pick, the timeout callback fires.
func (s *Session) PickCard(timeout time.Duration) error {
	s.mu.Lock()
	if s.killed {
		s.mu.Unlock()
		return nil
	}
	s.setupTimeoutLocked(timeout)
	s.mu.Unlock()

	return s.client.DraftPick(s.userID, s.model.PickView(s.playerID, timeout))
}

// SetMarkedCard records (or clears, with nil) the tentative pick.
func (s *Session) SetMarkedCard(cardID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.killed {
		return
	}
	if cardID == nil {
		s.markedCard = nil
		return
	}
	id := *cardID
	s.markedCard = &id
}

// MarkedCard returns the tentative pick, if one is set.
func (s *Session) MarkedCard() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markedCard == nil {
		return uuid.Nil, false
	}
	return *s.markedCard, true
}

// SendCardPick commits a pick and returns the resulting pick view. It returns
// false when the session is dead or the model rejected the pick.
func (s *Session) SendCardPick(cardID uuid.UUID, hiddenCards []uuid.UUID) (*models.DraftPickView, bool) {
	s.mu.Lock()
	if s.killed {
		s.mu.Unlock()
		return nil, false
	}
	s.markedCard = nil
	s.cancelTimeoutLocked()
	s.mu.Unlock()

	if !s.model.AddPick(s.playerID, cardID, hiddenCards) {
		log.Warn().
			Str("draft_id", s.DraftID().String()).
			Str("player_id", s.playerID.String()).
			Str("card_id", cardID.String()).
			Msg("pick rejected by draft")
		return nil, false
	}
	view := s.model.PickView(s.playerID, 0)
	return &view, true
}

// DraftOver closes the player's pick interface. Pick history is untouched.
func (s *Session) DraftOver() {
	s.mu.Lock()
	s.cancelTimeoutLocked()
	killed := s.killed
	s.mu.Unlock()
	if killed {
		return
	}

	if err := s.client.DraftOver(s.userID, s.DraftID()); err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", s.DraftID().String()).
			Str("user_id", s.userID.String()).
			Msg("failed to notify client of draft end")
	}
}

// RemoveDraft detaches this session from the user's active drafts.
func (s *Session) RemoveDraft() {
	if s.users == nil {
		return
	}
	if user, ok := s.users.GetUser(s.userID); ok {
		user.RemoveDraft(s.playerID)
	}
}

// SetKilled marks the session dead and stops its pick timer.
func (s *Session) SetKilled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killed = true
	s.markedCard = nil
	s.cancelTimeoutLocked()
}

// Killed reports whether the session was abandoned.
func (s *Session) Killed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killed
}

// TimerArmed reports whether a pick window is open.
func (s *Session) TimerArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// PickDeadline returns when the open pick window elapses.
func (s *Session) PickDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return time.Time{}, false
	}
	return s.deadline, true
}
