package controller

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
	"github.com/mcdev12/boosterdraft/go/internal/draft/session"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Controller orchestrates one running draft: it owns the per-player sessions,
// consumes the draft model's event stream and routes player actions.
type Controller struct {
	sessionID   uuid.UUID
	tableID     uuid.UUID
	draft       Model
	userPlayers UserPlayers
	deps        Deps
	clock       clockwork.Clock

	sessionsMu sync.RWMutex
	sessions   map[uuid.UUID]*session.Session // keyed by player ID

	// phaseMu serializes start, update, pick and end handling
	phaseMu     sync.Mutex
	ended       bool
	teardownErr error
	aborting    atomic.Bool

	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
}

// New creates a controller for draft, seated through userPlayers at tableID.
// Automated players are marked joined right away.
func New(draft Model, userPlayers UserPlayers, tableID uuid.UUID, deps Deps) (*Controller, error) {
	stream, err := draft.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("subscribe to draft %s: %w", draft.ID(), err)
	}

	if deps.Executor == nil {
		deps.Executor = goExecutor{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	c := &Controller{
		sessionID:   uuid.New(),
		tableID:     tableID,
		draft:       draft,
		userPlayers: userPlayers,
		deps:        deps,
		clock:       clock,
		sessions:    make(map[uuid.UUID]*session.Session),
		done:        make(chan struct{}),
		loopDone:    make(chan struct{}),
	}

	go c.run(stream)

	for _, p := range draft.Players() {
		if !p.Human {
			draft.SetJoined(p.ID)
		}
	}
	c.checkStart()

	log.Info().
		Str("draft_id", draft.ID().String()).
		Str("table_id", tableID.String()).
		Str("session_id", c.sessionID.String()).
		Msg("draft controller created")

	return c, nil
}

func (c *Controller) run(stream <-chan events.Event) {
	defer close(c.loopDone)
	for {
		select {
		case <-c.done:
			return
		case e, ok := <-stream:
			if !ok {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
			c.dispatch(e)
		}
	}
}

// dispatch handles one model event. Failures are logged and never stop the loop.
func (c *Controller) dispatch(e events.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("draft_id", c.DraftID().String()).
				Str("event", e.String()).
				Interface("panic", r).
				Msg("panic while handling draft event")
		}
	}()

	var err error
	switch e.Kind {
	case events.KindTable:
		switch e.Table {
		case events.TableEventUpdate:
			err = c.updateDraft()
		case events.TableEventEnd:
			err = c.endDraft()
		}
	case events.KindPlayerQuery:
		if e.Query == events.PlayerQueryPickCard {
			err = c.pickCard(e.PlayerID, e.Timeout)
		}
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("draft_id", c.DraftID().String()).
			Str("event", e.String()).
			Msg("failed to handle draft event")
	}
}

func (c *Controller) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Done is closed once the event loop stopped, either because the draft
// ended or because the model closed its event stream.
func (c *Controller) Done() <-chan struct{} {
	return c.loopDone
}

// Join seats userID in the draft with a fresh session. A repeated join
// kills the previous session for the same player; an open pick window moves
// over to the new session with whatever time it had left.
func (c *Controller) Join(userID uuid.UUID) error {
	playerID, ok := c.userPlayers.Get(userID)
	if !ok {
		return fmt.Errorf("join draft %s as user %s: %w", c.DraftID(), userID, ErrNoPlayer)
	}

	s := session.New(userID, playerID, session.Deps{
		Model:     c.draft,
		Client:    c.deps.Client,
		Users:     c.deps.Users,
		Clock:     c.clock,
		OnTimeout: c.Timeout,
	})

	c.phaseMu.Lock()
	if c.ended {
		c.phaseMu.Unlock()
		return fmt.Errorf("join draft %s: %w", c.DraftID(), ErrDraftEnded)
	}
	c.sessionsMu.Lock()
	prev := c.sessions[playerID]
	c.sessions[playerID] = s
	c.sessionsMu.Unlock()
	if prev != nil {
		c.retireSession(prev, s)
	}
	c.phaseMu.Unlock()

	if c.deps.Users != nil {
		if user, ok := c.deps.Users.GetUser(userID); ok {
			user.AddDraft(playerID, s)
			log.Debug().
				Str("draft_id", c.DraftID().String()).
				Str("user", user.Name()).
				Msg("user joined draft")
		}
	}
	c.draft.SetJoined(playerID)

	c.checkStart()
	return nil
}

// retireSession kills a session replaced by a rejoin and hands its open pick
// window to the replacement. Caller must hold c.phaseMu.
func (c *Controller) retireSession(prev, next *session.Session) {
	deadline, open := prev.PickDeadline()
	prev.SetKilled()
	if !open {
		return
	}
	remaining := deadline.Sub(c.clock.Now())
	if remaining <= 0 {
		userID := next.UserID()
		c.deps.Executor.Submit(func() { c.Timeout(userID) })
		return
	}
	if err := next.PickCard(remaining); err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", c.DraftID().String()).
			Str("player_id", next.PlayerID().String()).
			Msg("failed to resume pick window after rejoin")
	}
}

// Timeout resolves an elapsed pick window: a marked card is committed,
// otherwise the draft picks for the player. A marked card the draft rejects
// falls back to the auto picker.
func (c *Controller) Timeout(userID uuid.UUID) {
	playerID, ok := c.userPlayers.Get(userID)
	if !ok {
		return
	}

	if s, ok := c.Session(playerID); ok {
		if s.Killed() {
			return
		}
		if cardID, marked := s.MarkedCard(); marked {
			if _, ok := c.SendCardPick(userID, cardID, nil); ok {
				return
			}
		}
	}

	if c.Ended() {
		return
	}
	c.draft.AutoPick(playerID)
	log.Debug().
		Str("draft_id", c.DraftID().String()).
		Str("user_id", userID.String()).
		Msg("player timed out, auto picking")
}

// SendCardPick commits an explicit pick. It returns false when the user has no live session.
func (c *Controller) SendCardPick(userID, cardID uuid.UUID, hiddenCards []uuid.UUID) (*models.DraftPickView, bool) {
	s, ok := c.sessionForUser(userID)
	if !ok {
		return nil, false
	}
	s.SetMarkedCard(nil)
	return s.SendCardPick(cardID, hiddenCards)
}

// SendCardMark records a tentative pick for userID.
func (c *Controller) SendCardMark(userID, cardID uuid.UUID) {
	s, ok := c.sessionForUser(userID)
	if !ok {
		return
	}
	s.SetMarkedCard(&cardID)
}

// Kill removes userID from the draft after an abrupt disconnect.
func (c *Controller) Kill(userID uuid.UUID) {
	playerID, ok := c.userPlayers.Get(userID)
	if !ok {
		return
	}
	if !c.userPlayers.Remove(userID) {
		return
	}

	if s, ok := c.removeSession(playerID); ok {
		s.SetKilled()
	}
	c.draft.Leave(playerID)

	log.Info().
		Str("draft_id", c.DraftID().String()).
		Str("user_id", userID.String()).
		Str("player_id", playerID.String()).
		Msg("player left draft")

	c.emit(events.TypePlayerLeft, events.PlayerLeftPayload{
		DraftID:  c.DraftID().String(),
		PlayerID: playerID.String(),
		UserID:   userID.String(),
		Reason:   "killed",
		LeftAt:   c.clock.Now().UTC(),
	})

	// the seat now belongs to the auto picker and no longer waits for a join
	c.checkStart()
}

// ReplacePlayer swaps oldPlayerID for newPlayerID in the draft and tears
// down the old player's session. The new player has to join on its own.
func (c *Controller) ReplacePlayer(oldPlayerID, newPlayerID uuid.UUID) bool {
	if newPlayerID == uuid.Nil || !c.draft.ReplacePlayer(oldPlayerID, newPlayerID) {
		return false
	}

	if s, ok := c.removeSession(oldPlayerID); ok {
		s.DraftOver()
		s.RemoveDraft()
		s.SetKilled()
	}

	log.Info().
		Str("draft_id", c.DraftID().String()).
		Str("old_player_id", oldPlayerID.String()).
		Str("new_player_id", newPlayerID.String()).
		Msg("player replaced")
	return true
}

// AbortDraft aborts the draft and tears it down like a normal end. It is
// best effort: teardown failures are logged and returned, never raised.
// The returned error is the one collected by whichever teardown ran.
func (c *Controller) AbortDraft() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("abort draft %s: panic: %v", c.DraftID(), r))
		}
		if err != nil {
			log.Warn().
				Err(err).
				Str("draft_id", c.DraftID().String()).
				Msg("draft aborted with teardown errors")
		}
	}()

	c.aborting.Store(true)
	c.draft.SetAborted()
	_ = c.endDraft()

	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	return c.teardownErr
}

// SessionID returns the ID correlating this controller with client channels
func (c *Controller) SessionID() uuid.UUID { return c.sessionID }

// TableID returns the enclosing table's ID
func (c *Controller) TableID() uuid.UUID { return c.tableID }

// DraftID returns the draft's ID
func (c *Controller) DraftID() uuid.UUID { return c.draft.ID() }

// Session returns the live session of playerID, if any.
func (c *Controller) Session(playerID uuid.UUID) (*session.Session, bool) {
	c.sessionsMu.RLock()
	defer c.sessionsMu.RUnlock()
	s, ok := c.sessions[playerID]
	return s, ok
}

// SessionCount returns the number of live sessions
func (c *Controller) SessionCount() int {
	c.sessionsMu.RLock()
	defer c.sessionsMu.RUnlock()
	return len(c.sessions)
}

// Overview returns the draft state without a player perspective.
func (c *Controller) Overview() models.DraftView {
	return c.draft.View(uuid.Nil)
}

// State returns userID's view of the draft and, while the player has a pick
// open, its pick view.
func (c *Controller) State(userID uuid.UUID) (models.DraftView, *models.DraftPickView, bool) {
	playerID, ok := c.userPlayers.Get(userID)
	if !ok {
		return models.DraftView{}, nil, false
	}
	view := c.draft.View(playerID)
	pick := c.draft.PickView(playerID, 0)
	if !pick.Picking {
		return view, nil, true
	}
	return view, &pick, true
}

// Ended reports whether the draft has been torn down
func (c *Controller) Ended() bool {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	return c.ended
}

func (c *Controller) sessionForUser(userID uuid.UUID) (*session.Session, bool) {
	playerID, ok := c.userPlayers.Get(userID)
	if !ok {
		return nil, false
	}
	return c.Session(playerID)
}

func (c *Controller) removeSession(playerID uuid.UUID) (*session.Session, bool) {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	s, ok := c.sessions[playerID]
	if ok {
		delete(c.sessions, playerID)
	}
	return s, ok
}

func (c *Controller) snapshotSessions() []*session.Session {
	c.sessionsMu.RLock()
	defer c.sessionsMu.RUnlock()
	out := make([]*session.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	return out
}
