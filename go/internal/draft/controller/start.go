package controller

import (
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
	"github.com/mcdev12/boosterdraft/go/internal/draft/session"
	"github.com/rs/zerolog/log"
)

// checkStart moves the draft to STARTED once every player joined and every
// human player has a live session. The start sequence runs on the executor.
func (c *Controller) checkStart() {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()

	if c.ended || c.draft.IsStarted() || !c.allJoined() {
		return
	}
	c.draft.SetStarted()

	log.Info().
		Str("draft_id", c.DraftID().String()).
		Int("sessions", c.SessionCount()).
		Msg("all players joined, starting draft")

	c.deps.Executor.Submit(c.startDraft)
}

func (c *Controller) allJoined() bool {
	if !c.draft.AllJoined() {
		return false
	}
	for _, p := range c.draft.Players() {
		if !p.Human {
			continue
		}
		if _, ok := c.Session(p.ID); !ok {
			return false
		}
	}
	return true
}

// startDraft initializes every session in seat order and starts the model.
// A failed init leaves the draft STARTED without the model running.
func (c *Controller) startDraft() {
	var sessions []*session.Session
	for _, p := range c.draft.Players() {
		if s, ok := c.Session(p.ID); ok {
			sessions = append(sessions, s)
		}
	}

	for _, s := range sessions {
		if !s.Init() {
			log.Error().
				Str("draft_id", c.DraftID().String()).
				Str("player_id", s.PlayerID().String()).
				Msg("unable to initialize client for player, draft not started")
			c.emit(events.TypeDraftStartFailed, events.DraftStartFailedPayload{
				DraftID:  c.DraftID().String(),
				PlayerID: s.PlayerID().String(),
				FailedAt: c.clock.Now().UTC(),
			})
			return
		}
	}

	c.phaseMu.Lock()
	if c.ended {
		c.phaseMu.Unlock()
		return
	}
	c.draft.Start()
	c.phaseMu.Unlock()

	c.emit(events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:   c.DraftID().String(),
		TableID:   c.tableID.String(),
		SessionID: c.sessionID.String(),
		Players:   len(c.draft.Players()),
		StartedAt: c.clock.Now().UTC(),
	})
}
