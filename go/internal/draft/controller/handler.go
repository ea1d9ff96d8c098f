package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
	"github.com/mcdev12/boosterdraft/go/internal/draft/outbox"
	"github.com/mcdev12/boosterdraft/go/internal/draft/session"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

const publishTimeout = 5 * time.Second

func (c *Controller) updateDraft() error {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	if c.ended {
		return nil
	}

	var errs error
	for _, s := range c.snapshotSessions() {
		if err := s.Update(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("update player %s: %w", s.PlayerID(), err))
		}
	}
	return errs
}

func (c *Controller) pickCard(playerID uuid.UUID, timeout time.Duration) error {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	if c.ended {
		return nil
	}

	s, ok := c.Session(playerID)
	if !ok {
		return nil
	}
	if err := s.PickCard(timeout); err != nil {
		return fmt.Errorf("pick card for player %s: %w", playerID, err)
	}

	now := c.clock.Now().UTC()
	c.emit(events.TypePickStarted, events.PickStartedPayload{
		DraftID:    c.DraftID().String(),
		PlayerID:   playerID.String(),
		StartedAt:  now,
		TimeoutAt:  now.Add(timeout),
		TimeoutSec: int(timeout / time.Second),
	})
	return nil
}

// endDraft tears down every session and notifies the table and the draft
// registry. Only the first call has any effect.
func (c *Controller) endDraft() error {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	if c.ended {
		return nil
	}
	c.ended = true

	c.sessionsMu.Lock()
	sessions := c.sessions
	c.sessions = make(map[uuid.UUID]*session.Session)
	c.sessionsMu.Unlock()

	var errs error
	for _, s := range sessions {
		errs = multierr.Append(errs, teardownSession(s))
	}

	draftID := c.DraftID()
	if c.deps.Tables != nil {
		errs = multierr.Append(errs, safeCall("notify table", func() { c.deps.Tables.EndDraft(c.tableID, draftID) }))
	}
	if c.deps.Registry != nil {
		errs = multierr.Append(errs, safeCall("remove draft", func() { c.deps.Registry.RemoveDraft(draftID) }))
	}
	c.stop()

	aborted := c.aborting.Load()
	log.Info().
		Str("draft_id", draftID.String()).
		Str("table_id", c.tableID.String()).
		Bool("aborted", aborted).
		Int("sessions", len(sessions)).
		Msg("draft ended")

	c.emit(events.TypeDraftEnded, events.DraftEndedPayload{
		DraftID: draftID.String(),
		TableID: c.tableID.String(),
		Aborted: aborted,
		EndedAt: c.clock.Now().UTC(),
	})
	c.teardownErr = errs
	return errs
}

func teardownSession(s *session.Session) error {
	return safeCall(fmt.Sprintf("tear down player %s", s.PlayerID()), func() {
		s.DraftOver()
		s.RemoveDraft()
		s.SetKilled()
	})
}

func safeCall(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", op, r)
		}
	}()
	fn()
	return nil
}

// emit publishes a lifecycle event off the calling goroutine.
func (c *Controller) emit(eventType string, payload any) {
	if c.deps.Publisher == nil {
		return
	}
	draftID := c.DraftID()
	c.deps.Executor.Submit(func() {
		event, err := outbox.NewEvent(draftID, eventType, payload)
		if err != nil {
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to build draft event")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := c.deps.Publisher.Publish(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("draft_id", draftID.String()).
				Str("event_type", eventType).
				Msg("failed to publish draft event")
		}
	})
}
