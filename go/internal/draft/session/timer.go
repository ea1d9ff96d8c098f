package session

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// setupTimeoutLocked arms a one-shot pick timer, replacing any armed one.
// Caller must hold s.mu.
func (s *Session) setupTimeoutLocked(d time.Duration) {
	s.cancelTimeoutLocked()
	if d <= 0 {
		return
	}

	gen := s.generation
	timer := s.clock.NewTimer(d)
	stop := make(chan struct{})
	s.timer = timer
	s.timerStop = stop
	s.deadline = s.clock.Now().Add(d)

	go s.awaitTimeout(timer, stop, gen)

	log.Debug().
		Str("player_id", s.playerID.String()).
		Dur("timeout", d).
		Msg("pick timer armed")
}

// cancelTimeoutLocked stops the armed timer, if any. A timer that already
// fired is neutralised by bumping the generation. Caller must hold s.mu.
func (s *Session) cancelTimeoutLocked() {
	s.generation++
	if s.timer == nil {
		return
	}
	stopAndDrainTimer(s.timer)
	close(s.timerStop)
	s.timer = nil
	s.timerStop = nil
	s.deadline = time.Time{}
}

func (s *Session) awaitTimeout(t clockwork.Timer, stop <-chan struct{}, gen uint64) {
	select {
	case <-t.Chan():
		s.mu.Lock()
		if s.killed || gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.timerStop = nil
		s.deadline = time.Time{}
		s.generation++
		s.mu.Unlock()

		log.Debug().
			Str("user_id", s.userID.String()).
			Str("player_id", s.playerID.String()).
			Msg("pick timer fired")
		if s.onTimeout != nil {
			s.onTimeout(s.userID)
		}
	case <-stop:
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
