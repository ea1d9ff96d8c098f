package booster

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoSeats is returned when a draft is created without players.
var ErrNoSeats = errors.New("draft needs at least one seat")

// Config controls the shape and pace of a booster draft.
type Config struct {
	Boosters        int
	CardsPerBooster int
	// PickTimeout is the window for the first pick of a booster; each later
	// pick shrinks it by PickTimeoutStep, down to MinPickTimeout.
	PickTimeout     time.Duration
	PickTimeoutStep time.Duration
	MinPickTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Boosters:        3,
		CardsPerBooster: 15,
		PickTimeout:     75 * time.Second,
		PickTimeoutStep: 5 * time.Second,
		MinPickTimeout:  5 * time.Second,
	}
}

// Seat is a player taking part in a draft.
type Seat struct {
	ID    uuid.UUID
	Name  string
	Human bool
}

type player struct {
	models.DraftPlayer
	left    bool
	picking bool
	booster []models.Card
	picks   []models.Card
	hidden  []uuid.UUID
}

func (p *player) bot() bool { return !p.Human || p.left }

// Draft is an in-memory booster draft: every player opens a booster, takes a
// card and passes the rest, alternating direction per booster.
type Draft struct {
	id       uuid.UUID
	cfg      Config
	pool     *Pool
	strategy AutoPickStrategy
	clock    clockwork.Clock
	bus      *events.Bus

	mu         sync.Mutex
	players    []*player
	started    bool
	status     models.DraftStatus
	boosterNum int
	cardNum    int
	startedAt  *time.Time
}

// NewDraft seats players in the given order.
func NewDraft(cfg Config, seats []Seat, pool *Pool, strategy AutoPickStrategy, clock clockwork.Clock) (*Draft, error) {
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}
	if pool == nil {
		pool = DefaultPool(time.Now().UnixNano())
	}
	if strategy == nil {
		strategy = NewRandomStrategy()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	d := &Draft{
		id:       uuid.New(),
		cfg:      cfg,
		pool:     pool,
		strategy: strategy,
		clock:    clock,
		bus:      events.NewBus(),
		status:   models.DraftStatusNotStarted,
	}
	for _, s := range seats {
		d.players = append(d.players, &player{DraftPlayer: models.DraftPlayer{ID: s.ID, Name: s.Name, Human: s.Human}})
	}
	return d, nil
}

func (d *Draft) ID() uuid.UUID { return d.id }

// Subscribe returns the draft's event stream
func (d *Draft) Subscribe() (<-chan events.Event, error) { return d.bus.Subscribe() }

// Close releases the event stream. Call it once the subscriber is done.
func (d *Draft) Close() { d.bus.Close() }

func (d *Draft) Players() []models.DraftPlayer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.DraftPlayer, 0, len(d.players))
	for _, p := range d.players {
		out = append(out, p.DraftPlayer)
	}
	return out
}

func (d *Draft) SetJoined(playerID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.playerLocked(playerID); p != nil {
		p.Joined = true
	}
}

func (d *Draft) AllJoined() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.players {
		if !p.Joined {
			return false
		}
	}
	return true
}

func (d *Draft) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *Draft) SetStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
}

// Status returns the draft's lifecycle status
func (d *Draft) Status() models.DraftStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Start opens the first boosters and asks every player for a pick.
func (d *Draft) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != models.DraftStatusNotStarted {
		return
	}
	now := d.clock.Now().UTC()
	d.started = true
	d.status = models.DraftStatusStarted
	d.startedAt = &now
	d.boosterNum = 0

	log.Info().Str("draft_id", d.id.String()).Int("players", len(d.players)).Msg("booster draft started")
	d.openBoostersLocked()
	d.nextPickLocked()
}

func (d *Draft) AddPick(playerID, cardID uuid.UUID, hiddenCards []uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != models.DraftStatusStarted {
		return false
	}
	p := d.playerLocked(playerID)
	if p == nil || !p.picking || !p.take(cardID) {
		return false
	}
	p.hidden = append(p.hidden, hiddenCards...)
	d.afterPickLocked()
	return true
}

// AutoPick picks on behalf of a player whose window elapsed.
func (d *Draft) AutoPick(playerID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != models.DraftStatusStarted {
		return
	}
	p := d.playerLocked(playerID)
	if p == nil || !p.picking {
		return
	}
	d.autoPickLocked(p)
	d.afterPickLocked()
}

// Leave turns the player's seat over to the auto picker. The seat counts as
// joined and no longer as human, so a leave before the start does not hold
// the draft back.
func (d *Draft) Leave(playerID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.playerLocked(playerID)
	if p == nil || p.left {
		return
	}
	p.left = true
	p.Joined = true
	p.Human = false
	if d.status == models.DraftStatusStarted && p.picking {
		d.autoPickLocked(p)
		d.afterPickLocked()
	}
}

// ReplacePlayer hands oldPlayerID's seat to newPlayerID. The new player
// drafts through the auto picker until it joins.
func (d *Draft) ReplacePlayer(oldPlayerID, newPlayerID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playerLocked(newPlayerID) != nil {
		return false
	}
	p := d.playerLocked(oldPlayerID)
	if p == nil {
		return false
	}
	p.ID = newPlayerID
	p.Human = false
	p.Joined = true
	if d.status == models.DraftStatusStarted && p.picking {
		d.autoPickLocked(p)
		d.afterPickLocked()
	}
	return true
}

func (d *Draft) SetAborted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == models.DraftStatusEnded || d.status == models.DraftStatusAborted {
		return
	}
	d.status = models.DraftStatusAborted
	for _, p := range d.players {
		p.picking = false
	}
	log.Info().Str("draft_id", d.id.String()).Msg("booster draft aborted")
	d.bus.Publish(events.End())
}

func (d *Draft) View(playerID uuid.UUID) models.DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()
	players := make([]models.DraftPlayer, 0, len(d.players))
	for _, p := range d.players {
		players = append(players, p.DraftPlayer)
	}
	return models.DraftView{
		DraftID:    d.id,
		PlayerID:   playerID,
		Status:     d.status,
		Boosters:   d.cfg.Boosters,
		BoosterNum: d.boosterNum,
		CardNum:    d.cardNum,
		Players:    players,
		StartedAt:  d.startedAt,
	}
}

func (d *Draft) PickView(playerID uuid.UUID, timeout time.Duration) models.DraftPickView {
	d.mu.Lock()
	defer d.mu.Unlock()
	view := models.DraftPickView{
		DraftID:    d.id,
		PlayerID:   playerID,
		TimeoutSec: int(timeout / time.Second),
	}
	if p := d.playerLocked(playerID); p != nil {
		view.Booster = append([]models.Card(nil), p.booster...)
		view.Picks = append([]models.Card(nil), p.picks...)
		view.HiddenCards = append([]uuid.UUID(nil), p.hidden...)
		view.Picking = p.picking
	}
	return view
}

// Picks returns the cards playerID has drafted so far.
func (d *Draft) Picks(playerID uuid.UUID) []models.Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.playerLocked(playerID); p != nil {
		return append([]models.Card(nil), p.picks...)
	}
	return nil
}

// PickTimeout returns the pick window for the given pick of a booster.
func (d *Draft) PickTimeout(cardNum int) time.Duration {
	t := d.cfg.PickTimeout - time.Duration(cardNum-1)*d.cfg.PickTimeoutStep
	if t < d.cfg.MinPickTimeout {
		return d.cfg.MinPickTimeout
	}
	return t
}

func (d *Draft) playerLocked(id uuid.UUID) *player {
	for _, p := range d.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (p *player) take(cardID uuid.UUID) bool {
	for i, c := range p.booster {
		if c.ID == cardID {
			p.picks = append(p.picks, c)
			p.booster = append(p.booster[:i], p.booster[i+1:]...)
			p.picking = false
			return true
		}
	}
	return false
}

func (d *Draft) autoPickLocked(p *player) {
	card, ok := d.strategy.Choose(p.booster)
	if !ok {
		p.picking = false
		return
	}
	p.take(card.ID)
}

func (d *Draft) openBoostersLocked() {
	d.boosterNum++
	d.cardNum = 1
	for _, p := range d.players {
		p.booster = d.pool.Open(d.cfg.CardsPerBooster)
	}
}

// afterPickLocked passes the boosters once nobody is picking any more.
func (d *Draft) afterPickLocked() {
	for _, p := range d.players {
		if p.picking {
			return
		}
	}
	d.passBoostersLocked()
	d.cardNum++
	d.nextPickLocked()
}

func (d *Draft) passBoostersLocked() {
	n := len(d.players)
	boosters := make([][]models.Card, n)
	for i, p := range d.players {
		to := (i + 1) % n
		if d.boosterNum%2 == 0 {
			to = (i - 1 + n) % n
		}
		boosters[to] = p.booster
	}
	for i, p := range d.players {
		p.booster = boosters[i]
	}
}

// nextPickLocked starts the next pick: bots pick right away, humans get a
// PICK_CARD query. Boosters keep moving while only bots are picking.
func (d *Draft) nextPickLocked() {
	for d.status == models.DraftStatusStarted {
		if d.boostersEmptyLocked() {
			if d.boosterNum >= d.cfg.Boosters {
				d.endLocked()
				return
			}
			d.openBoostersLocked()
		}

		var waiting []*player
		for _, p := range d.players {
			p.picking = len(p.booster) > 0
			if !p.picking {
				continue
			}
			if p.bot() {
				d.autoPickLocked(p)
				continue
			}
			waiting = append(waiting, p)
		}

		if len(waiting) > 0 {
			d.bus.Publish(events.Update())
			timeout := d.PickTimeout(d.cardNum)
			for _, p := range waiting {
				d.bus.Publish(events.PickCard(p.ID, timeout))
			}
			return
		}
		d.passBoostersLocked()
		d.cardNum++
	}
}

func (d *Draft) boostersEmptyLocked() bool {
	for _, p := range d.players {
		if len(p.booster) > 0 {
			return false
		}
	}
	return true
}

func (d *Draft) endLocked() {
	d.status = models.DraftStatusEnded
	log.Info().
		Str("draft_id", d.id.String()).
		Int("boosters", d.boosterNum).
		Msg("booster draft finished")
	d.bus.Publish(events.Update())
	d.bus.Publish(events.End())
}
