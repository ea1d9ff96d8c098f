package draft

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/draft/booster"
	"github.com/mcdev12/boosterdraft/go/internal/draft/manager"
	"github.com/mcdev12/boosterdraft/go/internal/table"
	"github.com/mcdev12/boosterdraft/go/internal/users"
	"github.com/rs/zerolog/log"
)

// ErrInvalidRequest is returned when a table request fails validation.
var ErrInvalidRequest = errors.New("invalid request")

const (
	minSeats = 2
	maxSeats = 8
)

// UserDirectory looks up connected users
type UserDirectory interface {
	GetUser(userID uuid.UUID) (*users.User, bool)
}

// App opens tables and runs their booster drafts
type App struct {
	users    UserDirectory
	tables   *table.Manager
	drafts   *manager.Manager
	pool     *booster.Pool
	strategy booster.AutoPickStrategy
	clock    clockwork.Clock
	cfg      booster.Config
}

// NewApp creates a new draft App. A nil pool falls back to a generated set.
func NewApp(users UserDirectory, tables *table.Manager, drafts *manager.Manager, pool *booster.Pool, cfg booster.Config, clock clockwork.Clock) *App {
	if pool == nil {
		pool = booster.DefaultPool(time.Now().UnixNano())
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		users:    users,
		tables:   tables,
		drafts:   drafts,
		pool:     pool,
		strategy: booster.NewRandomStrategy(),
		clock:    clock,
		cfg:      cfg,
	}
}

// CreateTable seats the requested users and bots and creates the table's draft.
// The draft starts once every human player has joined.
func (a *App) CreateTable(req CreateTableRequest) (*CreateTableResponse, error) {
	if err := a.validateCreateTableRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	userPlayers := table.NewUserPlayers()
	seats := make([]booster.Seat, 0, len(req.UserIDs)+req.Bots)
	info := make([]SeatInfo, 0, len(req.UserIDs)+req.Bots)

	for _, userID := range req.UserIDs {
		name := userID.String()[:8]
		if user, ok := a.users.GetUser(userID); ok {
			name = user.Name()
		}
		playerID := uuid.New()
		userPlayers.Set(userID, playerID)
		seats = append(seats, booster.Seat{ID: playerID, Name: name, Human: true})
		uid := userID
		info = append(info, SeatInfo{PlayerID: playerID, UserID: &uid, Name: name, Human: true})
	}
	for i := 1; i <= req.Bots; i++ {
		playerID := uuid.New()
		name := fmt.Sprintf("Bot %d", i)
		seats = append(seats, booster.Seat{ID: playerID, Name: name})
		info = append(info, SeatInfo{PlayerID: playerID, Name: name})
	}

	d, err := booster.NewDraft(a.draftConfig(req), seats, a.pool, a.strategy, a.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Booster draft %s", d.ID().String()[:8])
	}
	t := a.tables.AddTable(name, userPlayers)

	c, err := a.drafts.CreateDraft(d, userPlayers, t.ID)
	if err != nil {
		a.tables.RemoveTable(t.ID)
		d.Close()
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	if err := a.tables.BindDraft(t.ID, d.ID()); err != nil {
		log.Warn().Err(err).Str("table_id", t.ID.String()).Msg("failed to bind draft to table")
	}

	go func() {
		<-c.Done()
		d.Close()
	}()

	log.Info().
		Str("table_id", t.ID.String()).
		Str("draft_id", d.ID().String()).
		Int("humans", len(req.UserIDs)).
		Int("bots", req.Bots).
		Msg("table opened")

	return &CreateTableResponse{TableID: t.ID, DraftID: d.ID(), Seats: info}, nil
}

// DraftState returns userID's view of a live draft
func (a *App) DraftState(draftID, userID uuid.UUID) (*DraftState, error) {
	view, pick, err := a.drafts.State(draftID, userID)
	if err != nil {
		return nil, err
	}
	return &DraftState{Draft: view, Pick: pick}, nil
}

// ActiveDrafts summarizes every live draft
func (a *App) ActiveDrafts() []DraftSummary {
	live := a.drafts.List()
	out := make([]DraftSummary, 0, len(live))
	for _, c := range live {
		v := c.Overview()
		out = append(out, DraftSummary{
			DraftID:    v.DraftID,
			TableID:    c.TableID(),
			Status:     v.Status,
			StartedAt:  v.StartedAt,
			Boosters:   v.Boosters,
			BoosterNum: v.BoosterNum,
			CardNum:    v.CardNum,
			Players:    len(v.Players),
			Sessions:   c.SessionCount(),
		})
	}
	return out
}

// Table returns the state of a table
func (a *App) Table(tableID uuid.UUID) (table.Table, error) {
	return a.tables.Table(tableID)
}

func (a *App) draftConfig(req CreateTableRequest) booster.Config {
	cfg := a.cfg
	if req.Boosters > 0 {
		cfg.Boosters = req.Boosters
	}
	if req.CardsPerBooster > 0 {
		cfg.CardsPerBooster = req.CardsPerBooster
	}
	if req.PickTimeoutSec > 0 {
		cfg.PickTimeout = time.Duration(req.PickTimeoutSec) * time.Second
	}
	return cfg
}

func (a *App) validateCreateTableRequest(req CreateTableRequest) error {
	if req.Bots < 0 {
		return fmt.Errorf("%w: bots must not be negative", ErrInvalidRequest)
	}
	if req.Boosters < 0 || req.CardsPerBooster < 0 || req.PickTimeoutSec < 0 {
		return fmt.Errorf("%w: draft settings must not be negative", ErrInvalidRequest)
	}
	seats := len(req.UserIDs) + req.Bots
	if seats < minSeats || seats > maxSeats {
		return fmt.Errorf("%w: a table seats %d to %d players, got %d", ErrInvalidRequest, minSeats, maxSeats, seats)
	}

	seen := make(map[uuid.UUID]bool, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		if seen[userID] {
			return fmt.Errorf("%w: user %s listed twice", ErrInvalidRequest, userID)
		}
		seen[userID] = true
		if _, ok := a.users.GetUser(userID); !ok {
			return fmt.Errorf("%w: unknown user %s", ErrInvalidRequest, userID)
		}
	}
	return nil
}
