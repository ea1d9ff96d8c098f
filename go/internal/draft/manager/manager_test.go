package manager

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/draft/booster"
	"github.com/mcdev12/boosterdraft/go/internal/draft/controller"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/mcdev12/boosterdraft/go/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopClient struct{}

func (nopClient) DraftStarted(uuid.UUID, models.DraftView) error  { return nil }
func (nopClient) DraftUpdate(uuid.UUID, models.DraftView) error   { return nil }
func (nopClient) DraftPick(uuid.UUID, models.DraftPickView) error { return nil }
func (nopClient) DraftOver(uuid.UUID, uuid.UUID) error            { return nil }

type seated struct {
	draft       *booster.Draft
	userPlayers *table.UserPlayers
	userID      uuid.UUID
	playerID    uuid.UUID
}

func newManager() *Manager {
	return NewManager(controller.Deps{Client: nopClient{}, Clock: clockwork.NewFakeClock()})
}

func newSeated(t *testing.T, humans bool) seated {
	t.Helper()
	s := seated{userPlayers: table.NewUserPlayers(), userID: uuid.New(), playerID: uuid.New()}
	seats := []booster.Seat{{ID: uuid.New(), Name: "bot"}}
	if humans {
		s.userPlayers.Set(s.userID, s.playerID)
		seats = append(seats, booster.Seat{ID: s.playerID, Name: "ajani", Human: true})
	} else {
		seats = append(seats, booster.Seat{ID: uuid.New(), Name: "bot 2"})
	}
	cfg := booster.DefaultConfig()
	cfg.Boosters = 1
	cfg.CardsPerBooster = 2
	d, err := booster.NewDraft(cfg, seats, booster.DefaultPool(7), booster.RarityStrategy{}, clockwork.NewFakeClock())
	require.NoError(t, err)
	s.draft = d
	return s
}

func TestManager_CreateDraft(t *testing.T) {
	m := newManager()
	s := newSeated(t, true)

	c, err := m.CreateDraft(s.draft, s.userPlayers, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, s.draft.ID(), c.DraftID())
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.draft.ID())
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.Len(t, m.List(), 1)

	_, err = m.CreateDraft(s.draft, s.userPlayers, uuid.New())
	assert.Error(t, err, "a draft can only be registered once")
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.AbortDraft(s.draft.ID()))
	assert.Equal(t, 0, m.Count())
}

func TestManager_DraftEndingBeforeRegistration(t *testing.T) {
	m := newManager()
	s := newSeated(t, false)

	c, err := m.CreateDraft(s.draft, s.userPlayers, uuid.New())
	require.NoError(t, err)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("bots only draft did not finish")
	}
	assert.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 5*time.Millisecond)
	s.draft.Close()
}

func TestManager_UnknownDraft(t *testing.T) {
	m := newManager()
	id, user, card := uuid.New(), uuid.New(), uuid.New()

	assert.ErrorIs(t, m.Join(id, user), ErrDraftNotFound)
	_, err := m.SendCardPick(id, user, card, nil)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, m.SendCardMark(id, user, card), ErrDraftNotFound)
	assert.ErrorIs(t, m.Timeout(id, user), ErrDraftNotFound)
	assert.ErrorIs(t, m.Kill(id, user), ErrDraftNotFound)
	_, err = m.ReplacePlayer(id, user, uuid.New())
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, m.AbortDraft(id), ErrDraftNotFound)
	_, _, err = m.State(id, user)
	assert.ErrorIs(t, err, ErrDraftNotFound)

	assert.NotPanics(t, func() { m.RemoveDraft(id) })
}

func TestManager_Routing(t *testing.T) {
	m := newManager()
	s := newSeated(t, true)
	_, err := m.CreateDraft(s.draft, s.userPlayers, uuid.New())
	require.NoError(t, err)

	_, err = m.SendCardPick(s.draft.ID(), s.userID, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrPickRejected, "no session before join")

	_, _, err = m.State(s.draft.ID(), uuid.New())
	assert.ErrorIs(t, err, controller.ErrNoPlayer)

	require.NoError(t, m.Join(s.draft.ID(), s.userID))
	require.Eventually(t, func() bool {
		_, pick, err := m.State(s.draft.ID(), s.userID)
		return err == nil && pick != nil
	}, 2*time.Second, 5*time.Millisecond)

	_, pick, err := m.State(s.draft.ID(), s.userID)
	require.NoError(t, err)
	require.NotEmpty(t, pick.Booster)
	card := pick.Booster[0].ID

	require.NoError(t, m.SendCardMark(s.draft.ID(), s.userID, card))
	require.NoError(t, m.Timeout(s.draft.ID(), s.userID))
	assert.Len(t, s.draft.Picks(s.playerID), 1, "timeout commits the marked card")

	require.NoError(t, m.Kill(s.draft.ID(), s.userID))
	_, _, err = m.State(s.draft.ID(), s.userID)
	assert.ErrorIs(t, err, controller.ErrNoPlayer)
}

func TestManager_AbortAll(t *testing.T) {
	m := newManager()
	for i := 0; i < 3; i++ {
		s := newSeated(t, true)
		_, err := m.CreateDraft(s.draft, s.userPlayers, uuid.New())
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.Count())

	assert.NoError(t, m.AbortAll())
	assert.Equal(t, 0, m.Count())
	assert.NoError(t, m.AbortAll())
}
