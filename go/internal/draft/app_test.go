package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/boosterdraft/go/internal/draft/booster"
	"github.com/mcdev12/boosterdraft/go/internal/draft/controller"
	"github.com/mcdev12/boosterdraft/go/internal/draft/manager"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/mcdev12/boosterdraft/go/internal/table"
	"github.com/mcdev12/boosterdraft/go/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pickClient struct {
	mu    sync.Mutex
	picks []models.DraftPickView
	over  int
}

func (c *pickClient) DraftStarted(uuid.UUID, models.DraftView) error { return nil }
func (c *pickClient) DraftUpdate(uuid.UUID, models.DraftView) error  { return nil }

func (c *pickClient) DraftPick(_ uuid.UUID, view models.DraftPickView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.picks = append(c.picks, view)
	return nil
}
func (c *pickClient) DraftOver(uuid.UUID, uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.over++
	return nil
}

func (c *pickClient) lastPick() (models.DraftPickView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.picks) == 0 {
		return models.DraftPickView{}, false
	}
	return c.picks[len(c.picks)-1], true
}

type fixture struct {
	app    *App
	users  *users.App
	tables *table.Manager
	drafts *manager.Manager
	client *pickClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	f := &fixture{
		users:  users.NewApp(users.NewMemoryRepository()),
		tables: table.NewManager(),
		client: &pickClient{},
	}
	f.drafts = manager.NewManager(controller.Deps{
		Users:  f.users,
		Client: f.client,
		Tables: f.tables,
		Clock:  clock,
	})
	cfg := booster.DefaultConfig()
	cfg.Boosters = 1
	cfg.CardsPerBooster = 3
	f.app = NewApp(f.users, f.tables, f.drafts, booster.DefaultPool(1), cfg, clock)
	return f
}

func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), users.CreateUserRequest{Username: name})
	require.NoError(t, err)
	return u.ID
}

func TestApp_CreateTableValidation(t *testing.T) {
	f := newFixture(t)
	known := f.user(t, "nissa")

	tests := []struct {
		name string
		req  CreateTableRequest
	}{
		{"too few seats", CreateTableRequest{UserIDs: []uuid.UUID{known}}},
		{"too many seats", CreateTableRequest{UserIDs: []uuid.UUID{known}, Bots: 8}},
		{"negative bots", CreateTableRequest{UserIDs: []uuid.UUID{known}, Bots: -1}},
		{"unknown user", CreateTableRequest{UserIDs: []uuid.UUID{uuid.New()}, Bots: 1}},
		{"duplicate user", CreateTableRequest{UserIDs: []uuid.UUID{known, known}}},
		{"negative settings", CreateTableRequest{UserIDs: []uuid.UUID{known}, Bots: 1, Boosters: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.app.CreateTable(tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	assert.Equal(t, 0, f.drafts.Count())
}

func TestApp_BotsOnlyTableRunsToEnd(t *testing.T) {
	f := newFixture(t)

	resp, err := f.app.CreateTable(CreateTableRequest{Name: "bots", Bots: 4})
	require.NoError(t, err)
	assert.Len(t, resp.Seats, 4)

	require.Eventually(t, func() bool {
		tbl, err := f.app.Table(resp.TableID)
		return err == nil && tbl.Status == table.StatusFinished
	}, 2*time.Second, 5*time.Millisecond)

	tbl, err := f.app.Table(resp.TableID)
	require.NoError(t, err)
	assert.Equal(t, resp.DraftID, tbl.DraftID)
	assert.Eventually(t, func() bool { return f.drafts.Count() == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.app.ActiveDrafts())
}

func TestApp_HumanTableWaitsForJoin(t *testing.T) {
	f := newFixture(t)
	userID := f.user(t, "teferi")

	resp, err := f.app.CreateTable(CreateTableRequest{UserIDs: []uuid.UUID{userID}, Bots: 1})
	require.NoError(t, err)
	require.Len(t, resp.Seats, 2)
	assert.True(t, resp.Seats[0].Human)
	require.NotNil(t, resp.Seats[0].UserID)
	assert.Equal(t, userID, *resp.Seats[0].UserID)
	assert.Equal(t, "teferi", resp.Seats[0].Name)

	active := f.app.ActiveDrafts()
	require.Len(t, active, 1)
	assert.Equal(t, models.DraftStatusNotStarted, active[0].Status)
	assert.Equal(t, resp.TableID, active[0].TableID)
	assert.Equal(t, 0, active[0].Sessions)

	state, err := f.app.DraftState(resp.DraftID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusNotStarted, state.Draft.Status)
	assert.Nil(t, state.Pick)

	_, err = f.app.DraftState(resp.DraftID, uuid.New())
	assert.ErrorIs(t, err, controller.ErrNoPlayer)
	_, err = f.app.DraftState(uuid.New(), userID)
	assert.ErrorIs(t, err, manager.ErrDraftNotFound)

	require.NoError(t, f.drafts.Join(resp.DraftID, userID))

	require.Eventually(t, func() bool {
		_, ok := f.client.lastPick()
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	state, err = f.app.DraftState(resp.DraftID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusStarted, state.Draft.Status)
	require.NotNil(t, state.Pick)
	require.NotEmpty(t, state.Pick.Booster)

	view, err := f.drafts.SendCardPick(resp.DraftID, userID, state.Pick.Booster[0].ID, nil)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Len(t, view.Picks, 1)

	require.NoError(t, f.drafts.AbortDraft(resp.DraftID))
	tbl, err := f.app.Table(resp.TableID)
	require.NoError(t, err)
	assert.Equal(t, table.StatusFinished, tbl.Status)
	assert.Equal(t, 0, f.drafts.Count())
}
