package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/boosterdraft/go/internal/draft"
	"github.com/mcdev12/boosterdraft/go/internal/draft/events"
	"github.com/mcdev12/boosterdraft/go/internal/draft/manager"
	"github.com/mcdev12/boosterdraft/go/internal/draft/outbox"
	"github.com/mcdev12/boosterdraft/go/internal/models"
	"github.com/mcdev12/boosterdraft/go/internal/table"
	"github.com/mcdev12/boosterdraft/go/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct {
	mu      sync.Mutex
	joined  []uuid.UUID
	marks   []uuid.UUID
	killed  []uuid.UUID
	joinErr error
}

func (r *fakeRouter) Join(draftID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joinErr != nil {
		return r.joinErr
	}
	r.joined = append(r.joined, userID)
	return nil
}

func (r *fakeRouter) SendCardPick(draftID, userID, cardID uuid.UUID, hidden []uuid.UUID) (*models.DraftPickView, error) {
	return &models.DraftPickView{DraftID: draftID, Picks: []models.Card{{ID: cardID}}}, nil
}

func (r *fakeRouter) SendCardMark(draftID, userID, cardID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks = append(r.marks, cardID)
	return nil
}

func (r *fakeRouter) Kill(draftID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.killed = append(r.killed, userID)
	return nil
}

func (r *fakeRouter) joins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.joined)
}

type fakeBackend struct {
	known map[uuid.UUID]bool
	state *draft.DraftState
}

func (b *fakeBackend) Exists(userID uuid.UUID) bool { return b.known[userID] }

func (b *fakeBackend) CreateUser(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
	if req.Username == "" {
		return nil, errors.New("username is required")
	}
	u := &users.User{}
	u.ID = uuid.New()
	u.Username = req.Username
	return u, nil
}

func (b *fakeBackend) DraftState(draftID, userID uuid.UUID) (*draft.DraftState, error) {
	if b.state == nil || b.state.Draft.DraftID != draftID {
		return nil, fmt.Errorf("draft %s: %w", draftID, manager.ErrDraftNotFound)
	}
	return b.state, nil
}

func (b *fakeBackend) ActiveDrafts() []draft.DraftSummary {
	if b.state == nil {
		return []draft.DraftSummary{}
	}
	return []draft.DraftSummary{{DraftID: b.state.Draft.DraftID, Status: b.state.Draft.Status}}
}

func (b *fakeBackend) CreateTable(req draft.CreateTableRequest) (*draft.CreateTableResponse, error) {
	if len(req.UserIDs)+req.Bots < 2 {
		return nil, fmt.Errorf("validation failed: %w", draft.ErrInvalidRequest)
	}
	return &draft.CreateTableResponse{TableID: uuid.New(), DraftID: uuid.New()}, nil
}

func (b *fakeBackend) Table(tableID uuid.UUID) (table.Table, error) {
	return table.Table{}, table.ErrTableNotFound
}

type harness struct {
	server  *httptest.Server
	cm      *ConnectionManager
	router  *fakeRouter
	backend *fakeBackend
	userID  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		cm:      NewConnectionManager(DefaultConnectionConfig()),
		router:  &fakeRouter{},
		userID:  uuid.New(),
		backend: &fakeBackend{known: map[uuid.UUID]bool{}},
	}
	h.backend.known[h.userID] = true

	svc, err := NewService(ctx, DefaultConfig(), h.cm, Backends{
		Drafts: h.router,
		State:  h.backend,
		Tables: h.backend,
		Users:  h.backend,
	})
	require.NoError(t, err)
	go h.cm.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	h.server = httptest.NewServer(mux)
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/draft?user_id=" + userID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.cm.Connected(userID) }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) ClientEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev ClientEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestParseCommand(t *testing.T) {
	draftID, cardID := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"join", fmt.Sprintf(`{"type":"join","draft_id":"%s"}`, draftID), false},
		{"pick", fmt.Sprintf(`{"type":"pick","draft_id":"%s","card_id":"%s"}`, draftID, cardID), false},
		{"pick without card", fmt.Sprintf(`{"type":"pick","draft_id":"%s"}`, draftID), true},
		{"mark without card", fmt.Sprintf(`{"type":"mark","draft_id":"%s"}`, draftID), true},
		{"missing draft", `{"type":"leave"}`, true},
		{"unknown type", fmt.Sprintf(`{"type":"shuffle","draft_id":"%s"}`, draftID), true},
		{"not json", `pick`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.message))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, draftID, cmd.DraftID)
		})
	}
}

func TestConnectionManager_SendToUserNotConnected(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	ev, err := NewClientEvent(uuid.New(), EventTypeDraftUpdate, nil)
	require.NoError(t, err)

	err = cm.SendToUser(uuid.New(), ev)
	assert.ErrorIs(t, err, ErrNotConnected)

	client := NewClient(cm)
	assert.ErrorIs(t, client.DraftUpdate(uuid.New(), models.DraftView{}), ErrNotConnected)
}

func TestWebSocket_RejectsUnknownUser(t *testing.T) {
	h := newHarness(t)
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/draft?user_id=" + uuid.New().String()
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(h.server.URL, "http")+"/ws/draft?user_id=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket_CommandFlow(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, h.userID)
	draftID, cardID := uuid.New(), uuid.New()

	require.NoError(t, conn.WriteJSON(ClientCommand{Type: CommandJoin, DraftID: draftID}))
	require.Eventually(t, func() bool { return h.router.joins() == 1 }, time.Second, 5*time.Millisecond)

	// session pushes reach the player directly
	client := NewClient(h.cm)
	require.NoError(t, client.DraftUpdate(h.userID, models.DraftView{DraftID: draftID, CardNum: 2}))
	ev := readEvent(t, conn)
	assert.Equal(t, EventTypeDraftUpdate, ev.Type)
	var view models.DraftView
	require.NoError(t, json.Unmarshal(ev.Data, &view))
	assert.Equal(t, 2, view.CardNum)

	require.NoError(t, conn.WriteJSON(ClientCommand{Type: CommandPick, DraftID: draftID, CardID: cardID}))
	ev = readEvent(t, conn)
	assert.Equal(t, EventTypePickResult, ev.Type)
	var pick models.DraftPickView
	require.NoError(t, json.Unmarshal(ev.Data, &pick))
	require.Len(t, pick.Picks, 1)
	assert.Equal(t, cardID, pick.Picks[0].ID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pick"}`)))
	ev = readEvent(t, conn)
	assert.Equal(t, EventTypeError, ev.Type)

	// lifecycle events reach every follower of the draft
	publisher := NewBroadcastPublisher(h.cm)
	started, err := outbox.NewEvent(draftID, events.TypeDraftStarted, events.DraftStartedPayload{DraftID: draftID.String()})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), started))
	ev = readEvent(t, conn)
	assert.Equal(t, EventTypeDraftStarted, ev.Type)
	assert.Equal(t, draftID.String(), ev.DraftID)

	require.NoError(t, conn.WriteJSON(ClientCommand{Type: CommandLeave, DraftID: draftID}))
	require.Eventually(t, func() bool {
		h.router.mu.Lock()
		defer h.router.mu.Unlock()
		return len(h.router.killed) == 1 && h.cm.GetConnectionStats()["followed_drafts"] == 0
	}, time.Second, 5*time.Millisecond)
}

func TestWebSocket_FailedJoinReportsError(t *testing.T) {
	h := newHarness(t)
	h.router.joinErr = manager.ErrDraftNotFound
	conn := h.dial(t, h.userID)

	require.NoError(t, conn.WriteJSON(ClientCommand{Type: CommandJoin, DraftID: uuid.New()}))
	ev := readEvent(t, conn)
	assert.Equal(t, EventTypeError, ev.Type)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, string(CommandJoin), payload.Command)
	assert.Equal(t, 0, h.cm.GetConnectionStats()["followed_drafts"])
}

func TestStateHandler(t *testing.T) {
	h := newHarness(t)
	draftID := uuid.New()
	h.backend.state = &draft.DraftState{Draft: models.DraftView{DraftID: draftID, Status: models.DraftStatusStarted}}

	resp, err := http.Get(fmt.Sprintf("%s/api/drafts/%s/state?user_id=%s", h.server.URL, draftID, h.userID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state draft.DraftState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, models.DraftStatusStarted, state.Draft.Status)

	resp2, err := http.Get(fmt.Sprintf("%s/api/drafts/%s/state?user_id=%s", h.server.URL, uuid.New(), h.userID))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)

	resp3, err := http.Get(fmt.Sprintf("%s/api/drafts/%s/state", h.server.URL, draftID))
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)

	resp4, err := http.Get(h.server.URL + "/api/drafts/active")
	require.NoError(t, err)
	defer resp4.Body.Close()
	var active []draft.DraftSummary
	require.NoError(t, json.NewDecoder(resp4.Body).Decode(&active))
	require.Len(t, active, 1)
	assert.Equal(t, draftID, active[0].DraftID)
}

func TestTableHandler(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.server.URL+"/api/tables", "application/json", strings.NewReader(`{"bots":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(h.server.URL+"/api/tables", "application/json", strings.NewReader(`{"bots":3}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, err := http.Get(h.server.URL + "/api/tables/" + uuid.New().String())
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)

	resp3, err := http.Post(h.server.URL+"/api/users", "application/json", strings.NewReader(`{"username":"kaya"}`))
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, http.StatusCreated, resp3.StatusCode)
	var user UserResponse
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&user))
	assert.Equal(t, "kaya", user.Username)
}
