package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan Event, within time.Duration) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return e
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestBus_DeliversInEmissionOrder(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, err := b.Subscribe()
	require.NoError(t, err)

	player := uuid.New()
	// publish before anyone reads; nothing may block
	assert.True(t, b.Publish(Update()))
	assert.True(t, b.Publish(PickCard(player, 30*time.Second)))
	assert.True(t, b.Publish(End()))

	first := recvEvent(t, ch, time.Second)
	assert.Equal(t, TableEventUpdate, first.Table)

	second := recvEvent(t, ch, time.Second)
	assert.Equal(t, PlayerQueryPickCard, second.Query)
	assert.Equal(t, player, second.PlayerID)
	assert.Equal(t, 30*time.Second, second.Timeout)

	third := recvEvent(t, ch, time.Second)
	assert.Equal(t, TableEventEnd, third.Table)
}

func TestBus_SingleSubscriber(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, err := b.Subscribe()
	require.NoError(t, err)

	_, err = b.Subscribe()
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	b := NewBus()
	ch, err := b.Subscribe()
	require.NoError(t, err)

	b.Close()
	b.Close() // idempotent

	assert.False(t, b.Publish(Update()))

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatalf("channel was not closed")
	}
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "table:END", End().String())
	assert.Contains(t, PickCard(uuid.Nil, time.Second).String(), "PICK_CARD")
	assert.Equal(t, "unknown", Event{}.String())
}
