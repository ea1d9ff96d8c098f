package outbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	events   []Event
}

func (p *flakyPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("nats unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func TestNewEvent_Envelope(t *testing.T) {
	draftID := uuid.New()
	ev, err := NewEvent(draftID, "DraftStarted", map[string]int{"players": 8})
	require.NoError(t, err)
	assert.Equal(t, draftID, ev.DraftID)
	assert.JSONEq(t, `{"players":8}`, string(ev.Payload))

	data, err := ev.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"eventType":"DraftStarted"`)
	assert.Contains(t, string(data), `"draftId":"`+draftID.String()+`"`)

	_, err = NewEvent(draftID, "Bad", make(chan int))
	assert.Error(t, err)
}

func TestRetryPublisher_RetriesUntilSuccess(t *testing.T) {
	inner := &flakyPublisher{failures: 2}
	metrics := NewCounterMetrics()
	p := NewRetryPublisher(inner, metrics, RetryConfig{MaxRetries: 3, RetryDelay: time.Millisecond})

	ev, err := NewEvent(uuid.New(), "DraftEnded", struct{}{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), ev))

	assert.Equal(t, 3, inner.calls)
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(3), snap["attempts"])
	assert.Equal(t, uint64(1), snap["published"].(map[string]uint64)["DraftEnded"])
}

func TestRetryPublisher_GivesUp(t *testing.T) {
	inner := &flakyPublisher{failures: 10}
	metrics := NewCounterMetrics()
	p := NewRetryPublisher(inner, metrics, RetryConfig{MaxRetries: 1, RetryDelay: time.Millisecond})

	ev, err := NewEvent(uuid.New(), "PickStarted", struct{}{})
	require.NoError(t, err)

	err = p.Publish(context.Background(), ev)
	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, 2, pubErr.Attempts)
	assert.Equal(t, uint64(1), metrics.Snapshot()["failed"].(map[string]uint64)["PickStarted"])
}

func TestRetryPublisher_StopsOnCancel(t *testing.T) {
	inner := &flakyPublisher{failures: 10}
	p := NewRetryPublisher(inner, nil, RetryConfig{MaxRetries: 5, RetryDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev, err := NewEvent(uuid.New(), "PickStarted", struct{}{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(ctx, ev), context.Canceled)
}

func TestLogPublisher(t *testing.T) {
	ev, err := NewEvent(uuid.New(), "DraftStarted", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.NoError(t, NewLogPublisher().Publish(context.Background(), ev))
}

func TestFanoutPublisher(t *testing.T) {
	ok := &flakyPublisher{}
	failing := &flakyPublisher{failures: 10}
	event, err := NewEvent(uuid.New(), "DraftEnded", map[string]bool{"aborted": true})
	require.NoError(t, err)

	err = FanoutPublisher{ok, failing}.Publish(context.Background(), event)
	assert.Error(t, err)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls, "every publisher is tried")
}

type stubStream struct{ up bool }

func (s stubStream) Connected() bool { return s.up }

func TestPublisherHealthChecker(t *testing.T) {
	metrics := NewCounterMetrics()
	metrics.RecordEventPublished("DraftStarted", true, time.Millisecond)
	metrics.RecordEventPublished("DraftEnded", true, time.Millisecond)
	metrics.RecordEventPublished("DraftEnded", false, time.Millisecond)

	status := NewPublisherHealthChecker(nil, metrics).Check(context.Background())
	assert.True(t, status.Healthy)
	assert.False(t, status.NATSEnabled)
	assert.Equal(t, uint64(2), status.EventsPublished)
	assert.Equal(t, uint64(1), status.EventsFailed)

	down := NewPublisherHealthChecker(stubStream{}, metrics)
	status = down.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Errors, "NATS disconnected")

	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	out := NewPrometheusExporter(NewPublisherHealthChecker(stubStream{up: true}, metrics)).Export(context.Background())
	assert.Contains(t, out, "draft_events_published_total 2")
	assert.Contains(t, out, "draft_events_nats_connected 1")
}
