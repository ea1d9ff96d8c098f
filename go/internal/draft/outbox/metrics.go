package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MetricsCollector defines the interface for collecting publish metrics
type MetricsCollector interface {
	RecordPublishAttempt(eventType string, attempt int, success bool)
	RecordEventPublished(eventType string, success bool, duration time.Duration)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordPublishAttempt(eventType string, attempt int, success bool)           {}
func (NoOpMetricsCollector) RecordEventPublished(eventType string, success bool, duration time.Duration) {}

// CounterMetrics keeps in-process counters, exposed on the stats endpoint
type CounterMetrics struct {
	mu        sync.Mutex
	published map[string]uint64
	failed    map[string]uint64
	attempts  uint64
	lastEvent time.Time
}

func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{
		published: make(map[string]uint64),
		failed:    make(map[string]uint64),
	}
}

func (m *CounterMetrics) RecordPublishAttempt(eventType string, attempt int, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
}

func (m *CounterMetrics) RecordEventPublished(eventType string, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.published[eventType]++
		m.lastEvent = time.Now()
		return
	}
	m.failed[eventType]++
}

// Snapshot returns the counters as a JSON-friendly map
func (m *CounterMetrics) Snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	published := make(map[string]uint64, len(m.published))
	for k, v := range m.published {
		published[k] = v
	}
	failed := make(map[string]uint64, len(m.failed))
	for k, v := range m.failed {
		failed[k] = v
	}
	return map[string]interface{}{
		"published":     published,
		"failed":        failed,
		"attempts":      m.attempts,
		"last_event_at": m.lastEvent,
	}
}

// Totals sums the counters over every event type.
func (m *CounterMetrics) Totals() (published, failed uint64, lastEvent time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.published {
		published += v
	}
	for _, v := range m.failed {
		failed += v
	}
	return published, failed, m.lastEvent
}

// RetryConfig controls how often a failed publish is retried
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelay: 200 * time.Millisecond,
	}
}

// RetryPublisher wraps a Publisher with linear-backoff retries and metrics collection
type RetryPublisher struct {
	publisher Publisher
	metrics   MetricsCollector
	cfg       RetryConfig
}

func NewRetryPublisher(publisher Publisher, metrics MetricsCollector, cfg RetryConfig) *RetryPublisher {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &RetryPublisher{
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Publish attempts to publish an event with the configured retry delay and max retries.
func (p *RetryPublisher) Publish(ctx context.Context, event Event) error {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				p.metrics.RecordEventPublished(event.EventType, false, time.Since(start))
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := p.publisher.Publish(ctx, event)
		p.metrics.RecordPublishAttempt(event.EventType, attempt+1, err == nil)
		if err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		p.metrics.RecordEventPublished(event.EventType, true, time.Since(start))
		return nil
	}

	p.metrics.RecordEventPublished(event.EventType, false, time.Since(start))
	return &PublishError{Attempts: p.cfg.MaxRetries + 1, Err: lastErr}
}

// PublishError is returned once all publish attempts are exhausted
type PublishError struct {
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
