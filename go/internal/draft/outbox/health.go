package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy         bool
	NATSEnabled     bool
	NATSConnected   bool
	EventsPublished uint64
	EventsFailed    uint64
	LastEventTime   time.Time
	Errors          []string
}

type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// Connectivity reports whether a stream connection is up
type Connectivity interface {
	Connected() bool
}

// PublisherHealthChecker reports on the event publishing path. A nil stream
// means events are not sent to NATS.
type PublisherHealthChecker struct {
	stream  Connectivity
	metrics *CounterMetrics
}

func NewPublisherHealthChecker(stream Connectivity, metrics *CounterMetrics) *PublisherHealthChecker {
	return &PublisherHealthChecker{stream: stream, metrics: metrics}
}

func (h *PublisherHealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.metrics != nil {
		status.EventsPublished, status.EventsFailed, status.LastEventTime = h.metrics.Totals()
	}

	if h.stream != nil {
		status.NATSEnabled = true
		status.NATSConnected = h.stream.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if status.EventsFailed > 0 && status.EventsFailed >= status.EventsPublished {
		status.Errors = append(status.Errors, fmt.Sprintf("%d events failed to publish", status.EventsFailed))
	}
	return status
}

// HTTP handler helper
func (h *PublisherHealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)
	response := map[string]interface{}{
		"healthy":          status.Healthy,
		"nats_enabled":     status.NATSEnabled,
		"nats_connected":   status.NATSConnected,
		"events_published": status.EventsPublished,
		"events_failed":    status.EventsFailed,
		"last_event_time":  status.LastEventTime,
		"errors":           status.Errors,
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("failed to encode health response")
	}
}

// Metrics exporter for Prometheus
type PrometheusExporter struct {
	checker HealthChecker
}

func NewPrometheusExporter(checker HealthChecker) *PrometheusExporter {
	return &PrometheusExporter{checker: checker}
}

func (e *PrometheusExporter) Export(ctx context.Context) string {
	status := e.checker.Check(ctx)

	var lastEvent int64
	if !status.LastEventTime.IsZero() {
		lastEvent = status.LastEventTime.Unix()
	}

	return fmt.Sprintf(`# HELP draft_events_healthy Whether event publishing is healthy
# TYPE draft_events_healthy gauge
draft_events_healthy %d

# HELP draft_events_published_total Total number of draft events published
# TYPE draft_events_published_total counter
draft_events_published_total %d

# HELP draft_events_failed_total Total number of draft events that could not be published
# TYPE draft_events_failed_total counter
draft_events_failed_total %d

# HELP draft_events_nats_connected Whether NATS is connected
# TYPE draft_events_nats_connected gauge
draft_events_nats_connected %d

# HELP draft_events_last_event_timestamp Unix timestamp of the last published event
# TYPE draft_events_last_event_timestamp gauge
draft_events_last_event_timestamp %d
`,
		boolGauge(status.Healthy),
		status.EventsPublished,
		status.EventsFailed,
		boolGauge(status.NATSConnected),
		lastEvent,
	)
}

// ServeHTTP writes the metrics in the Prometheus text format
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := w.Write([]byte(e.Export(r.Context()))); err != nil {
		log.Error().Err(err).Msg("failed to write metrics")
	}
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}
