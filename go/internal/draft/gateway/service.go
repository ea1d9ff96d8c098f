package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Config holds configuration for the draft gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
	// ConsumeEvents broadcasts lifecycle events read from JetStream. When
	// false, events must reach the connection manager some other way.
	ConsumeEvents bool
}

// DefaultConfig returns default configuration for the draft gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// Users is what the gateway needs from the user registry
type Users interface {
	UserLookup
	UserRegistrar
}

// Backends are the draft services the gateway fronts
type Backends struct {
	Drafts DraftRouter
	State  StateProvider
	Tables TableProvider
	Users  Users
}

// Service is the draft gateway: it serves player WebSocket connections,
// routes their commands and broadcasts draft lifecycle events
type Service struct {
	config            Config
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	tableHandler      *TableHandler
	eventConsumer     *EventConsumer
}

// NewService wires the gateway around cm. The draft backends usually push
// to players through a Client built on the same cm.
func NewService(ctx context.Context, config Config, cm *ConnectionManager, backends Backends) (*Service, error) {
	cm.SetCommandHandler(NewCommandRouter(backends.Drafts, cm))

	s := &Service{
		config:            config,
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, backends.Users),
		stateHandler:      NewStateHandler(backends.State),
		tableHandler:      NewTableHandler(backends.Tables, backends.Users),
	}

	if config.ConsumeEvents {
		consumer, err := NewEventConsumer(ctx, cm, config.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}
	return s, nil
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Bool("consume_events", s.eventConsumer != nil).Msg("starting draft gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()

	log.Info().Msg("draft gateway service shutting down")
	return s.Stop()
}

// Stop gracefully shuts down the gateway service
func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	log.Info().Msg("draft gateway service stopped")
	return nil
}

// RegisterRoutes registers the gateway's HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	s.tableHandler.RegisterTableRoutes(mux)
	log.Info().Msg("draft gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "draft_gateway"
	stats["consume_events"] = s.eventConsumer != nil
	return stats
}
