package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/boosterdraft/go/internal/config"
	"github.com/mcdev12/boosterdraft/go/internal/draft"
	"github.com/mcdev12/boosterdraft/go/internal/draft/booster"
	"github.com/mcdev12/boosterdraft/go/internal/draft/controller"
	"github.com/mcdev12/boosterdraft/go/internal/draft/gateway"
	"github.com/mcdev12/boosterdraft/go/internal/draft/manager"
	"github.com/mcdev12/boosterdraft/go/internal/draft/outbox"
	"github.com/mcdev12/boosterdraft/go/internal/draft/worker"
	"github.com/mcdev12/boosterdraft/go/internal/table"
	"github.com/mcdev12/boosterdraft/go/internal/users"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Users   *users.App
	Tables  *table.Manager
	Drafts  *manager.Manager
	Draft   *draft.App
	Gateway *gateway.Service
	Pool    *worker.Pool
	Metrics *outbox.CounterMetrics

	jetStream *outbox.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Connections → Publisher → Draft manager → App → Gateway

	connCfg := gateway.DefaultConnectionConfig()
	connCfg.WriteTimeout = cfg.Gateway.WriteTimeout
	connCfg.ReadTimeout = cfg.Gateway.ReadTimeout
	connCfg.PingInterval = cfg.Gateway.PingInterval
	connCfg.MaxMessageSize = cfg.Gateway.MaxMessageSize
	connections := gateway.NewConnectionManager(connCfg)

	s := &Services{
		Users:   users.NewApp(users.NewMemoryRepository()),
		Tables:  table.NewManager(),
		Pool:    worker.NewPool(cfg.Draft.Workers, cfg.Draft.QueueSize),
		Metrics: outbox.NewCounterMetrics(),
	}
	// stopped by Close, after the live drafts were aborted
	s.Pool.Start(context.Background())

	var sink outbox.Publisher
	if cfg.NATS.Enabled {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.Stream
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		js, err := outbox.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			s.Pool.Stop()
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		s.jetStream = js
		sink = js
	} else {
		sink = outbox.FanoutPublisher{outbox.NewLogPublisher(), gateway.NewBroadcastPublisher(connections)}
	}
	publisher := outbox.NewRetryPublisher(sink, s.Metrics, outbox.DefaultRetryConfig())

	s.Drafts = manager.NewManager(controller.Deps{
		Users:     s.Users,
		Client:    gateway.NewClient(connections),
		Tables:    s.Tables,
		Executor:  s.Pool,
		Publisher: publisher,
	})

	pool, err := loadCardPool(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	boosterCfg := booster.DefaultConfig()
	boosterCfg.Boosters = cfg.Draft.Boosters
	boosterCfg.CardsPerBooster = cfg.Draft.CardsPerBooster
	boosterCfg.PickTimeout = cfg.Draft.PickTimeout
	s.Draft = draft.NewApp(s.Users, s.Tables, s.Drafts, pool, boosterCfg, nil)

	gwCfg := gateway.DefaultConfig()
	gwCfg.ConnectionConfig = connCfg
	gwCfg.ConsumeEvents = cfg.NATS.Enabled
	gwCfg.JetStreamConfig.URL = cfg.NATS.URL
	gwCfg.JetStreamConfig.StreamName = cfg.NATS.Stream
	gwCfg.JetStreamConfig.SubjectFilter = cfg.NATS.SubjectPrefix + ".>"
	gwCfg.JetStreamConfig.ConsumerName = cfg.NATS.Consumer

	s.Gateway, err = gateway.NewService(ctx, gwCfg, connections, gateway.Backends{
		Drafts: s.Drafts,
		State:  s.Draft,
		Tables: s.Draft,
		Users:  s.Users,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create draft gateway: %w", err)
	}
	return s, nil
}

func loadCardPool(cfg *config.Config) (*booster.Pool, error) {
	seed := time.Now().UnixNano()
	if cfg.Draft.CardPool == "" {
		return booster.DefaultPool(seed), nil
	}
	pool, err := booster.LoadPool(cfg.Draft.CardPool, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to load card pool: %w", err)
	}
	log.Info().Str("path", cfg.Draft.CardPool).Msg("loaded card pool")
	return pool, nil
}

// Close stops the background workers and the event stream connection.
func (s *Services) Close() {
	s.Pool.Stop()
	if s.jetStream != nil {
		if err := s.jetStream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close JetStream publisher")
		}
	}
}
