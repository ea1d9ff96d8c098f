package main

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/boosterdraft/go/internal/config"
	"github.com/mcdev12/boosterdraft/go/internal/draft/outbox"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	services.Gateway.RegisterRoutes(mux)
	setupHealthCheck(mux)
	setupStats(mux, services)
	setupEventHealth(mux, services)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func setupStats(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := map[string]interface{}{
			"gateway":      services.Gateway.GetStats(),
			"events":       services.Metrics.Snapshot(),
			"live_drafts":  services.Drafts.Count(),
			"nats_enabled": services.jetStream != nil,
		}
		if services.jetStream != nil {
			stats["nats_connected"] = services.jetStream.Connected()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Error().Err(err).Msg("failed to encode stats response")
		}
	})
}

func setupEventHealth(mux *http.ServeMux, services *Services) {
	var stream outbox.Connectivity
	if services.jetStream != nil {
		stream = services.jetStream
	}
	checker := outbox.NewPublisherHealthChecker(stream, services.Metrics)
	mux.Handle("GET /health/events", checker)
	mux.Handle("GET /metrics", outbox.NewPrometheusExporter(checker))
}
