package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from an optional YAML
// file and are then overridden by environment variables.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
		Consumer      string `yaml:"consumer"`
	} `yaml:"nats"`

	Draft struct {
		Workers         int           `yaml:"workers"`
		QueueSize       int           `yaml:"queue_size"`
		Boosters        int           `yaml:"boosters"`
		CardsPerBooster int           `yaml:"cards_per_booster"`
		PickTimeout     time.Duration `yaml:"pick_timeout"`
		CardPool        string        `yaml:"card_pool"`
	} `yaml:"draft"`

	Gateway struct {
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxMessageSize int64         `yaml:"max_message_size"`
	} `yaml:"gateway"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	c := &Config{}
	c.HTTP.Addr = ":8080"
	c.Log.Level = "info"
	c.Log.Pretty = true
	c.NATS.URL = "nats://127.0.0.1:4222"
	c.NATS.Stream = "DRAFT_EVENTS"
	c.NATS.SubjectPrefix = "draft.events"
	c.NATS.Consumer = "draft-gateway"
	c.Draft.Workers = 4
	c.Draft.QueueSize = 256
	c.Draft.Boosters = 3
	c.Draft.CardsPerBooster = 15
	c.Draft.PickTimeout = 75 * time.Second
	c.Gateway.WriteTimeout = 10 * time.Second
	c.Gateway.ReadTimeout = 60 * time.Second
	c.Gateway.PingInterval = 30 * time.Second
	c.Gateway.MaxMessageSize = 4096
	return c
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	if port := os.Getenv("PORT"); port != "" {
		c.HTTP.Addr = ":" + port
	}
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)

	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Stream = getEnv("NATS_STREAM", c.NATS.Stream)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.NATS.Consumer = getEnv("NATS_CONSUMER", c.NATS.Consumer)

	c.Draft.Workers = getEnvAsInt("DRAFT_WORKERS", c.Draft.Workers)
	c.Draft.QueueSize = getEnvAsInt("DRAFT_QUEUE_SIZE", c.Draft.QueueSize)
	c.Draft.Boosters = getEnvAsInt("DRAFT_BOOSTERS", c.Draft.Boosters)
	c.Draft.CardsPerBooster = getEnvAsInt("DRAFT_CARDS_PER_BOOSTER", c.Draft.CardsPerBooster)
	c.Draft.PickTimeout = getEnvAsDuration("DRAFT_PICK_TIMEOUT", c.Draft.PickTimeout)
	c.Draft.CardPool = getEnv("DRAFT_CARD_POOL", c.Draft.CardPool)

	c.Gateway.WriteTimeout = getEnvAsDuration("GATEWAY_WRITE_TIMEOUT", c.Gateway.WriteTimeout)
	c.Gateway.ReadTimeout = getEnvAsDuration("GATEWAY_READ_TIMEOUT", c.Gateway.ReadTimeout)
	c.Gateway.PingInterval = getEnvAsDuration("GATEWAY_PING_INTERVAL", c.Gateway.PingInterval)
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return errors.New("http.addr is required")
	case c.Draft.Workers <= 0:
		return fmt.Errorf("draft.workers must be positive, got %d", c.Draft.Workers)
	case c.Draft.Boosters <= 0 || c.Draft.CardsPerBooster <= 0:
		return errors.New("draft.boosters and draft.cards_per_booster must be positive")
	case c.Draft.PickTimeout <= 0:
		return errors.New("draft.pick_timeout must be positive")
	case c.Gateway.PingInterval >= c.Gateway.ReadTimeout:
		return errors.New("gateway.ping_interval must be shorter than gateway.read_timeout")
	case c.NATS.Enabled && c.NATS.URL == "":
		return errors.New("nats.url is required when nats is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
