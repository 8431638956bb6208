package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultTrigger is the chat command token that status queries are split on.
const DefaultTrigger = "/build"

// Config holds the chat-notification settings. It is loaded once at boot and
// never mutated afterwards; infrastructure addresses (Redis, Kafka, port)
// come from the environment instead, see GetEnv.
type Config struct {
	// URL is the chat room notification endpoint. Empty means delivery is
	// disabled and every push becomes a logged no-op.
	URL string `toml:"url"`
	// AuthToken is sent as a bearer token on outbound notifications.
	AuthToken string `toml:"auth_token"`
	// Trigger is the command token status queries are addressed to.
	Trigger string `toml:"trigger"`
}

// NotificationsEnabled reports whether an outbound endpoint is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.URL != ""
}

// Load reads the TOML config file at path. If the file does not exist it is
// created with placeholder values and the placeholder config is returned:
// the service still runs, with notifications disabled until populated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Trigger == "" {
		cfg.Trigger = DefaultTrigger
	}
	return &cfg, nil
}

func create(path string) (*Config, error) {
	cfg := &Config{Trigger: DefaultTrigger}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to create config %s: %w", path, err)
	}

	log.Printf("⚠️ Created placeholder config at %s, notifications disabled until url and auth_token are set", path)
	return cfg, nil
}

// GetEnv returns the value of an environment variable, or fallback when the
// variable is unset or empty.
func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
