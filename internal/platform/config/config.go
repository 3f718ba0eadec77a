package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"hearth"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Driver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLiteDSN   string `env:"SQLITE_DSN" envDefault:"file::memory:?cache=shared"`

	RequestCooldown  time.Duration `env:"REQUEST_COOLDOWN" envDefault:"48h"`
	RequestThreshold int           `env:"REQUEST_THRESHOLD" envDefault:"3"`

	RoleCacheTTL  time.Duration `env:"ROLE_CACHE_TTL" envDefault:"5m"`
	RoleCacheSize int           `env:"ROLE_CACHE_SIZE" envDefault:"4096"`

	TxMaxAttempts int           `env:"TX_MAX_ATTEMPTS" envDefault:"3"`
	TxMaxJitter   time.Duration `env:"TX_MAX_JITTER" envDefault:"100ms"`

	// SealingKey is a hex encoded 32 byte master key. Empty disables sealing.
	SealingKey string `env:"SEALING_KEY"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required for the postgres driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			return errors.New("SQLITE_DSN is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
	if c.RequestThreshold < 1 {
		return errors.New("REQUEST_THRESHOLD must be at least 1")
	}
	if c.RequestCooldown < 0 {
		return errors.New("REQUEST_COOLDOWN must not be negative")
	}
	if c.TxMaxAttempts < 1 {
		return errors.New("TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.RoleCacheSize < 1 {
		return errors.New("ROLE_CACHE_SIZE must be at least 1")
	}
	if _, err := c.SealingKeyBytes(); err != nil {
		return err
	}
	return nil
}

// SealingKeyBytes decodes SealingKey. It returns nil when no key is set.
func (c Config) SealingKeyBytes() ([]byte, error) {
	raw := strings.TrimSpace(c.SealingKey)
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode SEALING_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("SEALING_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
