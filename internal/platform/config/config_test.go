package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SERVICE_NAME", "HTTP_PORT", "LOG_LEVEL", "DB_DRIVER", "POSTGRES_DSN", "SQLITE_DSN",
	"REQUEST_COOLDOWN", "REQUEST_THRESHOLD", "ROLE_CACHE_TTL", "ROLE_CACHE_SIZE",
	"TX_MAX_ATTEMPTS", "TX_MAX_JITTER", "SEALING_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "hearth", cfg.ServiceName)
	require.Equal(t, DriverSQLite, cfg.Driver)
	require.Equal(t, 48*time.Hour, cfg.RequestCooldown)
	require.Equal(t, 3, cfg.RequestThreshold)
	require.Equal(t, 5*time.Minute, cfg.RoleCacheTTL)
	require.Equal(t, 3, cfg.TxMaxAttempts)
	require.Equal(t, 100*time.Millisecond, cfg.TxMaxJitter)
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/hearth")
	t.Setenv("REQUEST_COOLDOWN", "1h")
	t.Setenv("REQUEST_THRESHOLD", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.Driver)
	require.Equal(t, time.Hour, cfg.RequestCooldown)
	require.Equal(t, 5, cfg.RequestThreshold)
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("POSTGRES_DSN", "")
		_, err := Load()
		require.ErrorContains(t, err, "POSTGRES_DSN")
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		_, err := Load()
		require.ErrorContains(t, err, "unsupported DB_DRIVER")
	})
	t.Run("zero threshold", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("REQUEST_THRESHOLD", "0")
		_, err := Load()
		require.ErrorContains(t, err, "REQUEST_THRESHOLD")
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("REQUEST_COOLDOWN", "soon")
		_, err := Load()
		require.ErrorContains(t, err, "parse env")
	})
}

func TestSealingKeyBytes(t *testing.T) {
	key, err := Config{}.SealingKeyBytes()
	require.NoError(t, err)
	require.Nil(t, key)

	key, err = Config{SealingKey: strings.Repeat("ab", 32)}.SealingKeyBytes()
	require.NoError(t, err)
	require.Len(t, key, 32)

	_, err = Config{SealingKey: "abcd"}.SealingKeyBytes()
	require.ErrorContains(t, err, "32 bytes")

	_, err = Config{SealingKey: "zz"}.SealingKeyBytes()
	require.ErrorContains(t, err, "decode SEALING_KEY")
}
