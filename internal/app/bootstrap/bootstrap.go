package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	escalationengine "hearth/contexts/household-governance/escalation-engine"
	"hearth/contexts/household-governance/escalation-engine/adapters/cache"
	"hearth/contexts/household-governance/escalation-engine/adapters/metrics"
	postgresadapter "hearth/contexts/household-governance/escalation-engine/adapters/postgres"
	"hearth/contexts/household-governance/escalation-engine/adapters/sealing"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
	"hearth/internal/platform/config"
	"hearth/internal/platform/db"
	"hearth/internal/platform/httpserver"
	"hearth/internal/platform/txguard"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type App struct {
	Config     config.Config
	Module     escalationengine.Module
	Repository *postgresadapter.Repository
	Registry   *prometheus.Registry

	database *db.Database
	sealer   *sealing.XChaCha
	logger   *slog.Logger
}

// NewLogger returns the process logger: JSON to stderr at the configured level.
func NewLogger(cfg config.Config, process string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	return slog.New(handler).With("service", cfg.ServiceName, "process", process)
}

func Build(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsn := cfg.PostgresDSN
	if cfg.Driver == config.DriverSQLite {
		dsn = cfg.SQLiteDSN
	}
	database, err := db.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	roleCache, err := cache.NewRoleCache(cfg.RoleCacheSize)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("build role cache: %w", err)
	}

	key, err := cfg.SealingKeyBytes()
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	var sealer ports.FieldSealer = sealing.Unsealed{}
	var xchacha *sealing.XChaCha
	if key != nil {
		xchacha, err = sealing.NewXChaCha(key)
		if err != nil {
			_ = database.Close()
			return nil, err
		}
		sealer = xchacha
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo := postgresadapter.NewRepository(database.DB, logger)
	module := escalationengine.NewModule(escalationengine.Dependencies{
		UnitOfWork: repo,
		Counters:   repo,
		Roles:      repo,
		Notifier:   repo,
		Inbox:      repo,
		RoleCache:  roleCache,
		Sealer:     sealer,
		Metrics:    metrics.NewPrometheus(registry),
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
		Policies:   services.NewPolicies(cfg.RequestCooldown, cfg.RequestThreshold),
		Guard: txguard.Guard{
			MaxAttempts: cfg.TxMaxAttempts,
			MaxJitter:   cfg.TxMaxJitter,
		},
		RoleCacheTTL: cfg.RoleCacheTTL,
		Logger:       logger,
	})

	logger.Info("escalation engine wired",
		"event", "bootstrap_wired",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"driver", database.Driver,
		"sealing", xchacha != nil,
	)
	return &App{
		Config:     cfg,
		Module:     module,
		Repository: repo,
		Registry:   registry,
		database:   database,
		sealer:     xchacha,
		logger:     logger,
	}, nil
}

func (a *App) Migrate(ctx context.Context) error {
	if err := a.Repository.Migrate(ctx); err != nil {
		return err
	}
	a.logger.Info("schema migrated",
		"event", "bootstrap_migrated",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"driver", a.database.Driver,
	)
	return nil
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	server := httpserver.New(a.Module, a.Registry, a.logger, normalizeAddr(a.Config.HTTPPort))
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return server.Run(ctx)
}

func (a *App) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
