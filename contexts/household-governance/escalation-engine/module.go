package escalationengine

import (
	"log/slog"
	"time"

	"hearth/contexts/household-governance/escalation-engine/adapters/cache"
	httpadapter "hearth/contexts/household-governance/escalation-engine/adapters/http"
	"hearth/contexts/household-governance/escalation-engine/adapters/memory"
	"hearth/contexts/household-governance/escalation-engine/adapters/sealing"
	"hearth/contexts/household-governance/escalation-engine/application/commands"
	"hearth/contexts/household-governance/escalation-engine/application/queries"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
	"hearth/internal/platform/txguard"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	UnitOfWork   ports.UnitOfWork
	Counters     ports.CounterReader
	Roles        ports.RoleReader
	Notifier     ports.Notifier
	Inbox        ports.Inbox
	RoleCache    ports.RoleCache
	Sealer       ports.FieldSealer
	Metrics      ports.Metrics
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Policies     services.Policies
	Guard        txguard.Guard
	RoleCacheTTL time.Duration
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	policies := deps.Policies
	if policies == nil {
		policies = services.DefaultPolicies()
	}
	escalations := commands.EscalationUseCase{
		UnitOfWork: deps.UnitOfWork,
		Policies:   policies,
		Guard:      deps.Guard,
		Notifier:   deps.Notifier,
		RoleCache:  deps.RoleCache,
		Sealer:     deps.Sealer,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Escalations: escalations,
			Counters: queries.CounterQueryUseCase{
				Counters: deps.Counters,
				Policies: policies,
				Logger:   deps.Logger,
			},
			Roles: queries.RoleLookupUseCase{
				Roles:  deps.Roles,
				Cache:  deps.RoleCache,
				Clock:  deps.Clock,
				TTL:    deps.RoleCacheTTL,
				Logger: deps.Logger,
			},
			Inbox: queries.InboxUseCase{
				Inbox:  deps.Inbox,
				Clock:  deps.Clock,
				Logger: deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine to the in-memory store with default
// policies. Callers seed families through Module.Store.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	roleCache, err := cache.NewRoleCache(cache.DefaultSize)
	if err != nil {
		panic(err)
	}
	module := NewModule(Dependencies{
		UnitOfWork:   store,
		Counters:     store,
		Roles:        store,
		Notifier:     store,
		Inbox:        store,
		RoleCache:    roleCache,
		Sealer:       sealing.Unsealed{},
		Clock:        store,
		IDGen:        store,
		RoleCacheTTL: 5 * time.Minute,
		Logger:       logger,
	})
	module.Store = store
	return module
}
