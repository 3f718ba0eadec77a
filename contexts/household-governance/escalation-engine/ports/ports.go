package ports

import (
	"context"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts id generation for counters, ledger entries and notifications.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// SubjectRegistry resolves subjects and the people of their family.
type SubjectRegistry interface {
	GetMember(ctx context.Context, familyID string, memberID string) (entities.Member, error)
	GetHolding(ctx context.Context, kind entities.SubjectKind, familyID string, holdingID string) (entities.Holding, error)
	ListFamilyMembers(ctx context.Context, familyID string) ([]entities.Member, error)
	ListFamilyRoles(ctx context.Context, familyID string) ([]entities.FamilyRole, error)
}

// CounterStore persists one counter per pending decision.
type CounterStore interface {
	// LockSubject blocks until the caller holds the subject's row lock for
	// the rest of the transaction.
	LockSubject(ctx context.Context, subject entities.SubjectRef) error
	GetCounter(ctx context.Context, counterID string) (entities.Counter, error)
	GetPendingCounter(ctx context.Context, workflow entities.WorkflowKind, subject entities.SubjectRef) (entities.Counter, bool, error)
	ListPendingCounters(ctx context.Context, workflow entities.WorkflowKind, subject entities.SubjectRef) ([]entities.Counter, error)
	SaveCounter(ctx context.Context, counter entities.Counter) error
}

// Ledger records the individual actions behind a counter.
type Ledger interface {
	GetVote(ctx context.Context, counterID string, participantID string) (entities.LedgerEntry, bool, error)
	SaveEntry(ctx context.Context, entry entities.LedgerEntry) error
	ListEntries(ctx context.Context, counterID string) ([]entities.LedgerEntry, error)
}

// MutationTargets are the domain records changed when a decision resolves.
type MutationTargets interface {
	SaveMember(ctx context.Context, member entities.Member) error
	SaveHolding(ctx context.Context, holding entities.Holding) error
	ListLockedHoldingsByOwner(ctx context.Context, familyID string, memberID string) ([]entities.Holding, error)
	UpsertFamilyRole(ctx context.Context, role entities.FamilyRole) error
	// ForceFamilyRole rewrites the role row bypassing upsert semantics.
	ForceFamilyRole(ctx context.Context, role entities.FamilyRole) error
}

// Acknowledgements tracks administrators that have seen a pending counter.
type Acknowledgements interface {
	SaveAcknowledgement(ctx context.Context, ack entities.Acknowledgement) error
	// HasAcknowledged is true when any of userIDs acknowledged the counter or
	// read a notification referencing it.
	HasAcknowledged(ctx context.Context, counterID string, userIDs []string) (bool, error)
}

// TxStore is every store operation available inside one transaction.
type TxStore interface {
	SubjectRegistry
	CounterStore
	Ledger
	MutationTargets
	Acknowledgements
}

// UnitOfWork runs fn in a single transaction. Adapters report write-write
// conflicts wrapped with txguard.ErrConflictRetryable.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
}

// CounterReader serves read-only queries outside a transaction.
type CounterReader interface {
	SubjectRegistry
	GetCounter(ctx context.Context, counterID string) (entities.Counter, error)
	ListEntries(ctx context.Context, counterID string) ([]entities.LedgerEntry, error)
	ListPendingCountersByFamily(ctx context.Context, familyID string) ([]entities.Counter, error)
}

// RoleReader looks up a single role assignment.
type RoleReader interface {
	GetFamilyRole(ctx context.Context, familyID string, userID string) (entities.FamilyRole, bool, error)
}

// RoleCache stores role lookups with TTL semantics. An empty role is a cached
// "no role" answer.
type RoleCache interface {
	Get(ctx context.Context, familyID string, userID string, now time.Time) (entities.Role, bool, error)
	Set(ctx context.Context, familyID string, userID string, role entities.Role, expiresAt time.Time) error
	Invalidate(ctx context.Context, familyID string, userID string) error
}

// Notifier delivers a notification. Delivery is fire-and-forget for the engine.
type Notifier interface {
	Notify(ctx context.Context, notification entities.Notification) error
}

// Inbox reads and marks a user's delivered notifications. Reading a
// notification that references a counter counts as acknowledging it.
type Inbox interface {
	ListNotifications(ctx context.Context, userID string) ([]entities.Notification, error)
	MarkNotificationRead(ctx context.Context, userID string, counterID string, readAt time.Time) (int64, error)
}

// FieldSealer opens sensitive fields sealed while a holding was locked.
type FieldSealer interface {
	Open(ctx context.Context, tenantID string, sealed []byte) ([]byte, error)
}

// Metrics receives engine observations.
type Metrics interface {
	ObserveRetry(workflow string)
	ObserveResolution(workflow string, status string)
	ObserveCooldownBlock(workflow string)
}
