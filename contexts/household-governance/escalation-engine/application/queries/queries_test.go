package queries

import (
	"context"
	"testing"
	"time"

	"hearth/contexts/household-governance/escalation-engine/adapters/cache"
	"hearth/contexts/household-governance/escalation-engine/adapters/memory"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(epoch)
	for _, member := range []entities.Member{
		{MemberID: "m-alice", UserID: "alice"},
		{MemberID: "m-bob", UserID: "bob"},
		{MemberID: "m-carol", UserID: "carol", IsDeceasedPending: true},
	} {
		member.FamilyID = "fam-1"
		member.TenantID = "tenant-1"
		store.PutMember(member)
	}
	store.PutRole(entities.FamilyRole{FamilyID: "fam-1", TenantID: "tenant-1", UserID: "alice", Role: entities.RoleOwner})
	return store
}

func openCounter(t *testing.T, store *memory.Store, counter entities.Counter, entries ...entities.LedgerEntry) {
	t.Helper()
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx ports.TxStore) error {
		if err := tx.SaveCounter(ctx, counter); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := tx.SaveEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestCounterStatusReportsVoteQuorum(t *testing.T) {
	store := seededStore(t)
	openCounter(t, store, entities.Counter{
		CounterID: "counter-vote",
		Workflow:  entities.WorkflowDeceasedVote,
		Subject:   entities.SubjectRef{Kind: entities.SubjectKindMember, ID: "m-carol", FamilyID: "fam-1", TenantID: "tenant-1"},
		OpenedBy:  "alice",
		Count:     1,
		Status:    entities.CounterStatusPending,
		CreatedAt: epoch,
	},
		entities.LedgerEntry{EntryID: "e-1", CounterID: "counter-vote", ParticipantID: "alice", Action: entities.LedgerActionVote, Status: entities.BallotApproved, CreatedAt: epoch},
		entities.LedgerEntry{EntryID: "e-2", CounterID: "counter-vote", ParticipantID: "bob", Action: entities.LedgerActionVote, Status: entities.BallotPending, CreatedAt: epoch},
	)
	openCounter(t, store, entities.Counter{
		CounterID: "counter-role",
		Workflow:  entities.WorkflowRolePromotion,
		Subject:   entities.SubjectRef{Kind: entities.SubjectKindRoleRequest, ID: "bob", FamilyID: "fam-1", TenantID: "tenant-1"},
		OpenedBy:  "bob",
		Count:     1,
		Status:    entities.CounterStatusPending,
		CreatedAt: epoch.Add(time.Minute),
	})

	queries := CounterQueryUseCase{Counters: store, Policies: services.DefaultPolicies()}

	view, err := queries.CounterStatus(context.Background(), "fam-1", "counter-vote")
	require.NoError(t, err)
	require.Equal(t, 2, view.Required)
	require.Equal(t, entities.Tally{Approved: 1, Pending: 1}, view.Tally)
	require.Len(t, view.Entries, 2)

	pending, err := queries.PendingCounters(context.Background(), "fam-1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "counter-vote", pending[0].Counter.CounterID)
	require.Equal(t, services.DefaultRequestThreshold, pending[1].Required)

	_, err = queries.CounterStatus(context.Background(), "fam-2", "counter-vote")
	require.ErrorIs(t, err, domainerrors.ErrCounterNotFound)
	_, err = queries.CounterStatus(context.Background(), "fam-1", "missing")
	require.ErrorIs(t, err, domainerrors.ErrCounterNotFound)
	_, err = queries.CounterStatus(context.Background(), "fam-1", " ")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
	_, err = queries.PendingCounters(context.Background(), "")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestRoleLookupCachesUntilTTL(t *testing.T) {
	store := seededStore(t)
	roleCache, err := cache.NewRoleCache(8)
	require.NoError(t, err)
	lookup := RoleLookupUseCase{Roles: store, Cache: roleCache, Clock: store, TTL: time.Minute}
	ctx := context.Background()

	first, err := lookup.RoleOf(ctx, "fam-1", "alice")
	require.NoError(t, err)
	require.Equal(t, entities.RoleOwner, first.Role)
	require.False(t, first.CacheHit)

	store.PutRole(entities.FamilyRole{FamilyID: "fam-1", UserID: "alice", Role: entities.RoleAdmin})
	cached, err := lookup.RoleOf(ctx, "fam-1", "alice")
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Equal(t, entities.RoleOwner, cached.Role)

	store.Advance(time.Minute)
	fresh, err := lookup.RoleOf(ctx, "fam-1", "alice")
	require.NoError(t, err)
	require.False(t, fresh.CacheHit)
	require.Equal(t, entities.RoleAdmin, fresh.Role)

	none, err := lookup.RoleOf(ctx, "fam-1", "bob")
	require.NoError(t, err)
	require.Empty(t, none.Role)
	none, err = lookup.RoleOf(ctx, "fam-1", "bob")
	require.NoError(t, err)
	require.True(t, none.CacheHit)

	_, err = lookup.RoleOf(ctx, "fam-1", "")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestInboxListsAndMarksRead(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	for i, counterID := range []string{"counter-1", "counter-2", "counter-1"} {
		require.NoError(t, store.Notify(ctx, entities.Notification{
			UserID:    "alice",
			Type:      entities.NotificationRolePromotionRequest,
			CounterID: counterID,
			CreatedAt: epoch.Add(time.Duration(i) * time.Minute),
		}))
	}
	inbox := InboxUseCase{Inbox: store, Clock: store}

	items, err := inbox.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, epoch.Add(2*time.Minute), items[0].CreatedAt)

	marked, err := inbox.MarkRead(ctx, "alice", "counter-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), marked)
	marked, err = inbox.MarkRead(ctx, "alice", "counter-1")
	require.NoError(t, err)
	require.Zero(t, marked)

	items, err = inbox.List(ctx, "alice")
	require.NoError(t, err)
	for _, item := range items {
		if item.CounterID == "counter-1" {
			require.NotNil(t, item.ReadAt)
			require.Equal(t, epoch, *item.ReadAt)
		} else {
			require.Nil(t, item.ReadAt)
		}
	}

	empty, err := inbox.List(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = inbox.MarkRead(ctx, "alice", "")
	requireField(t, err, "counter_id")
	_, err = inbox.List(ctx, " ")
	requireField(t, err, "user_id")
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	validation, ok := domainerrors.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, field, validation.Field)
}
