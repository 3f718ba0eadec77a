package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hearth/contexts/household-governance/escalation-engine/adapters/cache"
	"hearth/contexts/household-governance/escalation-engine/adapters/memory"
	"hearth/contexts/household-governance/escalation-engine/adapters/metrics"
	"hearth/contexts/household-governance/escalation-engine/adapters/sealing"
	"hearth/contexts/household-governance/escalation-engine/application/queries"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/internal/platform/txguard"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	familyID = "fam-1"
	tenantID = "tenant-1"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	cache   *cache.RoleCache
	metrics *metrics.Prometheus
	engine  EscalationUseCase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(epoch)
	roleCache, err := cache.NewRoleCache(16)
	require.NoError(t, err)
	observed := metrics.NewPrometheus(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		store:   store,
		cache:   roleCache,
		metrics: observed,
		engine: EscalationUseCase{
			UnitOfWork: store,
			Policies:   services.DefaultPolicies(),
			Guard:      txguard.Guard{MaxJitter: time.Millisecond},
			Notifier:   store,
			RoleCache:  roleCache,
			Sealer:     sealing.Unsealed{},
			Metrics:    observed,
			Clock:      store,
			IDGen:      store,
			Logger:     logger,
		},
	}
}

func (f fixture) member(memberID string, userID string, deceased bool) {
	f.store.PutMember(entities.Member{
		MemberID:   memberID,
		FamilyID:   familyID,
		TenantID:   tenantID,
		UserID:     userID,
		Name:       memberID,
		IsDeceased: deceased,
	})
}

func (f fixture) role(userID string, role entities.Role) {
	f.store.PutRole(entities.FamilyRole{FamilyID: familyID, TenantID: tenantID, UserID: userID, Role: role})
}

func (f fixture) holding(kind entities.SubjectKind, holdingID string, ownerMemberID string) {
	f.store.PutHolding(entities.Holding{
		HoldingID:     holdingID,
		Kind:          kind,
		FamilyID:      familyID,
		TenantID:      tenantID,
		OwnerMemberID: ownerMemberID,
		Name:          holdingID,
		Locked:        true,
		PINHash:       "$2a$10$pin",
		SealedPayload: []byte("account 1234"),
	})
}

// voteFamily seats alice (owner), bob, carol and dan. Dan is the subject of
// the deceased vote, so three voters must all approve.
func voteFamily(t *testing.T) fixture {
	f := newFixture(t)
	f.member("m-alice", "alice", false)
	f.member("m-bob", "bob", false)
	f.member("m-carol", "carol", false)
	f.member("m-dan", "dan", false)
	f.role("alice", entities.RoleOwner)
	return f
}

// unlockFamily seats three administrators and a deceased owner of one locked
// investment and one locked asset.
func unlockFamily(t *testing.T) fixture {
	f := newFixture(t)
	f.member("m-alice", "alice", false)
	f.member("m-bob", "bob", false)
	f.member("m-carol", "carol", false)
	f.member("m-dave", "", true)
	f.member("m-erin", "erin", false)
	f.role("alice", entities.RoleOwner)
	f.role("bob", entities.RoleAdmin)
	f.role("carol", entities.RoleAdmin)
	f.role("erin", entities.RoleMember)
	f.holding(entities.SubjectKindInvestment, "inv-1", "m-dave")
	f.holding(entities.SubjectKindAsset, "asset-1", "m-dave")
	return f
}

func (f fixture) start(t *testing.T, initiator string) Outcome {
	t.Helper()
	outcome, err := f.engine.StartDeceasedVote(context.Background(), StartDeceasedVoteCommand{
		FamilyID:    familyID,
		MemberID:    "m-dan",
		InitiatorID: initiator,
	})
	require.NoError(t, err)
	return outcome
}

func (f fixture) vote(voter string, vote entities.BallotStatus) (Outcome, error) {
	return f.engine.CastVote(context.Background(), CastVoteCommand{
		FamilyID: familyID,
		MemberID: "m-dan",
		VoterID:  voter,
		Vote:     vote,
	})
}

func (f fixture) request(workflow entities.WorkflowKind, subjectID string, requester string) (Outcome, error) {
	return f.engine.CreateRequest(context.Background(), CreateRequestCommand{
		Workflow:    workflow,
		FamilyID:    familyID,
		SubjectID:   subjectID,
		RequesterID: requester,
	})
}

func (f fixture) notified(kind entities.NotificationType) []string {
	users := make([]string, 0)
	for _, notification := range f.store.Notifications() {
		if notification.Type == kind {
			users = append(users, notification.UserID)
		}
	}
	return users
}

func requireValidation(t *testing.T, err error, field string, target error) *domainerrors.ValidationError {
	t.Helper()
	require.ErrorIs(t, err, target)
	validation, ok := domainerrors.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.Equal(t, field, validation.Field)
	return validation
}

func TestDeceasedVoteApprovesOnlyAtQuorumInAnyOrder(t *testing.T) {
	orders := [][]string{
		{"bob", "carol"},
		{"carol", "bob"},
	}
	for _, order := range orders {
		t.Run(order[0]+" first", func(t *testing.T) {
			f := voteFamily(t)

			opened := f.start(t, "alice")
			require.Equal(t, 3, opened.Required)
			require.Equal(t, 1, opened.Tally.Approved)
			require.Equal(t, 2, opened.Tally.Pending)
			require.Equal(t, services.DecisionStayPending, opened.Decision)
			member, _ := f.store.Member(familyID, "m-dan")
			require.True(t, member.IsDeceasedPending)
			require.ElementsMatch(t, []string{"bob", "carol"}, f.notified(entities.NotificationDeceasedVoteRequested))

			second, err := f.vote(order[0], entities.BallotApproved)
			require.NoError(t, err)
			require.Equal(t, entities.CounterStatusPending, second.Counter.Status)
			require.Equal(t, 2, second.Counter.Count)

			final, err := f.vote(order[1], entities.BallotApproved)
			require.NoError(t, err)
			require.Equal(t, services.DecisionApprove, final.Decision)
			require.Equal(t, entities.CounterStatusApproved, final.Counter.Status)
			require.Equal(t, 3, final.Counter.Count)

			member, _ = f.store.Member(familyID, "m-dan")
			require.True(t, member.IsDeceased)
			require.False(t, member.IsDeceasedPending)
			require.NotNil(t, member.DateOfDeath)
			require.Equal(t, epoch.Truncate(24*time.Hour), *member.DateOfDeath)
			require.ElementsMatch(t, []string{"alice", "bob", "carol"}, f.notified(entities.NotificationMemberMarkedDeceased))
		})
	}
}

func TestDeceasedVoteSingleDenialEndsRound(t *testing.T) {
	cases := []struct {
		name  string
		votes []entities.BallotStatus
	}{
		{name: "denied first", votes: []entities.BallotStatus{entities.BallotDenied}},
		{name: "denied after approval", votes: []entities.BallotStatus{entities.BallotApproved, entities.BallotDenied}},
	}
	voters := []string{"bob", "carol"}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := voteFamily(t)
			f.start(t, "alice")

			var last Outcome
			for i, vote := range tc.votes {
				var err error
				last, err = f.vote(voters[i], vote)
				require.NoError(t, err)
			}
			require.Equal(t, services.DecisionDeny, last.Decision)
			require.Equal(t, entities.CounterStatusDenied, last.Counter.Status)

			member, _ := f.store.Member(familyID, "m-dan")
			require.False(t, member.IsDeceased)
			require.False(t, member.IsDeceasedPending)
			require.ElementsMatch(t, []string{"alice", "bob", "carol"}, f.notified(entities.NotificationDeceasedVoteDenied))

			_, err := f.vote("carol", entities.BallotApproved)
			requireValidation(t, err, "member_id", domainerrors.ErrSubjectNotPending)

			reopened := f.start(t, "bob")
			require.NotEqual(t, last.Counter.CounterID, reopened.Counter.CounterID)
			require.Equal(t, entities.CounterStatusPending, reopened.Counter.Status)
		})
	}
}

func TestDeceasedVoteReplayIsNoOp(t *testing.T) {
	f := voteFamily(t)
	f.start(t, "alice")

	first, err := f.vote("bob", entities.BallotApproved)
	require.NoError(t, err)
	require.False(t, first.NoOp)

	for _, vote := range []entities.BallotStatus{entities.BallotApproved, entities.BallotDenied} {
		replay, err := f.vote("bob", vote)
		require.NoError(t, err)
		require.True(t, replay.NoOp)
		require.Equal(t, first.Counter.Count, replay.Counter.Count)
		require.Equal(t, first.Counter.Status, replay.Counter.Status)
		require.Equal(t, first.Tally, replay.Tally)
	}

	initiatorReplay, err := f.vote("alice", entities.BallotApproved)
	require.NoError(t, err)
	require.True(t, initiatorReplay.NoOp)
	require.Equal(t, 2, initiatorReplay.Counter.Count)
}

func TestDeceasedVoteValidation(t *testing.T) {
	f := voteFamily(t)
	f.member("m-gone", "gone", true)

	_, err := f.vote("bob", entities.BallotApproved)
	requireValidation(t, err, "member_id", domainerrors.ErrSubjectNotPending)

	_, err = f.engine.StartDeceasedVote(context.Background(), StartDeceasedVoteCommand{
		FamilyID: familyID, MemberID: "m-dan", InitiatorID: "dan",
	})
	requireValidation(t, err, "initiator_id", domainerrors.ErrParticipantNotEligible)

	_, err = f.engine.StartDeceasedVote(context.Background(), StartDeceasedVoteCommand{
		FamilyID: familyID, MemberID: "m-gone", InitiatorID: "alice",
	})
	requireValidation(t, err, "member_id", domainerrors.ErrSubjectNotEligible)

	_, err = f.engine.StartDeceasedVote(context.Background(), StartDeceasedVoteCommand{
		FamilyID: familyID, MemberID: "m-nobody", InitiatorID: "alice",
	})
	requireValidation(t, err, "member_id", domainerrors.ErrSubjectNotFound)

	_, err = f.engine.StartDeceasedVote(context.Background(), StartDeceasedVoteCommand{FamilyID: familyID, MemberID: "m-dan"})
	requireValidation(t, err, "initiator_id", domainerrors.ErrInvalidInput)

	f.start(t, "alice")
	_, err = f.engine.StartDeceasedVote(context.Background(), StartDeceasedVoteCommand{
		FamilyID: familyID, MemberID: "m-dan", InitiatorID: "bob",
	})
	requireValidation(t, err, "member_id", domainerrors.ErrAlreadyPending)

	_, err = f.vote("dan", entities.BallotApproved)
	requireValidation(t, err, "voter_id", domainerrors.ErrParticipantNotEligible)

	_, err = f.vote("bob", entities.BallotPending)
	requireValidation(t, err, "vote", domainerrors.ErrInvalidInput)
}

func TestDeceasedVoteTwoPersonFamilyResolvesOnStart(t *testing.T) {
	f := newFixture(t)
	f.member("m-alice", "alice", false)
	f.member("m-dan", "dan", false)

	outcome := f.start(t, "alice")
	require.Equal(t, 1, outcome.Required)
	require.Equal(t, entities.CounterStatusApproved, outcome.Counter.Status)
	require.Empty(t, f.notified(entities.NotificationDeceasedVoteRequested))
}

func TestDeceasedApprovalUnlocksOwnedHoldings(t *testing.T) {
	f := voteFamily(t)
	f.holding(entities.SubjectKindInvestment, "inv-9", "m-dan")
	f.holding(entities.SubjectKindAsset, "asset-9", "m-dan")
	f.holding(entities.SubjectKindInvestment, "inv-alice", "m-alice")

	f.start(t, "alice")
	_, err := f.vote("bob", entities.BallotApproved)
	require.NoError(t, err)
	_, err = f.vote("carol", entities.BallotApproved)
	require.NoError(t, err)

	for _, ref := range []struct {
		kind entities.SubjectKind
		id   string
	}{
		{entities.SubjectKindInvestment, "inv-9"},
		{entities.SubjectKindAsset, "asset-9"},
	} {
		holding, ok := f.store.Holding(ref.kind, familyID, ref.id)
		require.True(t, ok)
		require.False(t, holding.Locked, ref.id)
		require.Empty(t, holding.PINHash)
		require.Nil(t, holding.SealedPayload)
		require.Equal(t, "account 1234", string(holding.Payload))
	}
	untouched, _ := f.store.Holding(entities.SubjectKindInvestment, familyID, "inv-alice")
	require.True(t, untouched.Locked)
}

func TestConcurrentVotesResolveExactlyOnce(t *testing.T) {
	f := voteFamily(t)
	// greg holds a role without a member record: four voters for a quorum of three.
	f.role("greg", entities.RoleAdmin)
	f.start(t, "alice")
	_, err := f.vote("bob", entities.BallotApproved)
	require.NoError(t, err)

	racers := []string{"carol", "greg"}
	errs := make([]error, len(racers))
	ready := make(chan struct{})
	var wg sync.WaitGroup
	for i, voter := range racers {
		wg.Add(1)
		go func(i int, voter string) {
			defer wg.Done()
			<-ready
			_, errs[i] = f.vote(voter, entities.BallotApproved)
		}(i, voter)
	}
	close(ready)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireValidation(t, err, "member_id", domainerrors.ErrSubjectNotPending)
	}
	require.Equal(t, 1, succeeded)

	counters := f.store.Counters(entities.WorkflowDeceasedVote, "m-dan")
	require.Len(t, counters, 1)
	require.Equal(t, entities.CounterStatusApproved, counters[0].Status)
	require.Len(t, f.notified(entities.NotificationMemberMarkedDeceased), 4)
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues("deceased_vote", "approved")))
}

func TestInvestmentUnlockScenario(t *testing.T) {
	f := unlockFamily(t)

	first, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	require.NoError(t, err)
	require.Equal(t, 1, first.Counter.Count)
	require.Equal(t, entities.CounterStatusPending, first.Counter.Status)
	require.ElementsMatch(t, []string{"bob", "carol"}, f.notified(entities.NotificationUnlockRequested))

	_, err = f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	validation := requireValidation(t, err, "subject_id", domainerrors.ErrCooldownActive)
	require.Equal(t, 2, validation.DaysRemaining)
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CooldownBlocks.WithLabelValues("investment_unlock")))

	f.store.Advance(48*time.Hour + time.Second)
	second, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "bob")
	require.NoError(t, err)
	require.Equal(t, 2, second.Counter.Count)
	require.Equal(t, first.Counter.CounterID, second.Counter.CounterID)

	f.store.Advance(48*time.Hour + time.Second)
	third, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	require.NoError(t, err)
	require.Equal(t, 3, third.Counter.Count)
	require.Equal(t, services.DecisionAutoEscalate, third.Decision)
	require.Equal(t, entities.CounterStatusAutoResolved, third.Counter.Status)

	holding, _ := f.store.Holding(entities.SubjectKindInvestment, familyID, "inv-1")
	require.False(t, holding.Locked)
	require.Empty(t, holding.PINHash)
	require.Equal(t, "account 1234", string(holding.Payload))
	require.ElementsMatch(t, []string{"alice", "bob", "carol"}, f.notified(entities.NotificationHoldingUnlocked))

	_, err = f.request(entities.WorkflowInvestmentUnlock, "inv-1", "bob")
	requireValidation(t, err, "subject_id", domainerrors.ErrSubjectNotEligible)
}

func TestUnlockRequestValidation(t *testing.T) {
	f := unlockFamily(t)
	f.holding(entities.SubjectKindInvestment, "inv-bob", "m-bob")

	_, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "erin")
	requireValidation(t, err, "requester_id", domainerrors.ErrRoleRequired)

	_, err = f.request(entities.WorkflowInvestmentUnlock, "inv-1", "stranger")
	requireValidation(t, err, "requester_id", domainerrors.ErrParticipantNotEligible)

	_, err = f.request(entities.WorkflowInvestmentUnlock, "inv-bob", "alice")
	requireValidation(t, err, "subject_id", domainerrors.ErrSubjectNotEligible)

	_, err = f.request(entities.WorkflowInvestmentUnlock, "inv-missing", "alice")
	requireValidation(t, err, "subject_id", domainerrors.ErrSubjectNotFound)

	_, err = f.request(entities.WorkflowDeceasedVote, "m-bob", "alice")
	requireValidation(t, err, "workflow", domainerrors.ErrUnknownWorkflow)

	_, err = f.request("vacation_vote", "inv-1", "alice")
	requireValidation(t, err, "workflow", domainerrors.ErrUnknownWorkflow)
}

func TestAdminDecisions(t *testing.T) {
	f := unlockFamily(t)

	opened, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	require.NoError(t, err)
	rejected, err := f.engine.RejectRequest(context.Background(), AdminDecisionCommand{
		CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "bob",
	})
	require.NoError(t, err)
	require.Equal(t, entities.CounterStatusRejected, rejected.Counter.Status)
	holding, _ := f.store.Holding(entities.SubjectKindInvestment, familyID, "inv-1")
	require.True(t, holding.Locked)
	require.ElementsMatch(t, []string{"alice", "bob", "carol"}, f.notified(entities.NotificationUnlockRejected))

	_, err = f.engine.ApproveRequest(context.Background(), AdminDecisionCommand{
		CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "bob",
	})
	requireValidation(t, err, "counter_id", domainerrors.ErrCounterResolved)

	reopened, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "carol")
	require.NoError(t, err)
	require.Equal(t, 1, reopened.Counter.Count)
	require.NotEqual(t, opened.Counter.CounterID, reopened.Counter.CounterID)

	_, err = f.engine.ApproveRequest(context.Background(), AdminDecisionCommand{
		CounterID: reopened.Counter.CounterID, FamilyID: familyID, AdminID: "erin",
	})
	requireValidation(t, err, "admin_id", domainerrors.ErrRoleRequired)

	_, err = f.engine.ApproveRequest(context.Background(), AdminDecisionCommand{
		CounterID: reopened.Counter.CounterID, FamilyID: "fam-other", AdminID: "alice",
	})
	requireValidation(t, err, "counter_id", domainerrors.ErrCounterNotFound)

	approved, err := f.engine.ApproveRequest(context.Background(), AdminDecisionCommand{
		CounterID: reopened.Counter.CounterID, FamilyID: familyID, AdminID: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, entities.CounterStatusApproved, approved.Counter.Status)
	require.Equal(t, "alice", approved.Counter.ResolvedBy)
	holding, _ = f.store.Holding(entities.SubjectKindInvestment, familyID, "inv-1")
	require.False(t, holding.Locked)
}

func TestAssetUnlockHasNoAdminOverride(t *testing.T) {
	f := unlockFamily(t)

	opened, err := f.request(entities.WorkflowAssetUnlock, "asset-1", "bob")
	require.NoError(t, err)
	_, err = f.engine.ApproveRequest(context.Background(), AdminDecisionCommand{
		CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "alice",
	})
	requireValidation(t, err, "counter_id", domainerrors.ErrOverrideNotAllowed)

	_, err = f.engine.Acknowledge(context.Background(), AcknowledgeCommand{
		CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "alice",
	})
	requireValidation(t, err, "counter_id", domainerrors.ErrAcknowledgementNotNeeded)
}

func roleFamily(t *testing.T, withAdmin bool) fixture {
	f := newFixture(t)
	f.member("m-alice", "alice", false)
	f.member("m-bob", "bob", false)
	f.role("bob", entities.RoleMember)
	if withAdmin {
		f.role("alice", entities.RoleOwner)
	}
	return f
}

func (f fixture) requestRole(t *testing.T, requester string, times int) Outcome {
	t.Helper()
	var outcome Outcome
	for i := 0; i < times; i++ {
		if i > 0 {
			f.store.Advance(48*time.Hour + time.Second)
		}
		var err error
		outcome, err = f.request(entities.WorkflowRolePromotion, "", requester)
		require.NoError(t, err)
	}
	return outcome
}

func TestRolePromotionWithoutAdminsResolvesOnFirstRequest(t *testing.T) {
	f := roleFamily(t, false)
	lookup := queries.RoleLookupUseCase{Roles: f.store, Cache: f.cache, Clock: f.store, TTL: time.Hour}

	before, err := lookup.RoleOf(context.Background(), familyID, "bob")
	require.NoError(t, err)
	require.Equal(t, entities.RoleMember, before.Role)
	cached, err := lookup.RoleOf(context.Background(), familyID, "bob")
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	outcome := f.requestRole(t, "bob", 1)
	require.Equal(t, 1, outcome.Counter.Count)
	require.Equal(t, entities.CounterStatusAutoResolved, outcome.Counter.Status)

	after, err := lookup.RoleOf(context.Background(), familyID, "bob")
	require.NoError(t, err)
	require.False(t, after.CacheHit)
	require.Equal(t, entities.RoleAdmin, after.Role)
	require.Equal(t, []string{"bob"}, f.notified(entities.NotificationRolePromoted))
}

func TestRolePromotionForcesDroppedUpsert(t *testing.T) {
	f := roleFamily(t, false)
	f.store.DropNextRoleUpserts(1)

	f.requestRole(t, "alice", 1)

	role, found, err := f.store.GetFamilyRole(context.Background(), familyID, "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entities.RoleAdmin, role.Role)
}

func TestRolePromotionAutoResolvesAtThresholdWithoutAcknowledgement(t *testing.T) {
	f := roleFamily(t, true)

	second := f.requestRole(t, "bob", 2)
	require.Equal(t, entities.CounterStatusPending, second.Counter.Status)
	require.Equal(t, 2, second.Counter.Count)

	f.store.Advance(48*time.Hour + time.Second)
	third, err := f.request(entities.WorkflowRolePromotion, "bob", "bob")
	require.NoError(t, err)
	require.Equal(t, 3, third.Counter.Count)
	require.Equal(t, entities.CounterStatusAutoResolved, third.Counter.Status)

	role, _, err := f.store.GetFamilyRole(context.Background(), familyID, "bob")
	require.NoError(t, err)
	require.Equal(t, entities.RoleAdmin, role.Role)
	require.ElementsMatch(t, []string{"alice", "bob"}, f.notified(entities.NotificationRolePromoted))
}

func TestRolePromotionWaitsForAdminOnceAcknowledged(t *testing.T) {
	t.Run("explicit acknowledgement", func(t *testing.T) {
		f := roleFamily(t, true)
		opened := f.requestRole(t, "bob", 1)

		_, err := f.engine.Acknowledge(context.Background(), AcknowledgeCommand{
			CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "alice",
		})
		require.NoError(t, err)
		require.Equal(t, []string{"bob"}, f.notified(entities.NotificationRoleRequestNoted))

		f.store.Advance(48*time.Hour + time.Second)
		third := f.requestRole(t, "bob", 2)
		require.Equal(t, 3, third.Counter.Count)
		require.Equal(t, entities.CounterStatusPending, third.Counter.Status)

		approved, err := f.engine.ApproveRequest(context.Background(), AdminDecisionCommand{
			CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "alice",
		})
		require.NoError(t, err)
		require.Equal(t, entities.CounterStatusApproved, approved.Counter.Status)
		role, _, err := f.store.GetFamilyRole(context.Background(), familyID, "bob")
		require.NoError(t, err)
		require.Equal(t, entities.RoleAdmin, role.Role)
	})

	t.Run("read notification", func(t *testing.T) {
		f := roleFamily(t, true)
		opened := f.requestRole(t, "bob", 1)

		marked, err := f.store.MarkNotificationRead(context.Background(), "alice", opened.Counter.CounterID, f.store.Now())
		require.NoError(t, err)
		require.Equal(t, int64(1), marked)

		f.store.Advance(48*time.Hour + time.Second)
		third := f.requestRole(t, "bob", 2)
		require.Equal(t, entities.CounterStatusPending, third.Counter.Status)

		rejected, err := f.engine.RejectRequest(context.Background(), AdminDecisionCommand{
			CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "alice",
		})
		require.NoError(t, err)
		require.Equal(t, entities.CounterStatusRejected, rejected.Counter.Status)
		role, _, err := f.store.GetFamilyRole(context.Background(), familyID, "bob")
		require.NoError(t, err)
		require.Equal(t, entities.RoleMember, role.Role)
	})
}

func TestRolePromotionValidation(t *testing.T) {
	f := roleFamily(t, true)

	_, err := f.request(entities.WorkflowRolePromotion, "", "alice")
	requireValidation(t, err, "requester_id", domainerrors.ErrSubjectNotEligible)

	_, err = f.request(entities.WorkflowRolePromotion, "alice", "bob")
	requireValidation(t, err, "subject_id", domainerrors.ErrInvalidInput)

	_, err = f.request(entities.WorkflowRolePromotion, "", "stranger")
	requireValidation(t, err, "requester_id", domainerrors.ErrParticipantNotEligible)

	opened := f.requestRole(t, "bob", 1)
	_, err = f.engine.Acknowledge(context.Background(), AcknowledgeCommand{
		CounterID: opened.Counter.CounterID, FamilyID: familyID, AdminID: "bob",
	})
	requireValidation(t, err, "admin_id", domainerrors.ErrRoleRequired)
}

func TestConflictsAreRetried(t *testing.T) {
	f := unlockFamily(t)
	f.store.FailNextCommits(2)

	outcome, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Counter.Count)

	counters := f.store.Counters(entities.WorkflowInvestmentUnlock, "inv-1")
	require.Len(t, counters, 1)
	require.Equal(t, 1, counters[0].Count)
	require.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Retries.WithLabelValues("investment_unlock")))
	require.ElementsMatch(t, []string{"bob", "carol"}, f.notified(entities.NotificationUnlockRequested))
}

func TestConflictsSurfaceAfterRetriesExhausted(t *testing.T) {
	f := unlockFamily(t)
	f.store.FailNextCommits(txguard.DefaultMaxAttempts)

	_, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	require.ErrorIs(t, err, domainerrors.ErrTryAgain)
	require.ErrorIs(t, err, txguard.ErrAttemptsExhausted)
	_, isValidation := domainerrors.AsValidation(err)
	require.False(t, isValidation)

	require.Empty(t, f.store.Counters(entities.WorkflowInvestmentUnlock, "inv-1"))
	require.Empty(t, f.store.Notifications())
}

func TestNotificationFailuresDoNotRollBack(t *testing.T) {
	f := unlockFamily(t)
	f.store.FailNotifications(errors.New("mail relay unavailable"))

	outcome, err := f.request(entities.WorkflowInvestmentUnlock, "inv-1", "alice")
	require.NoError(t, err)
	require.Equal(t, entities.CounterStatusPending, outcome.Counter.Status)
	require.Len(t, f.store.Counters(entities.WorkflowInvestmentUnlock, "inv-1"), 1)
	require.Empty(t, f.store.Notifications())
}
