package services

import (
	"testing"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"

	"github.com/stretchr/testify/require"
)

func household() ([]entities.FamilyRole, []entities.Member) {
	roles := []entities.FamilyRole{
		{FamilyID: "fam-1", UserID: "alice", Role: entities.RoleOwner},
		{FamilyID: "fam-1", UserID: "bob", Role: entities.RoleAdmin},
		{FamilyID: "fam-1", UserID: "erin", Role: entities.RoleOwner},
		{FamilyID: "fam-1", UserID: "frank", Role: ""},
	}
	members := []entities.Member{
		{MemberID: "m-alice", FamilyID: "fam-1", UserID: "alice"},
		{MemberID: "m-bob", FamilyID: "fam-1", UserID: "bob"},
		{MemberID: "m-carol", FamilyID: "fam-1", UserID: "carol"},
		{MemberID: "m-kid", FamilyID: "fam-1"},
		{MemberID: "m-dave", FamilyID: "fam-1", UserID: "dave", IsDeceased: true},
	}
	return roles, members
}

func TestEligibleParticipants(t *testing.T) {
	roles, members := household()

	require.Equal(t, []string{"alice", "bob", "carol", "erin"}, EligibleParticipants(roles, members, ""))
	require.Equal(t, []string{"alice", "bob", "erin"}, EligibleParticipants(roles, members, "carol"))

	roles = append(roles, entities.FamilyRole{FamilyID: "fam-1", UserID: "dave", Role: entities.RoleAdmin})
	require.NotContains(t, EligibleParticipants(roles, members, ""), "dave")
}

func TestTotalFamilyMemberCount(t *testing.T) {
	roles, members := household()

	// four living members plus erin, an owner without a member record
	require.Equal(t, 5, TotalFamilyMemberCount(roles, members))
	require.Equal(t, 0, TotalFamilyMemberCount(nil, nil))
}

func TestActiveAdministratorsSkipsDeceased(t *testing.T) {
	roles, members := household()
	require.Equal(t, []string{"alice", "bob", "erin"}, ActiveAdministrators(roles, members))

	members[1].IsDeceased = true
	require.Equal(t, []string{"alice", "erin"}, ActiveAdministrators(roles, members))
}

func TestRoleOf(t *testing.T) {
	roles, _ := household()

	role, ok := RoleOf(roles, "bob")
	require.True(t, ok)
	require.Equal(t, entities.RoleAdmin, role)

	_, ok = RoleOf(roles, "frank")
	require.False(t, ok)
	_, ok = RoleOf(roles, "nobody")
	require.False(t, ok)
}

func TestCheckCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	last := now
	counter := entities.Counter{Status: entities.CounterStatusPending, LastActionAt: &last}

	result := CheckCooldown(counter, now, DefaultCooldown)
	require.False(t, result.Allowed)
	require.Equal(t, 2, result.DaysRemaining)
	require.Equal(t, now.Add(48*time.Hour), result.NextAllowedAt)

	result = CheckCooldown(counter, now.Add(25*time.Hour), DefaultCooldown)
	require.False(t, result.Allowed)
	require.Equal(t, 1, result.DaysRemaining)

	result = CheckCooldown(counter, now.Add(48*time.Hour-time.Second), DefaultCooldown)
	require.False(t, result.Allowed)
	require.Equal(t, 1, result.DaysRemaining)

	require.True(t, CheckCooldown(counter, now.Add(48*time.Hour+time.Second), DefaultCooldown).Allowed)
	require.True(t, CheckCooldown(counter, now, 0).Allowed)

	resolved := counter
	resolved.Status = entities.CounterStatusAutoResolved
	require.True(t, CheckCooldown(resolved, now, DefaultCooldown).Allowed)

	fresh := entities.Counter{Status: entities.CounterStatusPending}
	require.True(t, CheckCooldown(fresh, now, DefaultCooldown).Allowed)
	require.Equal(t, &last, counter.LastActionAt)
}

func TestRequiredCount(t *testing.T) {
	vote := DefaultPolicies()[entities.WorkflowDeceasedVote]

	cases := []struct {
		name       string
		familySize int
		voters     int
		want       int
	}{
		{name: "family of four", familySize: 4, voters: 3, want: 3},
		{name: "family of two", familySize: 2, voters: 1, want: 1},
		{name: "single member", familySize: 1, voters: 1, want: 1},
		{name: "account-less members cap quorum", familySize: 6, voters: 2, want: 2},
		{name: "no voters", familySize: 0, voters: 0, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, vote.RequiredCount(tc.familySize, tc.voters))
		})
	}

	unlock := DefaultPolicies()[entities.WorkflowInvestmentUnlock]
	require.Equal(t, DefaultRequestThreshold, unlock.RequiredCount(10, 10))
}

func TestResolveVoteDenialWinsRegardlessOfApprovals(t *testing.T) {
	policy := DefaultPolicies()[entities.WorkflowDeceasedVote]
	state := VoteState{FamilySize: 4, Voters: 3}

	state.Tally = entities.Tally{Approved: 2, Pending: 1}
	require.Equal(t, DecisionStayPending, policy.ResolveVote(state))

	state.Tally = entities.Tally{Approved: 3}
	require.Equal(t, DecisionApprove, policy.ResolveVote(state))

	state.Tally = entities.Tally{Approved: 3, Denied: 1}
	require.Equal(t, DecisionDeny, policy.ResolveVote(state))

	state.Tally = entities.Tally{Denied: 1, Pending: 2}
	require.Equal(t, DecisionDeny, policy.ResolveVote(state))
}

func TestResolveRequest(t *testing.T) {
	policies := DefaultPolicies()
	role := policies[entities.WorkflowRolePromotion]
	asset := policies[entities.WorkflowAssetUnlock]

	require.Equal(t, DecisionAutoEscalate, role.ResolveRequest(RequestState{Count: 1}))
	require.Equal(t, DecisionStayPending, role.ResolveRequest(RequestState{Count: 2, ActiveAdmins: 1}))
	require.Equal(t, DecisionAutoEscalate, role.ResolveRequest(RequestState{Count: 3, ActiveAdmins: 1}))
	require.Equal(t, DecisionStayPending, role.ResolveRequest(RequestState{Count: 3, ActiveAdmins: 1, Acknowledged: true}))

	require.Equal(t, DecisionStayPending, asset.ResolveRequest(RequestState{Count: 1}))
	require.Equal(t, DecisionAutoEscalate, asset.ResolveRequest(RequestState{Count: 3, ActiveAdmins: 2, Acknowledged: true}))
}

func TestDecisionCounterStatus(t *testing.T) {
	require.Equal(t, entities.CounterStatusApproved, DecisionApprove.CounterStatus())
	require.Equal(t, entities.CounterStatusDenied, DecisionDeny.CounterStatus())
	require.Equal(t, entities.CounterStatusAutoResolved, DecisionAutoEscalate.CounterStatus())
	require.Equal(t, entities.CounterStatusPending, DecisionStayPending.CounterStatus())
	require.False(t, DecisionStayPending.IsTerminal())
}

func TestPolicies(t *testing.T) {
	policies := NewPolicies(-time.Hour, 0)
	investment, err := policies.For(entities.WorkflowInvestmentUnlock)
	require.NoError(t, err)
	require.Equal(t, DefaultCooldown, investment.Cooldown)
	require.Equal(t, DefaultRequestThreshold, investment.RequestThreshold)
	require.True(t, investment.IsUnlock())
	require.True(t, investment.AdminOverride)

	asset, err := policies.For(entities.WorkflowAssetUnlock)
	require.NoError(t, err)
	require.False(t, asset.AdminOverride)

	custom := NewPolicies(time.Hour, 5)
	require.Equal(t, 5, custom[entities.WorkflowRolePromotion].RequestThreshold)
	require.Equal(t, time.Hour, custom[entities.WorkflowRolePromotion].Cooldown)

	_, err = policies.For("vacation_vote")
	require.ErrorIs(t, err, domainerrors.ErrUnknownWorkflow)
	validation, ok := domainerrors.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "workflow", validation.Field)
}
