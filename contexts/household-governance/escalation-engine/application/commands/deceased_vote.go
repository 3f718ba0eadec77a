package commands

import (
	"context"
	"strings"
	"time"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
)

// StartDeceasedVoteCommand opens a vote to mark a member deceased. The
// initiator's approval is recorded with the opening.
type StartDeceasedVoteCommand struct {
	FamilyID    string
	MemberID    string
	InitiatorID string
}

// CastVoteCommand records one participant's decision on a pending member.
type CastVoteCommand struct {
	FamilyID string
	MemberID string
	VoterID  string
	Vote     entities.BallotStatus
}

// StartDeceasedVote seeds a pending ballot for every eligible voter and marks
// the member as pending. Families where the initiator is the only other
// person resolve immediately.
func (uc EscalationUseCase) StartDeceasedVote(ctx context.Context, cmd StartDeceasedVoteCommand) (Outcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	familyID := strings.TrimSpace(cmd.FamilyID)
	memberID := strings.TrimSpace(cmd.MemberID)
	initiatorID := strings.TrimSpace(cmd.InitiatorID)
	logger.Info("deceased vote start processing started",
		"event", "escalation_deceased_vote_start_started",
		"module", moduleName,
		"layer", "application",
		"family_id", familyID,
		"member_id", memberID,
		"initiator_id", initiatorID,
	)
	if err := requireFields(map[string]string{
		"family_id":    familyID,
		"member_id":    memberID,
		"initiator_id": initiatorID,
	}); err != nil {
		return Outcome{}, err
	}
	policy, err := uc.Policies.For(entities.WorkflowDeceasedVote)
	if err != nil {
		return Outcome{}, err
	}

	op := &operation{name: "start_deceased_vote", workflow: policy.Workflow}
	var outcome Outcome
	err = uc.execute(ctx, op, func(ctx context.Context, tx ports.TxStore, plan *dispatchPlan) error {
		now := uc.now()
		subject := entities.SubjectRef{Kind: entities.SubjectKindMember, ID: memberID, FamilyID: familyID}
		if err := tx.LockSubject(ctx, subject); err != nil {
			return err
		}
		member, err := tx.GetMember(ctx, familyID, memberID)
		if err != nil {
			return notFound("member_id", err)
		}
		subject.TenantID = member.TenantID
		if member.IsDeceased {
			return domainerrors.Validation("member_id", domainerrors.ErrSubjectNotEligible)
		}
		if member.IsDeceasedPending {
			return domainerrors.Validation("member_id", domainerrors.ErrAlreadyPending)
		}
		if _, found, err := tx.GetPendingCounter(ctx, policy.Workflow, subject); err != nil {
			return err
		} else if found {
			return domainerrors.Validation("member_id", domainerrors.ErrAlreadyPending)
		}

		family, err := loadFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		voters := services.EligibleParticipants(family.roles, family.members, member.UserID)
		if !services.Contains(voters, initiatorID) {
			return domainerrors.Validation("initiator_id", domainerrors.ErrParticipantNotEligible)
		}

		counterID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		counter := entities.Counter{
			CounterID:    counterID,
			Workflow:     policy.Workflow,
			Subject:      subject,
			OpenedBy:     initiatorID,
			RequestedBy:  initiatorID,
			Status:       entities.CounterStatusPending,
			LastActionAt: &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.SaveCounter(ctx, counter); err != nil {
			return err
		}
		for _, voterID := range voters {
			status := entities.BallotPending
			if voterID == initiatorID {
				status = entities.BallotApproved
			}
			entryID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			if err := tx.SaveEntry(ctx, entities.LedgerEntry{
				EntryID:       entryID,
				CounterID:     counterID,
				ParticipantID: voterID,
				Action:        entities.LedgerActionVote,
				Status:        status,
				CreatedAt:     now,
				UpdatedAt:     now,
			}); err != nil {
				return err
			}
		}
		member.IsDeceasedPending = true
		member.UpdatedAt = now
		if err := tx.SaveMember(ctx, member); err != nil {
			return err
		}

		outcome, err = uc.settleVote(ctx, tx, plan, voteRound{
			policy:  policy,
			counter: &counter,
			family:  family,
			voters:  voters,
			actorID: initiatorID,
			now:     now,
		})
		if err != nil {
			return err
		}
		if !outcome.Decision.IsTerminal() {
			plan.notify(counter, without(voters, initiatorID), entities.NotificationDeceasedVoteRequested, outcome.Required, now)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	logger.Info("deceased vote started",
		"event", "escalation_deceased_vote_started",
		"module", moduleName,
		"layer", "application",
		"counter_id", outcome.Counter.CounterID,
		"member_id", memberID,
		"approved", outcome.Tally.Approved,
		"required", outcome.Required,
		"decision", string(outcome.Decision),
	)
	return outcome, nil
}

// CastVote records a vote on a pending member. Re-submitting after the
// voter's ballot is already decided returns the current state unchanged.
func (uc EscalationUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (Outcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	familyID := strings.TrimSpace(cmd.FamilyID)
	memberID := strings.TrimSpace(cmd.MemberID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("deceased vote cast processing started",
		"event", "escalation_deceased_vote_cast_started",
		"module", moduleName,
		"layer", "application",
		"family_id", familyID,
		"member_id", memberID,
		"voter_id", voterID,
	)
	if err := requireFields(map[string]string{
		"family_id": familyID,
		"member_id": memberID,
		"voter_id":  voterID,
	}); err != nil {
		return Outcome{}, err
	}
	if cmd.Vote != entities.BallotApproved && cmd.Vote != entities.BallotDenied {
		return Outcome{}, domainerrors.Validation("vote", domainerrors.ErrInvalidInput)
	}
	policy, err := uc.Policies.For(entities.WorkflowDeceasedVote)
	if err != nil {
		return Outcome{}, err
	}

	op := &operation{name: "cast_vote", workflow: policy.Workflow}
	var outcome Outcome
	err = uc.execute(ctx, op, func(ctx context.Context, tx ports.TxStore, plan *dispatchPlan) error {
		now := uc.now()
		subject := entities.SubjectRef{Kind: entities.SubjectKindMember, ID: memberID, FamilyID: familyID}
		if err := tx.LockSubject(ctx, subject); err != nil {
			return err
		}
		member, err := tx.GetMember(ctx, familyID, memberID)
		if err != nil {
			return notFound("member_id", err)
		}
		subject.TenantID = member.TenantID
		counter, found, err := tx.GetPendingCounter(ctx, policy.Workflow, subject)
		if err != nil {
			return err
		}
		if !found || !member.IsDeceasedPending {
			return domainerrors.Validation("member_id", domainerrors.ErrSubjectNotPending)
		}

		family, err := loadFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		voters := services.EligibleParticipants(family.roles, family.members, member.UserID)
		if !services.Contains(voters, voterID) {
			return domainerrors.Validation("voter_id", domainerrors.ErrParticipantNotEligible)
		}

		entry, found, err := tx.GetVote(ctx, counter.CounterID, voterID)
		if err != nil {
			return err
		}
		if found && entry.IsTerminal() {
			entries, err := tx.ListEntries(ctx, counter.CounterID)
			if err != nil {
				return err
			}
			familySize := services.TotalFamilyMemberCount(family.roles, family.members)
			outcome = Outcome{
				Counter:  counter,
				Tally:    entities.TallyVotes(entries),
				Required: policy.RequiredCount(familySize, len(voters)),
				Decision: services.DecisionStayPending,
				NoOp:     true,
			}
			return nil
		}
		if !found {
			entryID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			entry = entities.LedgerEntry{
				EntryID:       entryID,
				CounterID:     counter.CounterID,
				ParticipantID: voterID,
				Action:        entities.LedgerActionVote,
				CreatedAt:     now,
			}
		}
		entry.Status = cmd.Vote
		entry.UpdatedAt = now
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}

		outcome, err = uc.settleVote(ctx, tx, plan, voteRound{
			policy:  policy,
			counter: &counter,
			family:  family,
			voters:  voters,
			actorID: voterID,
			now:     now,
		})
		if err != nil {
			return err
		}
		if !outcome.Decision.IsTerminal() && counter.OpenedBy != voterID {
			plan.notify(counter, []string{counter.OpenedBy}, entities.NotificationDeceasedVoteProgress, outcome.Required, now)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if outcome.NoOp {
		logger.Info("deceased vote replayed",
			"event", "escalation_deceased_vote_replayed",
			"module", moduleName,
			"layer", "application",
			"counter_id", outcome.Counter.CounterID,
			"voter_id", voterID,
		)
		return outcome, nil
	}
	logger.Info("deceased vote recorded",
		"event", "escalation_deceased_vote_recorded",
		"module", moduleName,
		"layer", "application",
		"counter_id", outcome.Counter.CounterID,
		"voter_id", voterID,
		"vote", string(cmd.Vote),
		"approved", outcome.Tally.Approved,
		"denied", outcome.Tally.Denied,
		"required", outcome.Required,
		"decision", string(outcome.Decision),
	)
	return outcome, nil
}

type voteRound struct {
	policy  services.Policy
	counter *entities.Counter
	family  familySnapshot
	voters  []string
	actorID string
	now     time.Time
}

// settleVote recounts the ledger and resolves the counter when the quorum
// resolver reaches a terminal decision.
func (uc EscalationUseCase) settleVote(ctx context.Context, tx ports.TxStore, plan *dispatchPlan, round voteRound) (Outcome, error) {
	entries, err := tx.ListEntries(ctx, round.counter.CounterID)
	if err != nil {
		return Outcome{}, err
	}
	tally := entities.TallyVotes(entries)
	familySize := services.TotalFamilyMemberCount(round.family.roles, round.family.members)
	required := round.policy.RequiredCount(familySize, len(round.voters))
	decision := round.policy.ResolveVote(services.VoteState{
		Tally:      tally,
		FamilySize: familySize,
		Voters:     len(round.voters),
	})

	counter := round.counter
	counter.Count = tally.Approved
	counter.RequestedBy = round.actorID
	counter.LastActionAt = &round.now
	counter.UpdatedAt = round.now
	if decision.IsTerminal() {
		if err := uc.resolve(ctx, tx, plan, resolution{
			policy:   round.policy,
			counter:  counter,
			status:   decision.CounterStatus(),
			actorID:  round.actorID,
			audience: audience(round.voters, []string{round.actorID}),
			required: required,
			now:      round.now,
		}); err != nil {
			return Outcome{}, err
		}
	} else if err := tx.SaveCounter(ctx, *counter); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Counter:  *counter,
		Tally:    tally,
		Required: required,
		Decision: decision,
	}, nil
}
