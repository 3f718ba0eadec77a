package commands

import (
	"context"
	"strings"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
)

// CreateRequestCommand adds one request to the counter of an unlock or role
// promotion subject. For role promotion the subject is the requester and
// SubjectID may be left empty.
type CreateRequestCommand struct {
	Workflow    entities.WorkflowKind
	FamilyID    string
	SubjectID   string
	RequesterID string
}

// CreateRequest increments the subject's counter, opening it on first use,
// and auto-resolves once the threshold is reached. Requests on an existing
// counter are throttled by the workflow cooldown.
func (uc EscalationUseCase) CreateRequest(ctx context.Context, cmd CreateRequestCommand) (Outcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	familyID := strings.TrimSpace(cmd.FamilyID)
	subjectID := strings.TrimSpace(cmd.SubjectID)
	requesterID := strings.TrimSpace(cmd.RequesterID)
	logger.Info("escalation request processing started",
		"event", "escalation_request_started",
		"module", moduleName,
		"layer", "application",
		"workflow", string(cmd.Workflow),
		"family_id", familyID,
		"subject_id", subjectID,
		"requester_id", requesterID,
	)
	policy, err := uc.Policies.For(cmd.Workflow)
	if err != nil {
		return Outcome{}, err
	}
	if policy.Vote {
		return Outcome{}, domainerrors.Validation("workflow", domainerrors.ErrUnknownWorkflow)
	}
	if policy.SubjectKind == entities.SubjectKindRoleRequest {
		if subjectID == "" {
			subjectID = requesterID
		}
		if subjectID != requesterID {
			return Outcome{}, domainerrors.Validation("subject_id", domainerrors.ErrInvalidInput)
		}
	}
	if err := requireFields(map[string]string{
		"family_id":    familyID,
		"subject_id":   subjectID,
		"requester_id": requesterID,
	}); err != nil {
		return Outcome{}, err
	}

	op := &operation{name: "create_request", workflow: policy.Workflow}
	var outcome Outcome
	err = uc.execute(ctx, op, func(ctx context.Context, tx ports.TxStore, plan *dispatchPlan) error {
		now := uc.now()
		subject := entities.SubjectRef{Kind: policy.SubjectKind, ID: subjectID, FamilyID: familyID}
		if err := tx.LockSubject(ctx, subject); err != nil {
			return err
		}
		family, err := loadFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		tenantID, err := checkRequestSubject(ctx, tx, policy, subject, family, requesterID)
		if err != nil {
			return err
		}
		subject.TenantID = tenantID

		counter, found, err := tx.GetPendingCounter(ctx, policy.Workflow, subject)
		if err != nil {
			return err
		}
		if found {
			if cooldown := services.CheckCooldown(counter, now, policy.Cooldown); !cooldown.Allowed {
				return domainerrors.Cooldown("subject_id", cooldown.DaysRemaining)
			}
		} else {
			counterID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			counter = entities.Counter{
				CounterID: counterID,
				Workflow:  policy.Workflow,
				Subject:   subject,
				OpenedBy:  requesterID,
				Status:    entities.CounterStatusPending,
				CreatedAt: now,
			}
		}
		counter.Count++
		counter.RequestedBy = requesterID
		counter.LastActionAt = &now
		counter.UpdatedAt = now
		if err := tx.SaveCounter(ctx, counter); err != nil {
			return err
		}
		entryID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		if err := tx.SaveEntry(ctx, entities.LedgerEntry{
			EntryID:       entryID,
			CounterID:     counter.CounterID,
			ParticipantID: requesterID,
			Action:        entities.LedgerActionRequest,
			Status:        entities.BallotApproved,
			CreatedAt:     now,
			UpdatedAt:     now,
		}); err != nil {
			return err
		}

		admins := services.ActiveAdministrators(family.roles, family.members)
		state := services.RequestState{Count: counter.Count, ActiveAdmins: len(admins)}
		if policy.RequireUnacknowledged && counter.Count >= policy.RequestThreshold && len(admins) > 0 {
			state.Acknowledged, err = tx.HasAcknowledged(ctx, counter.CounterID, admins)
			if err != nil {
				return err
			}
		}
		decision := policy.ResolveRequest(state)
		if decision.IsTerminal() {
			if err := uc.resolve(ctx, tx, plan, resolution{
				policy:   policy,
				counter:  &counter,
				status:   decision.CounterStatus(),
				actorID:  requesterID,
				audience: requestAudience(admins, counter, requesterID),
				required: policy.RequestThreshold,
				now:      now,
			}); err != nil {
				return err
			}
		} else {
			requested, recorded := progressNotices(policy)
			plan.notify(counter, without(admins, requesterID), requested, policy.RequestThreshold, now)
			plan.notify(counter, []string{requesterID}, recorded, policy.RequestThreshold, now)
		}
		outcome = Outcome{
			Counter:  counter,
			Required: policy.RequestThreshold,
			Decision: decision,
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	logger.Info("escalation request recorded",
		"event", "escalation_request_recorded",
		"module", moduleName,
		"layer", "application",
		"workflow", string(policy.Workflow),
		"counter_id", outcome.Counter.CounterID,
		"subject_id", subjectID,
		"requester_id", requesterID,
		"count", outcome.Counter.Count,
		"required", outcome.Required,
		"decision", string(outcome.Decision),
	)
	return outcome, nil
}

// checkRequestSubject validates the subject and requester of a request and
// returns the tenant owning the subject.
func checkRequestSubject(
	ctx context.Context,
	tx ports.TxStore,
	policy services.Policy,
	subject entities.SubjectRef,
	family familySnapshot,
	requesterID string,
) (string, error) {
	participants := services.EligibleParticipants(family.roles, family.members, "")
	role, hasRole := services.RoleOf(family.roles, requesterID)

	if !policy.IsUnlock() {
		if !services.Contains(participants, requesterID) {
			return "", domainerrors.Validation("requester_id", domainerrors.ErrParticipantNotEligible)
		}
		if hasRole && role.IsAdministrative() {
			return "", domainerrors.Validation("requester_id", domainerrors.ErrSubjectNotEligible)
		}
		return family.tenantID(), nil
	}

	holding, err := tx.GetHolding(ctx, subject.Kind, subject.FamilyID, subject.ID)
	if err != nil {
		return "", notFound("subject_id", err)
	}
	if !holding.Locked {
		return "", domainerrors.Validation("subject_id", domainerrors.ErrSubjectNotEligible)
	}
	owner, err := tx.GetMember(ctx, subject.FamilyID, holding.OwnerMemberID)
	if err != nil {
		return "", notFound("subject_id", err)
	}
	if !owner.IsDeceased {
		return "", domainerrors.Validation("subject_id", domainerrors.ErrSubjectNotEligible)
	}
	if !services.Contains(participants, requesterID) {
		return "", domainerrors.Validation("requester_id", domainerrors.ErrParticipantNotEligible)
	}
	if policy.AdministrativeRequesters && !(hasRole && role.IsAdministrative()) {
		return "", domainerrors.Validation("requester_id", domainerrors.ErrRoleRequired)
	}
	return holding.TenantID, nil
}

// requestAudience is every active administrator except the latest requester,
// plus the actor and whoever opened the counter.
func requestAudience(admins []string, counter entities.Counter, actorID string) []string {
	return audience(without(admins, counter.RequestedBy), []string{actorID, counter.OpenedBy})
}

func progressNotices(policy services.Policy) (requested entities.NotificationType, recorded entities.NotificationType) {
	if policy.IsUnlock() {
		return entities.NotificationUnlockRequested, entities.NotificationUnlockRecorded
	}
	return entities.NotificationRolePromotionRequest, entities.NotificationRoleRequestRecorded
}
