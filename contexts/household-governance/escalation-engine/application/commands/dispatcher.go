package commands

import (
	"context"
	"fmt"
	"time"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
)

// resolution closes one counter. audience receives the outcome notification.
type resolution struct {
	policy   services.Policy
	counter  *entities.Counter
	status   entities.CounterStatus
	actorID  string
	audience []string
	required int
	now      time.Time
}

// resolve finalizes the counter and applies or reverts the workflow's
// consequence inside the caller's transaction.
func (uc EscalationUseCase) resolve(ctx context.Context, tx ports.TxStore, plan *dispatchPlan, r resolution) error {
	now := r.now
	r.counter.Status = r.status
	r.counter.ResolvedAt = &now
	r.counter.ResolvedBy = r.actorID
	r.counter.UpdatedAt = now
	if err := tx.SaveCounter(ctx, *r.counter); err != nil {
		return err
	}

	var err error
	if r.status.Affirmative() {
		err = uc.applyConsequence(ctx, tx, plan, r)
	} else {
		err = revertConsequence(ctx, tx, r)
	}
	if err != nil {
		return err
	}

	plan.resolutions = append(plan.resolutions, *r.counter)
	plan.notify(*r.counter, r.audience, resolutionNotice(r.policy, r.status), r.required, now)
	return nil
}

func (uc EscalationUseCase) applyConsequence(ctx context.Context, tx ports.TxStore, plan *dispatchPlan, r resolution) error {
	subject := r.counter.Subject
	switch {
	case r.policy.Workflow == entities.WorkflowDeceasedVote:
		return uc.markDeceased(ctx, tx, plan, r)
	case r.policy.IsUnlock():
		holding, err := tx.GetHolding(ctx, subject.Kind, subject.FamilyID, subject.ID)
		if err != nil {
			return err
		}
		if err := uc.unlockHolding(ctx, tx, holding, r.now); err != nil {
			return err
		}
		return closeSiblingCounters(ctx, tx, plan, r.policy.Workflow, subject, r.counter.CounterID, r.status, r.actorID, r.now)
	case r.policy.SubjectKind == entities.SubjectKindRoleRequest:
		return uc.promote(ctx, tx, plan, subject, r.now)
	default:
		return nil
	}
}

func revertConsequence(ctx context.Context, tx ports.TxStore, r resolution) error {
	if r.policy.Workflow != entities.WorkflowDeceasedVote {
		return nil
	}
	member, err := tx.GetMember(ctx, r.counter.Subject.FamilyID, r.counter.Subject.ID)
	if err != nil {
		return err
	}
	member.IsDeceasedPending = false
	member.UpdatedAt = r.now
	return tx.SaveMember(ctx, member)
}

// markDeceased flips the member's status and releases every holding the
// member still had locked, closing any unlock requests open on them.
func (uc EscalationUseCase) markDeceased(ctx context.Context, tx ports.TxStore, plan *dispatchPlan, r resolution) error {
	subject := r.counter.Subject
	member, err := tx.GetMember(ctx, subject.FamilyID, subject.ID)
	if err != nil {
		return err
	}
	member.IsDeceased = true
	member.IsDeceasedPending = false
	if member.DateOfDeath == nil {
		day := r.now.Truncate(24 * time.Hour)
		member.DateOfDeath = &day
	}
	member.UpdatedAt = r.now
	if err := tx.SaveMember(ctx, member); err != nil {
		return err
	}

	holdings, err := tx.ListLockedHoldingsByOwner(ctx, subject.FamilyID, member.MemberID)
	if err != nil {
		return err
	}
	for _, holding := range holdings {
		ref := entities.SubjectRef{
			Kind:     holding.Kind,
			ID:       holding.HoldingID,
			FamilyID: holding.FamilyID,
			TenantID: holding.TenantID,
		}
		if err := tx.LockSubject(ctx, ref); err != nil {
			return err
		}
		if err := uc.unlockHolding(ctx, tx, holding, r.now); err != nil {
			return err
		}
		workflow := unlockWorkflow(holding.Kind)
		if workflow == "" {
			continue
		}
		if err := closeSiblingCounters(ctx, tx, plan, workflow, ref, "", entities.CounterStatusAutoResolved, r.actorID, r.now); err != nil {
			return err
		}
	}
	return nil
}

// unlockHolding makes a holding visible: the PIN is dropped and the sealed
// payload is opened in place.
func (uc EscalationUseCase) unlockHolding(ctx context.Context, tx ports.TxStore, holding entities.Holding, now time.Time) error {
	if len(holding.SealedPayload) > 0 {
		payload := holding.SealedPayload
		if uc.Sealer != nil {
			opened, err := uc.Sealer.Open(ctx, holding.TenantID, holding.SealedPayload)
			if err != nil {
				return fmt.Errorf("open sealed payload of %s %s: %w", holding.Kind, holding.HoldingID, err)
			}
			payload = opened
		}
		holding.Payload = payload
		holding.SealedPayload = nil
	}
	holding.Locked = false
	holding.PINHash = ""
	holding.UpdatedAt = now
	return tx.SaveHolding(ctx, holding)
}

// closeSiblingCounters resolves every other pending counter of the subject
// with the same status so no stale request survives the unlock.
func closeSiblingCounters(
	ctx context.Context,
	tx ports.TxStore,
	plan *dispatchPlan,
	workflow entities.WorkflowKind,
	subject entities.SubjectRef,
	exceptCounterID string,
	status entities.CounterStatus,
	actorID string,
	now time.Time,
) error {
	pending, err := tx.ListPendingCounters(ctx, workflow, subject)
	if err != nil {
		return err
	}
	for _, counter := range pending {
		if counter.CounterID == exceptCounterID {
			continue
		}
		resolvedAt := now
		counter.Status = status
		counter.ResolvedAt = &resolvedAt
		counter.ResolvedBy = actorID
		counter.UpdatedAt = now
		if err := tx.SaveCounter(ctx, counter); err != nil {
			return err
		}
		plan.resolutions = append(plan.resolutions, counter)
	}
	return nil
}

// promote grants ADMIN to the requester. The write is read back and forced
// when the upsert did not take.
func (uc EscalationUseCase) promote(ctx context.Context, tx ports.TxStore, plan *dispatchPlan, subject entities.SubjectRef, now time.Time) error {
	logger := application.ResolveLogger(uc.Logger)
	roles, err := tx.ListFamilyRoles(ctx, subject.FamilyID)
	if err != nil {
		return err
	}
	if current, ok := services.RoleOf(roles, subject.ID); ok && current.IsAdministrative() {
		plan.roleInvalidations = append(plan.roleInvalidations, roleKey{familyID: subject.FamilyID, userID: subject.ID})
		return nil
	}

	role := entities.FamilyRole{
		FamilyID:  subject.FamilyID,
		TenantID:  subject.TenantID,
		UserID:    subject.ID,
		Role:      entities.RoleAdmin,
		UpdatedAt: now,
	}
	if err := tx.UpsertFamilyRole(ctx, role); err != nil {
		return err
	}
	roles, err = tx.ListFamilyRoles(ctx, subject.FamilyID)
	if err != nil {
		return err
	}
	if current, _ := services.RoleOf(roles, subject.ID); current != entities.RoleAdmin {
		logger.Warn("role upsert did not persist; forcing role row",
			"event", "escalation_role_force_write",
			"module", moduleName,
			"layer", "application",
			"family_id", subject.FamilyID,
			"user_id", subject.ID,
			"observed_role", string(current),
		)
		if err := tx.ForceFamilyRole(ctx, role); err != nil {
			return err
		}
	}
	plan.roleInvalidations = append(plan.roleInvalidations, roleKey{familyID: subject.FamilyID, userID: subject.ID})
	return nil
}

func unlockWorkflow(kind entities.SubjectKind) entities.WorkflowKind {
	switch kind {
	case entities.SubjectKindInvestment:
		return entities.WorkflowInvestmentUnlock
	case entities.SubjectKindAsset:
		return entities.WorkflowAssetUnlock
	default:
		return ""
	}
}
