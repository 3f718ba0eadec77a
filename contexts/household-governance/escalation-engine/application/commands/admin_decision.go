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

// AdminDecisionCommand is an explicit approve or reject of a pending counter
// by an active administrator of the subject's family.
type AdminDecisionCommand struct {
	CounterID string
	FamilyID  string
	AdminID   string
}

// ApproveRequest resolves a pending counter as approved and applies its
// consequence without waiting for the threshold.
func (uc EscalationUseCase) ApproveRequest(ctx context.Context, cmd AdminDecisionCommand) (Outcome, error) {
	return uc.decide(ctx, cmd, true)
}

// RejectRequest closes a pending counter without applying its consequence.
func (uc EscalationUseCase) RejectRequest(ctx context.Context, cmd AdminDecisionCommand) (Outcome, error) {
	return uc.decide(ctx, cmd, false)
}

func (uc EscalationUseCase) decide(ctx context.Context, cmd AdminDecisionCommand, approve bool) (Outcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	counterID := strings.TrimSpace(cmd.CounterID)
	familyID := strings.TrimSpace(cmd.FamilyID)
	adminID := strings.TrimSpace(cmd.AdminID)
	op := &operation{name: "reject_request"}
	status := entities.CounterStatusRejected
	decision := services.DecisionDeny
	if approve {
		op.name = "approve_request"
		status = entities.CounterStatusApproved
		decision = services.DecisionApprove
	}
	logger.Info("escalation admin decision processing started",
		"event", "escalation_admin_decision_started",
		"module", moduleName,
		"layer", "application",
		"operation", op.name,
		"counter_id", counterID,
		"family_id", familyID,
		"admin_id", adminID,
	)
	if err := requireFields(map[string]string{
		"counter_id": counterID,
		"family_id":  familyID,
		"admin_id":   adminID,
	}); err != nil {
		return Outcome{}, err
	}

	var outcome Outcome
	err := uc.execute(ctx, op, func(ctx context.Context, tx ports.TxStore, plan *dispatchPlan) error {
		now := uc.now()
		counter, policy, err := uc.lockFamilyCounter(ctx, tx, op, counterID, familyID)
		if err != nil {
			return err
		}
		if !policy.AdminOverride {
			return domainerrors.Validation("counter_id", domainerrors.ErrOverrideNotAllowed)
		}
		family, err := loadFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		admins := services.ActiveAdministrators(family.roles, family.members)
		if !services.Contains(admins, adminID) {
			return domainerrors.Validation("admin_id", domainerrors.ErrRoleRequired)
		}

		counter.UpdatedAt = now
		if err := uc.resolve(ctx, tx, plan, resolution{
			policy:   policy,
			counter:  &counter,
			status:   status,
			actorID:  adminID,
			audience: requestAudience(admins, counter, adminID),
			required: policy.RequestThreshold,
			now:      now,
		}); err != nil {
			return err
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
	logger.Info("escalation admin decision applied",
		"event", "escalation_admin_decision_applied",
		"module", moduleName,
		"layer", "application",
		"operation", op.name,
		"workflow", string(outcome.Counter.Workflow),
		"counter_id", outcome.Counter.CounterID,
		"admin_id", adminID,
		"status", string(outcome.Counter.Status),
	)
	return outcome, nil
}

// lockFamilyCounter loads a counter by id, takes its subject lock and
// re-reads it under the lock. The counter must belong to familyID and still
// be pending.
func (uc EscalationUseCase) lockFamilyCounter(
	ctx context.Context,
	tx ports.TxStore,
	op *operation,
	counterID string,
	familyID string,
) (entities.Counter, services.Policy, error) {
	counter, err := tx.GetCounter(ctx, counterID)
	if err != nil {
		return entities.Counter{}, services.Policy{}, notFound("counter_id", err)
	}
	if counter.Subject.FamilyID != familyID {
		return entities.Counter{}, services.Policy{}, domainerrors.Validation("counter_id", domainerrors.ErrCounterNotFound)
	}
	op.workflow = counter.Workflow
	policy, err := uc.Policies.For(counter.Workflow)
	if err != nil {
		return entities.Counter{}, services.Policy{}, err
	}
	if err := tx.LockSubject(ctx, counter.Subject); err != nil {
		return entities.Counter{}, services.Policy{}, err
	}
	counter, err = tx.GetCounter(ctx, counterID)
	if err != nil {
		return entities.Counter{}, services.Policy{}, notFound("counter_id", err)
	}
	if !counter.IsPending() {
		return entities.Counter{}, services.Policy{}, domainerrors.Validation("counter_id", domainerrors.ErrCounterResolved)
	}
	return counter, policy, nil
}
