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

// AcknowledgeCommand records that an administrator has seen a pending role
// request. An acknowledged request stops auto-approving.
type AcknowledgeCommand struct {
	CounterID string
	FamilyID  string
	AdminID   string
}

func (uc EscalationUseCase) Acknowledge(ctx context.Context, cmd AcknowledgeCommand) (Outcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	counterID := strings.TrimSpace(cmd.CounterID)
	familyID := strings.TrimSpace(cmd.FamilyID)
	adminID := strings.TrimSpace(cmd.AdminID)
	if err := requireFields(map[string]string{
		"counter_id": counterID,
		"family_id":  familyID,
		"admin_id":   adminID,
	}); err != nil {
		return Outcome{}, err
	}

	op := &operation{name: "acknowledge"}
	var outcome Outcome
	err := uc.execute(ctx, op, func(ctx context.Context, tx ports.TxStore, plan *dispatchPlan) error {
		now := uc.now()
		counter, policy, err := uc.lockFamilyCounter(ctx, tx, op, counterID, familyID)
		if err != nil {
			return err
		}
		if !policy.RequireUnacknowledged {
			return domainerrors.Validation("counter_id", domainerrors.ErrAcknowledgementNotNeeded)
		}
		family, err := loadFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		if !services.Contains(services.ActiveAdministrators(family.roles, family.members), adminID) {
			return domainerrors.Validation("admin_id", domainerrors.ErrRoleRequired)
		}
		if err := tx.SaveAcknowledgement(ctx, entities.Acknowledgement{
			CounterID: counter.CounterID,
			UserID:    adminID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		plan.notify(counter, without([]string{counter.OpenedBy}, adminID), entities.NotificationRoleRequestNoted, policy.RequestThreshold, now)
		outcome = Outcome{
			Counter:  counter,
			Required: policy.RequestThreshold,
			Decision: services.DecisionStayPending,
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	logger.Info("escalation counter acknowledged",
		"event", "escalation_counter_acknowledged",
		"module", moduleName,
		"layer", "application",
		"counter_id", counterID,
		"admin_id", adminID,
	)
	return outcome, nil
}
