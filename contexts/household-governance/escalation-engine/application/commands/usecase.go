package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
	"hearth/internal/platform/txguard"
)

const moduleName = "household-governance/escalation-engine"

// Outcome is the state of a counter after a command committed.
type Outcome struct {
	Counter  entities.Counter
	Tally    entities.Tally
	Required int
	Decision services.Decision
	// NoOp is set when the command was an idempotent replay.
	NoOp bool
}

// EscalationUseCase is the single threshold-escalation engine shared by the
// deceased vote, unlock and role promotion workflows. Every mutation runs in
// one guarded transaction holding the subject lock; notifications and cache
// invalidations run after commit.
type EscalationUseCase struct {
	UnitOfWork ports.UnitOfWork
	Policies   services.Policies
	Guard      txguard.Guard
	Notifier   ports.Notifier
	RoleCache  ports.RoleCache
	Sealer     ports.FieldSealer
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

type operation struct {
	name     string
	workflow entities.WorkflowKind
}

type roleKey struct {
	familyID string
	userID   string
}

// dispatchPlan collects post-commit work. It is rebuilt on every attempt so
// a retried transaction never dispatches twice.
type dispatchPlan struct {
	notifications     []entities.Notification
	roleInvalidations []roleKey
	resolutions       []entities.Counter
}

func (p *dispatchPlan) notify(
	counter entities.Counter,
	recipients []string,
	kind entities.NotificationType,
	required int,
	now time.Time,
) {
	title, message := noticeText(kind, counter, required)
	for _, userID := range recipients {
		p.notifications = append(p.notifications, entities.Notification{
			TenantID:  counter.Subject.TenantID,
			UserID:    userID,
			Type:      kind,
			Title:     title,
			Message:   message,
			CounterID: counter.CounterID,
			Data: map[string]any{
				"counter_id":   counter.CounterID,
				"workflow":     string(counter.Workflow),
				"subject_kind": string(counter.Subject.Kind),
				"subject_id":   counter.Subject.ID,
				"family_id":    counter.Subject.FamilyID,
				"count":        counter.Count,
				"required":     required,
				"status":       string(counter.Status),
			},
			CreatedAt: now,
		})
	}
}

func (uc EscalationUseCase) execute(
	ctx context.Context,
	op *operation,
	body func(ctx context.Context, tx ports.TxStore, plan *dispatchPlan) error,
) error {
	logger := application.ResolveLogger(uc.Logger)
	guard := uc.Guard
	guard.OnRetry = func(attempt int, err error, delay time.Duration) {
		uc.metrics().ObserveRetry(string(op.workflow))
		logger.Warn("escalation transaction conflict; retrying",
			"event", "escalation_tx_retry",
			"module", moduleName,
			"layer", "application",
			"operation", op.name,
			"workflow", string(op.workflow),
			"attempt", attempt,
			"delay", delay.String(),
			"error", err.Error(),
		)
	}

	var plan dispatchPlan
	err := guard.Run(ctx, func(ctx context.Context) error {
		plan = dispatchPlan{}
		return uc.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
			return body(ctx, tx, &plan)
		})
	})
	if err != nil {
		return uc.failure(op, err)
	}
	uc.afterCommit(ctx, op, plan)
	return nil
}

func (uc EscalationUseCase) failure(op *operation, err error) error {
	logger := application.ResolveLogger(uc.Logger)
	if errors.Is(err, txguard.ErrAttemptsExhausted) {
		logger.Error("escalation transaction retries exhausted",
			"event", "escalation_tx_exhausted",
			"module", moduleName,
			"layer", "application",
			"operation", op.name,
			"workflow", string(op.workflow),
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %w", domainerrors.ErrTryAgain, err)
	}
	if validation, ok := domainerrors.AsValidation(err); ok {
		if errors.Is(err, domainerrors.ErrCooldownActive) {
			uc.metrics().ObserveCooldownBlock(string(op.workflow))
		}
		logger.Warn("escalation command rejected",
			"event", "escalation_validation_failed",
			"module", moduleName,
			"layer", "application",
			"operation", op.name,
			"workflow", string(op.workflow),
			"field", validation.Field,
			"error", err.Error(),
		)
		return err
	}
	logger.Error("escalation command failed",
		"event", "escalation_command_failed",
		"module", moduleName,
		"layer", "application",
		"operation", op.name,
		"workflow", string(op.workflow),
		"error", err.Error(),
	)
	return err
}

// afterCommit invalidates cached roles before dispatching notifications so no
// recipient can observe a stale role after being told about a promotion.
func (uc EscalationUseCase) afterCommit(ctx context.Context, op *operation, plan dispatchPlan) {
	logger := application.ResolveLogger(uc.Logger)
	for _, key := range plan.roleInvalidations {
		if uc.RoleCache == nil {
			break
		}
		if err := uc.RoleCache.Invalidate(ctx, key.familyID, key.userID); err != nil {
			logger.Error("role cache invalidation failed",
				"event", "escalation_role_cache_invalidate_failed",
				"module", moduleName,
				"layer", "application",
				"family_id", key.familyID,
				"user_id", key.userID,
				"error", err.Error(),
			)
		}
	}
	for _, counter := range plan.resolutions {
		uc.metrics().ObserveResolution(string(counter.Workflow), string(counter.Status))
		logger.Info("escalation counter resolved",
			"event", "escalation_counter_resolved",
			"module", moduleName,
			"layer", "application",
			"operation", op.name,
			"counter_id", counter.CounterID,
			"workflow", string(counter.Workflow),
			"subject_id", counter.Subject.ID,
			"status", string(counter.Status),
			"count", counter.Count,
		)
	}
	if uc.Notifier == nil {
		return
	}
	for _, notification := range plan.notifications {
		if err := uc.Notifier.Notify(ctx, notification); err != nil {
			logger.Warn("notification dispatch failed",
				"event", "escalation_notify_failed",
				"module", moduleName,
				"layer", "application",
				"counter_id", notification.CounterID,
				"user_id", notification.UserID,
				"type", string(notification.Type),
				"error", err.Error(),
			)
		}
	}
}

func (uc EscalationUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc EscalationUseCase) metrics() ports.Metrics {
	if uc.Metrics == nil {
		return noopMetrics{}
	}
	return uc.Metrics
}

type noopMetrics struct{}

func (noopMetrics) ObserveRetry(string)              {}
func (noopMetrics) ObserveResolution(string, string) {}
func (noopMetrics) ObserveCooldownBlock(string)      {}

type familySnapshot struct {
	members []entities.Member
	roles   []entities.FamilyRole
}

func loadFamily(ctx context.Context, registry ports.SubjectRegistry, familyID string) (familySnapshot, error) {
	members, err := registry.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return familySnapshot{}, err
	}
	roles, err := registry.ListFamilyRoles(ctx, familyID)
	if err != nil {
		return familySnapshot{}, err
	}
	return familySnapshot{members: members, roles: roles}, nil
}

func (f familySnapshot) tenantID() string {
	for _, role := range f.roles {
		if role.TenantID != "" {
			return role.TenantID
		}
	}
	for _, member := range f.members {
		if member.TenantID != "" {
			return member.TenantID
		}
	}
	return ""
}

// audience merges recipient lists into a sorted, de-duplicated set.
func audience(groups ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, group := range groups {
		for _, userID := range group {
			if userID == "" {
				continue
			}
			if _, ok := seen[userID]; ok {
				continue
			}
			seen[userID] = struct{}{}
			out = append(out, userID)
		}
	}
	sort.Strings(out)
	return out
}

func without(userIDs []string, exclude string) []string {
	out := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID != exclude {
			out = append(out, userID)
		}
	}
	return out
}

func notFound(field string, err error) error {
	if errors.Is(err, domainerrors.ErrSubjectNotFound) || errors.Is(err, domainerrors.ErrCounterNotFound) {
		return domainerrors.Validation(field, err)
	}
	return err
}

func requireFields(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(fields[name]) == "" {
			return domainerrors.Validation(name, domainerrors.ErrInvalidInput)
		}
	}
	return nil
}
