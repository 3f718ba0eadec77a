package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/ports"
)

// InboxUseCase lists and marks a user's escalation notifications.
type InboxUseCase struct {
	Inbox  ports.Inbox
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u InboxUseCase) List(ctx context.Context, userID string) ([]entities.Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.Validation("user_id", domainerrors.ErrInvalidInput)
	}
	items, err := u.Inbox.ListNotifications(ctx, userID)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("notification listing failed",
			"event", "escalation_inbox_list_failed",
			"module", "household-governance/escalation-engine",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}

// MarkRead marks the user's notifications about counterID as read. A pending
// counter that requires an unacknowledged administrator treats the reader as
// having acknowledged it.
func (u InboxUseCase) MarkRead(ctx context.Context, userID string, counterID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	counterID = strings.TrimSpace(counterID)
	if userID == "" {
		return 0, domainerrors.Validation("user_id", domainerrors.ErrInvalidInput)
	}
	if counterID == "" {
		return 0, domainerrors.Validation("counter_id", domainerrors.ErrInvalidInput)
	}
	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}
	marked, err := u.Inbox.MarkNotificationRead(ctx, userID, counterID, now)
	if err != nil {
		return 0, err
	}
	application.ResolveLogger(u.Logger).Info("notifications marked read",
		"event", "escalation_inbox_marked_read",
		"module", "household-governance/escalation-engine",
		"layer", "application",
		"user_id", userID,
		"counter_id", counterID,
		"marked", marked,
	)
	return marked, nil
}
