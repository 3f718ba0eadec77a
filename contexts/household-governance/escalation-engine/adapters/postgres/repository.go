package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	"hearth/contexts/household-governance/escalation-engine/ports"
	"hearth/internal/platform/txguard"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository is the gorm-backed store of the escalation engine. It runs on
// PostgreSQL in production and on SQLite for tests and local runs.
type Repository struct {
	*store
	db *gorm.DB
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store: &store{db: db, logger: logger},
		db:    db,
	}
}

// WithinTx runs fn in one database transaction. Deadlocks, serialization
// failures and unique violations from concurrent writers are reported as
// retryable conflicts.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStore) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &store{db: tx, logger: r.logger})
	})
	if err == nil {
		return nil
	}
	if classified := classifyConflict(err); classified != err {
		r.logger.Warn("escalation transaction conflict",
			"event", "escalation_repo_tx_conflict",
			"module", "household-governance/escalation-engine",
			"layer", "adapter",
			"error", err.Error(),
		)
		return classified
	}
	return err
}

// Notify persists a notification row for the recipient's inbox.
func (r *Repository) Notify(ctx context.Context, notification entities.Notification) error {
	row, err := notificationModelFromEntity(notification)
	if err != nil {
		return r.logError("escalation_repo_notification_encode_failed", err,
			"user_id", notification.UserID,
			"counter_id", notification.CounterID,
		)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("escalation_repo_notify_failed", err,
			"user_id", notification.UserID,
			"counter_id", notification.CounterID,
			"type", string(notification.Type),
		)
	}
	return nil
}

// MarkNotificationRead sets read_at on the user's unread notifications that
// reference counterID and returns how many were marked.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID string, counterID string, readAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("counter_id = ?", strings.TrimSpace(counterID)).
		Where("read_at IS NULL").
		Update("read_at", readAt.UTC())
	if result.Error != nil {
		return 0, r.logError("escalation_repo_mark_read_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
			"counter_id", strings.TrimSpace(counterID),
		)
	}
	return result.RowsAffected, nil
}

// ListNotifications returns a user's notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID string) ([]entities.Notification, error) {
	var rows []notificationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("escalation_repo_list_notifications_failed", err, "user_id", strings.TrimSpace(userID))
	}
	items := make([]entities.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPendingCountersByFamily(ctx context.Context, familyID string) ([]entities.Counter, error) {
	var rows []counterModel
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", strings.TrimSpace(familyID)).
		Where("status = ?", string(entities.CounterStatusPending)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("escalation_repo_list_family_pending_failed", err, "family_id", strings.TrimSpace(familyID))
	}
	return toCounterEntities(rows), nil
}

func (r *Repository) GetFamilyRole(ctx context.Context, familyID string, userID string) (entities.FamilyRole, bool, error) {
	var row familyRoleModel
	err := r.db.WithContext(ctx).
		Where("family_id = ?", strings.TrimSpace(familyID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.FamilyRole{}, false, nil
		}
		return entities.FamilyRole{}, false, r.logError("escalation_repo_get_role_failed", err,
			"family_id", strings.TrimSpace(familyID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func classifyConflict(err error) error {
	if err == nil || txguard.IsRetryable(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01", "40001", "23505":
			return txguard.Conflict(err)
		}
		return err
	}
	message := err.Error()
	if strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database table is locked") ||
		strings.Contains(message, "UNIQUE constraint failed") {
		return txguard.Conflict(err)
	}
	return err
}

func notificationModelFromEntity(notification entities.Notification) (notificationModel, error) {
	data := "{}"
	if len(notification.Data) > 0 {
		raw, err := json.Marshal(notification.Data)
		if err != nil {
			return notificationModel{}, err
		}
		data = string(raw)
	}
	row := notificationModel{
		ID:        strings.TrimSpace(notification.NotificationID),
		TenantID:  strings.TrimSpace(notification.TenantID),
		UserID:    strings.TrimSpace(notification.UserID),
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		CounterID: strings.TrimSpace(notification.CounterID),
		Data:      data,
		CreatedAt: notification.CreatedAt.UTC(),
		ReadAt:    normalizeOptionalTime(notification.ReadAt),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row, nil
}

var _ ports.UnitOfWork = (*Repository)(nil)
var _ ports.CounterReader = (*Repository)(nil)
var _ ports.RoleReader = (*Repository)(nil)
var _ ports.Notifier = (*Repository)(nil)
var _ ports.Inbox = (*Repository)(nil)
var _ ports.TxStore = (*store)(nil)
