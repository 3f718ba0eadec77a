package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// store implements every TxStore operation on a gorm handle, which is the
// transaction inside WithinTx and the pool on Repository.
type store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// LockSubject takes a row lock on the subject's lock row, creating it on
// first use. The lock is held until the surrounding transaction ends.
func (s *store) LockSubject(ctx context.Context, subject entities.SubjectRef) error {
	key := subject.Key()
	row := subjectLockModel{LockKey: key, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return s.logError("escalation_repo_lock_insert_failed", err, "lock_key", key)
	}
	var locked subjectLockModel
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lock_key = ?", key).
		First(&locked).Error; err != nil {
		return s.logError("escalation_repo_lock_failed", err, "lock_key", key)
	}
	return nil
}

func (s *store) GetMember(ctx context.Context, familyID string, memberID string) (entities.Member, error) {
	var row familyMemberModel
	err := s.db.WithContext(ctx).
		Where("family_id = ?", strings.TrimSpace(familyID)).
		Where("id = ?", strings.TrimSpace(memberID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, domainerrors.ErrSubjectNotFound
		}
		return entities.Member{}, s.logError("escalation_repo_get_member_failed", err,
			"family_id", strings.TrimSpace(familyID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), nil
}

func (s *store) GetHolding(ctx context.Context, kind entities.SubjectKind, familyID string, holdingID string) (entities.Holding, error) {
	var row holdingModel
	tx, err := s.holdings(ctx, kind)
	if err != nil {
		return entities.Holding{}, err
	}
	err = tx.
		Where("family_id = ?", strings.TrimSpace(familyID)).
		Where("id = ?", strings.TrimSpace(holdingID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Holding{}, domainerrors.ErrSubjectNotFound
		}
		return entities.Holding{}, s.logError("escalation_repo_get_holding_failed", err,
			"kind", string(kind),
			"family_id", strings.TrimSpace(familyID),
			"holding_id", strings.TrimSpace(holdingID),
		)
	}
	return row.toEntity(kind), nil
}

func (s *store) ListFamilyMembers(ctx context.Context, familyID string) ([]entities.Member, error) {
	var rows []familyMemberModel
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", strings.TrimSpace(familyID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, s.logError("escalation_repo_list_members_failed", err, "family_id", strings.TrimSpace(familyID))
	}
	items := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (s *store) ListFamilyRoles(ctx context.Context, familyID string) ([]entities.FamilyRole, error) {
	var rows []familyRoleModel
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", strings.TrimSpace(familyID)).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, s.logError("escalation_repo_list_roles_failed", err, "family_id", strings.TrimSpace(familyID))
	}
	items := make([]entities.FamilyRole, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (s *store) GetCounter(ctx context.Context, counterID string) (entities.Counter, error) {
	var row counterModel
	err := s.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(counterID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Counter{}, domainerrors.ErrCounterNotFound
		}
		return entities.Counter{}, s.logError("escalation_repo_get_counter_failed", err, "counter_id", strings.TrimSpace(counterID))
	}
	return row.toEntity(), nil
}

func (s *store) GetPendingCounter(ctx context.Context, workflow entities.WorkflowKind, subject entities.SubjectRef) (entities.Counter, bool, error) {
	items, err := s.ListPendingCounters(ctx, workflow, subject)
	if err != nil || len(items) == 0 {
		return entities.Counter{}, false, err
	}
	return items[0], true, nil
}

func (s *store) ListPendingCounters(ctx context.Context, workflow entities.WorkflowKind, subject entities.SubjectRef) ([]entities.Counter, error) {
	var rows []counterModel
	if err := s.db.WithContext(ctx).
		Where("workflow = ?", string(workflow)).
		Where("subject_kind = ?", string(subject.Kind)).
		Where("family_id = ?", subject.FamilyID).
		Where("subject_id = ?", subject.ID).
		Where("status = ?", string(entities.CounterStatusPending)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, s.logError("escalation_repo_list_pending_failed", err,
			"workflow", string(workflow),
			"subject_id", subject.ID,
		)
	}
	return toCounterEntities(rows), nil
}

func (s *store) SaveCounter(ctx context.Context, counter entities.Counter) error {
	row := counterModelFromEntity(counter)
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"tenant_id":      row.TenantID,
			"opened_by":      row.OpenedBy,
			"requested_by":   row.RequestedBy,
			"count":          row.Count,
			"status":         row.Status,
			"last_action_at": row.LastActionAt,
			"updated_at":     row.UpdatedAt,
			"resolved_at":    row.ResolvedAt,
			"resolved_by":    row.ResolvedBy,
		}),
	}).Create(&row)
	if create.Error != nil {
		return s.logError("escalation_repo_save_counter_failed", create.Error,
			"counter_id", row.ID,
			"workflow", row.Workflow,
			"status", row.Status,
		)
	}
	return nil
}

func (s *store) GetVote(ctx context.Context, counterID string, participantID string) (entities.LedgerEntry, bool, error) {
	var row ledgerModel
	err := s.db.WithContext(ctx).
		Where("counter_id = ?", strings.TrimSpace(counterID)).
		Where("participant_id = ?", strings.TrimSpace(participantID)).
		Where("action = ?", string(entities.LedgerActionVote)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.LedgerEntry{}, false, nil
		}
		return entities.LedgerEntry{}, false, s.logError("escalation_repo_get_vote_failed", err,
			"counter_id", strings.TrimSpace(counterID),
			"participant_id", strings.TrimSpace(participantID),
		)
	}
	return row.toEntity(), true, nil
}

func (s *store) SaveEntry(ctx context.Context, entry entities.LedgerEntry) error {
	row := ledgerModelFromEntity(entry)
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     row.Status,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return s.logError("escalation_repo_save_entry_failed", create.Error,
			"entry_id", row.ID,
			"counter_id", row.CounterID,
			"participant_id", row.ParticipantID,
		)
	}
	return nil
}

func (s *store) ListEntries(ctx context.Context, counterID string) ([]entities.LedgerEntry, error) {
	var rows []ledgerModel
	if err := s.db.WithContext(ctx).
		Where("counter_id = ?", strings.TrimSpace(counterID)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, s.logError("escalation_repo_list_entries_failed", err, "counter_id", strings.TrimSpace(counterID))
	}
	items := make([]entities.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// SaveMember upserts a member record.
func (s *store) SaveMember(ctx context.Context, member entities.Member) error {
	row := familyMemberModelFromEntity(member)
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"family_id":           row.FamilyID,
			"tenant_id":           row.TenantID,
			"user_id":             row.UserID,
			"name":                row.Name,
			"is_deceased":         row.IsDeceased,
			"is_deceased_pending": row.IsDeceasedPending,
			"date_of_death":       row.DateOfDeath,
			"updated_at":          row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return s.logError("escalation_repo_save_member_failed", create.Error, "member_id", row.ID)
	}
	return nil
}

// SaveHolding upserts an investment or asset. Investments store the lock
// flag as is_hidden, assets as is_locked.
func (s *store) SaveHolding(ctx context.Context, holding entities.Holding) error {
	row := holdingModelFromEntity(holding)
	tx, err := s.holdings(ctx, holding.Kind)
	if err != nil {
		return err
	}
	lockColumn := lockColumnFor(holding.Kind)
	values := map[string]any{
		"id":              row.ID,
		"family_id":       row.FamilyID,
		"tenant_id":       row.TenantID,
		"owner_member_id": row.OwnerMemberID,
		"name":            row.Name,
		lockColumn:        holding.Locked,
		"pin_hash":        row.PINHash,
		"sealed_payload":  row.SealedPayload,
		"payload":         row.Payload,
		"updated_at":      row.UpdatedAt,
	}
	updates := make(map[string]any, len(values)-1)
	for column, value := range values {
		if column != "id" {
			updates[column] = value
		}
	}
	create := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(values)
	if create.Error != nil {
		return s.logError("escalation_repo_save_holding_failed", create.Error,
			"kind", string(holding.Kind),
			"holding_id", row.ID,
		)
	}
	return nil
}

func (s *store) ListLockedHoldingsByOwner(ctx context.Context, familyID string, memberID string) ([]entities.Holding, error) {
	items := make([]entities.Holding, 0)
	for _, kind := range []entities.SubjectKind{entities.SubjectKindAsset, entities.SubjectKindInvestment} {
		tx, err := s.holdings(ctx, kind)
		if err != nil {
			return nil, err
		}
		var rows []holdingModel
		if err := tx.
			Where("family_id = ?", strings.TrimSpace(familyID)).
			Where("owner_member_id = ?", strings.TrimSpace(memberID)).
			Where(lockColumnFor(kind)+" = ?", true).
			Order("id ASC").
			Find(&rows).Error; err != nil {
			return nil, s.logError("escalation_repo_list_locked_holdings_failed", err,
				"kind", string(kind),
				"member_id", strings.TrimSpace(memberID),
			)
		}
		for _, row := range rows {
			items = append(items, row.toEntity(kind))
		}
	}
	return items, nil
}

func (s *store) UpsertFamilyRole(ctx context.Context, role entities.FamilyRole) error {
	row := familyRoleModelFromEntity(role)
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "family_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"tenant_id":  row.TenantID,
			"role":       row.Role,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return s.logError("escalation_repo_upsert_role_failed", create.Error,
			"family_id", row.FamilyID,
			"user_id", row.UserID,
		)
	}
	return nil
}

// ForceFamilyRole deletes and re-inserts the role row.
func (s *store) ForceFamilyRole(ctx context.Context, role entities.FamilyRole) error {
	row := familyRoleModelFromEntity(role)
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", row.FamilyID).
		Where("user_id = ?", row.UserID).
		Delete(&familyRoleModel{}).Error; err != nil {
		return s.logError("escalation_repo_force_role_delete_failed", err,
			"family_id", row.FamilyID,
			"user_id", row.UserID,
		)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return s.logError("escalation_repo_force_role_insert_failed", err,
			"family_id", row.FamilyID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (s *store) SaveAcknowledgement(ctx context.Context, ack entities.Acknowledgement) error {
	row := acknowledgementModel{
		CounterID: strings.TrimSpace(ack.CounterID),
		UserID:    strings.TrimSpace(ack.UserID),
		CreatedAt: ack.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {
		return s.logError("escalation_repo_save_ack_failed", err,
			"counter_id", row.CounterID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (s *store) HasAcknowledged(ctx context.Context, counterID string, userIDs []string) (bool, error) {
	if len(userIDs) == 0 {
		return false, nil
	}
	var acks int64
	if err := s.db.WithContext(ctx).
		Model(&acknowledgementModel{}).
		Where("counter_id = ?", strings.TrimSpace(counterID)).
		Where("user_id IN ?", userIDs).
		Count(&acks).Error; err != nil {
		return false, s.logError("escalation_repo_count_acks_failed", err, "counter_id", strings.TrimSpace(counterID))
	}
	if acks > 0 {
		return true, nil
	}
	var reads int64
	if err := s.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("counter_id = ?", strings.TrimSpace(counterID)).
		Where("user_id IN ?", userIDs).
		Where("read_at IS NOT NULL").
		Count(&reads).Error; err != nil {
		return false, s.logError("escalation_repo_count_reads_failed", err, "counter_id", strings.TrimSpace(counterID))
	}
	return reads > 0, nil
}

func (s *store) holdings(ctx context.Context, kind entities.SubjectKind) (*gorm.DB, error) {
	switch kind {
	case entities.SubjectKindInvestment:
		return s.db.WithContext(ctx).Table(investmentsTable), nil
	case entities.SubjectKindAsset:
		return s.db.WithContext(ctx).Table(assetsTable), nil
	default:
		return nil, domainerrors.Validation("subject_kind", domainerrors.ErrInvalidInput)
	}
}

func (s *store) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "household-governance/escalation-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("escalation repository operation failed", fields...)
	return err
}
