package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
)

const (
	investmentsTable = "investments"
	assetsTable      = "assets"
)

type familyMemberModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	FamilyID          string     `gorm:"column:family_id;index"`
	TenantID          string     `gorm:"column:tenant_id"`
	UserID            *string    `gorm:"column:user_id;index"`
	Name              string     `gorm:"column:name"`
	IsDeceased        bool       `gorm:"column:is_deceased"`
	IsDeceasedPending bool       `gorm:"column:is_deceased_pending"`
	DateOfDeath       *time.Time `gorm:"column:date_of_death"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (familyMemberModel) TableName() string {
	return "family_members"
}

func familyMemberModelFromEntity(member entities.Member) familyMemberModel {
	row := familyMemberModel{
		ID:                strings.TrimSpace(member.MemberID),
		FamilyID:          strings.TrimSpace(member.FamilyID),
		TenantID:          strings.TrimSpace(member.TenantID),
		Name:              member.Name,
		IsDeceased:        member.IsDeceased,
		IsDeceasedPending: member.IsDeceasedPending,
		DateOfDeath:       normalizeOptionalTime(member.DateOfDeath),
		UpdatedAt:         member.UpdatedAt.UTC(),
	}
	if userID := strings.TrimSpace(member.UserID); userID != "" {
		row.UserID = &userID
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return row
}

func (m familyMemberModel) toEntity() entities.Member {
	userID := ""
	if m.UserID != nil {
		userID = *m.UserID
	}
	return entities.Member{
		MemberID:          m.ID,
		FamilyID:          m.FamilyID,
		TenantID:          m.TenantID,
		UserID:            userID,
		Name:              m.Name,
		IsDeceased:        m.IsDeceased,
		IsDeceasedPending: m.IsDeceasedPending,
		DateOfDeath:       normalizeOptionalTime(m.DateOfDeath),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

// holdingModel scans both holding tables; only the lock column of the
// queried table is populated.
type holdingModel struct {
	ID            string    `gorm:"column:id"`
	FamilyID      string    `gorm:"column:family_id"`
	TenantID      string    `gorm:"column:tenant_id"`
	OwnerMemberID string    `gorm:"column:owner_member_id"`
	Name          string    `gorm:"column:name"`
	IsHidden      bool      `gorm:"column:is_hidden"`
	IsLocked      bool      `gorm:"column:is_locked"`
	PINHash       string    `gorm:"column:pin_hash"`
	SealedPayload []byte    `gorm:"column:sealed_payload"`
	Payload       []byte    `gorm:"column:payload"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func holdingModelFromEntity(holding entities.Holding) holdingModel {
	row := holdingModel{
		ID:            strings.TrimSpace(holding.HoldingID),
		FamilyID:      strings.TrimSpace(holding.FamilyID),
		TenantID:      strings.TrimSpace(holding.TenantID),
		OwnerMemberID: strings.TrimSpace(holding.OwnerMemberID),
		Name:          holding.Name,
		IsHidden:      holding.Locked,
		IsLocked:      holding.Locked,
		PINHash:       holding.PINHash,
		SealedPayload: holding.SealedPayload,
		Payload:       holding.Payload,
		UpdatedAt:     holding.UpdatedAt.UTC(),
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return row
}

func (m holdingModel) toEntity(kind entities.SubjectKind) entities.Holding {
	locked := m.IsLocked
	if kind == entities.SubjectKindInvestment {
		locked = m.IsHidden
	}
	return entities.Holding{
		HoldingID:     m.ID,
		Kind:          kind,
		FamilyID:      m.FamilyID,
		TenantID:      m.TenantID,
		OwnerMemberID: m.OwnerMemberID,
		Name:          m.Name,
		Locked:        locked,
		PINHash:       m.PINHash,
		SealedPayload: m.SealedPayload,
		Payload:       m.Payload,
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func lockColumnFor(kind entities.SubjectKind) string {
	if kind == entities.SubjectKindInvestment {
		return "is_hidden"
	}
	return "is_locked"
}

// investmentModel and assetModel only define the schema for Migrate.
type investmentModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	FamilyID      string    `gorm:"column:family_id;index"`
	TenantID      string    `gorm:"column:tenant_id"`
	OwnerMemberID string    `gorm:"column:owner_member_id;index"`
	Name          string    `gorm:"column:name"`
	IsHidden      bool      `gorm:"column:is_hidden"`
	PINHash       string    `gorm:"column:pin_hash"`
	SealedPayload []byte    `gorm:"column:sealed_payload"`
	Payload       []byte    `gorm:"column:payload"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (investmentModel) TableName() string {
	return investmentsTable
}

type assetModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	FamilyID      string    `gorm:"column:family_id;index"`
	TenantID      string    `gorm:"column:tenant_id"`
	OwnerMemberID string    `gorm:"column:owner_member_id;index"`
	Name          string    `gorm:"column:name"`
	IsLocked      bool      `gorm:"column:is_locked"`
	PINHash       string    `gorm:"column:pin_hash"`
	SealedPayload []byte    `gorm:"column:sealed_payload"`
	Payload       []byte    `gorm:"column:payload"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (assetModel) TableName() string {
	return assetsTable
}

type familyRoleModel struct {
	FamilyID  string    `gorm:"column:family_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	TenantID  string    `gorm:"column:tenant_id"`
	Role      string    `gorm:"column:role"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (familyRoleModel) TableName() string {
	return "family_roles"
}

func familyRoleModelFromEntity(role entities.FamilyRole) familyRoleModel {
	row := familyRoleModel{
		FamilyID:  strings.TrimSpace(role.FamilyID),
		UserID:    strings.TrimSpace(role.UserID),
		TenantID:  strings.TrimSpace(role.TenantID),
		Role:      string(role.Role),
		UpdatedAt: role.UpdatedAt.UTC(),
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return row
}

func (m familyRoleModel) toEntity() entities.FamilyRole {
	return entities.FamilyRole{
		FamilyID:  m.FamilyID,
		TenantID:  m.TenantID,
		UserID:    m.UserID,
		Role:      entities.ParseRole(m.Role),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type counterModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	Workflow     string     `gorm:"column:workflow"`
	SubjectKind  string     `gorm:"column:subject_kind"`
	SubjectID    string     `gorm:"column:subject_id"`
	FamilyID     string     `gorm:"column:family_id;index"`
	TenantID     string     `gorm:"column:tenant_id"`
	OpenedBy     string     `gorm:"column:opened_by"`
	RequestedBy  string     `gorm:"column:requested_by"`
	Count        int        `gorm:"column:count"`
	Status       string     `gorm:"column:status;index"`
	LastActionAt *time.Time `gorm:"column:last_action_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at"`
	ResolvedBy   string     `gorm:"column:resolved_by"`
}

func (counterModel) TableName() string {
	return "escalation_counters"
}

func counterModelFromEntity(counter entities.Counter) counterModel {
	row := counterModel{
		ID:           strings.TrimSpace(counter.CounterID),
		Workflow:     string(counter.Workflow),
		SubjectKind:  string(counter.Subject.Kind),
		SubjectID:    strings.TrimSpace(counter.Subject.ID),
		FamilyID:     strings.TrimSpace(counter.Subject.FamilyID),
		TenantID:     strings.TrimSpace(counter.Subject.TenantID),
		OpenedBy:     strings.TrimSpace(counter.OpenedBy),
		RequestedBy:  strings.TrimSpace(counter.RequestedBy),
		Count:        counter.Count,
		Status:       string(counter.Status),
		LastActionAt: normalizeOptionalTime(counter.LastActionAt),
		CreatedAt:    counter.CreatedAt.UTC(),
		UpdatedAt:    counter.UpdatedAt.UTC(),
		ResolvedAt:   normalizeOptionalTime(counter.ResolvedAt),
		ResolvedBy:   strings.TrimSpace(counter.ResolvedBy),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m counterModel) toEntity() entities.Counter {
	return entities.Counter{
		CounterID: m.ID,
		Workflow:  entities.WorkflowKind(m.Workflow),
		Subject: entities.SubjectRef{
			Kind:     entities.SubjectKind(m.SubjectKind),
			ID:       m.SubjectID,
			FamilyID: m.FamilyID,
			TenantID: m.TenantID,
		},
		OpenedBy:     m.OpenedBy,
		RequestedBy:  m.RequestedBy,
		Count:        m.Count,
		Status:       entities.CounterStatus(m.Status),
		LastActionAt: normalizeOptionalTime(m.LastActionAt),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		ResolvedAt:   normalizeOptionalTime(m.ResolvedAt),
		ResolvedBy:   m.ResolvedBy,
	}
}

func toCounterEntities(rows []counterModel) []entities.Counter {
	items := make([]entities.Counter, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type ledgerModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	CounterID     string    `gorm:"column:counter_id;index"`
	ParticipantID string    `gorm:"column:participant_id"`
	Action        string    `gorm:"column:action"`
	Status        string    `gorm:"column:status"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (ledgerModel) TableName() string {
	return "escalation_ledger"
}

func ledgerModelFromEntity(entry entities.LedgerEntry) ledgerModel {
	row := ledgerModel{
		ID:            strings.TrimSpace(entry.EntryID),
		CounterID:     strings.TrimSpace(entry.CounterID),
		ParticipantID: strings.TrimSpace(entry.ParticipantID),
		Action:        string(entry.Action),
		Status:        string(entry.Status),
		CreatedAt:     entry.CreatedAt.UTC(),
		UpdatedAt:     entry.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m ledgerModel) toEntity() entities.LedgerEntry {
	return entities.LedgerEntry{
		EntryID:       m.ID,
		CounterID:     m.CounterID,
		ParticipantID: m.ParticipantID,
		Action:        entities.LedgerAction(m.Action),
		Status:        entities.BallotStatus(m.Status),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type acknowledgementModel struct {
	CounterID string    `gorm:"column:counter_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (acknowledgementModel) TableName() string {
	return "escalation_acknowledgements"
}

type notificationModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	TenantID  string     `gorm:"column:tenant_id"`
	UserID    string     `gorm:"column:user_id;index"`
	Type      string     `gorm:"column:type"`
	Title     string     `gorm:"column:title"`
	Message   string     `gorm:"column:message"`
	CounterID string     `gorm:"column:counter_id;index"`
	Data      string     `gorm:"column:data"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	ReadAt    *time.Time `gorm:"column:read_at"`
}

func (notificationModel) TableName() string {
	return "notifications"
}

func (m notificationModel) toEntity() entities.Notification {
	var data map[string]any
	if strings.TrimSpace(m.Data) != "" {
		_ = json.Unmarshal([]byte(m.Data), &data)
	}
	return entities.Notification{
		NotificationID: m.ID,
		TenantID:       m.TenantID,
		UserID:         m.UserID,
		Type:           entities.NotificationType(m.Type),
		Title:          m.Title,
		Message:        m.Message,
		CounterID:      m.CounterID,
		Data:           data,
		CreatedAt:      m.CreatedAt.UTC(),
		ReadAt:         normalizeOptionalTime(m.ReadAt),
	}
}

type subjectLockModel struct {
	LockKey   string    `gorm:"column:lock_key;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (subjectLockModel) TableName() string {
	return "escalation_subject_locks"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
