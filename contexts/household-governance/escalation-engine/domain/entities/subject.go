package entities

import "time"

// SubjectKind names the entity a pending decision governs.
type SubjectKind string

const (
	SubjectKindMember      SubjectKind = "member"
	SubjectKindInvestment  SubjectKind = "investment"
	SubjectKindAsset       SubjectKind = "asset"
	SubjectKindRoleRequest SubjectKind = "role_request"
)

// WorkflowKind selects the escalation policy applied to a counter.
type WorkflowKind string

const (
	WorkflowDeceasedVote     WorkflowKind = "deceased_vote"
	WorkflowInvestmentUnlock WorkflowKind = "investment_unlock"
	WorkflowAssetUnlock      WorkflowKind = "asset_unlock"
	WorkflowRolePromotion    WorkflowKind = "role_promotion"
)

// SubjectRef identifies a subject inside its family and tenant. For role
// requests ID is the requesting user id.
type SubjectRef struct {
	Kind     SubjectKind
	ID       string
	FamilyID string
	TenantID string
}

// Key is the family-scoped lock key of the subject.
func (r SubjectRef) Key() string {
	return string(r.Kind) + ":" + r.FamilyID + ":" + r.ID
}

// Member is a family member record. UserID is empty for members without a
// login account.
type Member struct {
	MemberID          string
	FamilyID          string
	TenantID          string
	UserID            string
	Name              string
	IsDeceased        bool
	IsDeceasedPending bool
	DateOfDeath       *time.Time
	UpdatedAt         time.Time
}

// Holding is a PIN-protected investment or asset owned by a member.
// Locked maps to is_hidden for investments and is_locked for assets.
type Holding struct {
	HoldingID     string
	Kind          SubjectKind
	FamilyID      string
	TenantID      string
	OwnerMemberID string
	Name          string
	Locked        bool
	PINHash       string
	SealedPayload []byte
	Payload       []byte
	UpdatedAt     time.Time
}
