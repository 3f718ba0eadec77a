package services

import (
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
)

const (
	DefaultRequestThreshold = 3
	DefaultCooldown         = 48 * time.Hour
)

// Policy parameterizes the shared escalation engine for one workflow kind.
type Policy struct {
	Workflow    entities.WorkflowKind
	SubjectKind entities.SubjectKind

	// Votes are recorded per participant and may deny; requests are counted.
	Vote             bool
	DenyShortCircuit bool
	RequestThreshold int
	Cooldown         time.Duration

	// AdminOverride enables explicit approve/reject on pending counters.
	AdminOverride bool
	// ResolveWithoutAdmins escalates immediately when the family has no
	// active administrator left to answer.
	ResolveWithoutAdmins bool
	// RequireUnacknowledged blocks auto-resolution once an administrator has
	// acknowledged the counter.
	RequireUnacknowledged bool
	// AdministrativeRequesters limits requests to OWNER/ADMIN holders.
	AdministrativeRequesters bool
}

// Policies indexes the policy of every workflow the engine serves.
type Policies map[entities.WorkflowKind]Policy

// DefaultPolicies returns the production table: two-day cooldown and three
// requests for every request workflow.
func DefaultPolicies() Policies {
	return NewPolicies(DefaultCooldown, DefaultRequestThreshold)
}

func NewPolicies(cooldown time.Duration, requestThreshold int) Policies {
	if cooldown < 0 {
		cooldown = DefaultCooldown
	}
	if requestThreshold <= 0 {
		requestThreshold = DefaultRequestThreshold
	}
	return Policies{
		entities.WorkflowDeceasedVote: {
			Workflow:         entities.WorkflowDeceasedVote,
			SubjectKind:      entities.SubjectKindMember,
			Vote:             true,
			DenyShortCircuit: true,
		},
		entities.WorkflowInvestmentUnlock: {
			Workflow:                 entities.WorkflowInvestmentUnlock,
			SubjectKind:              entities.SubjectKindInvestment,
			RequestThreshold:         requestThreshold,
			Cooldown:                 cooldown,
			AdminOverride:            true,
			AdministrativeRequesters: true,
		},
		entities.WorkflowAssetUnlock: {
			Workflow:                 entities.WorkflowAssetUnlock,
			SubjectKind:              entities.SubjectKindAsset,
			RequestThreshold:         requestThreshold,
			Cooldown:                 cooldown,
			AdministrativeRequesters: true,
		},
		entities.WorkflowRolePromotion: {
			Workflow:              entities.WorkflowRolePromotion,
			SubjectKind:           entities.SubjectKindRoleRequest,
			RequestThreshold:      requestThreshold,
			Cooldown:              cooldown,
			AdminOverride:         true,
			ResolveWithoutAdmins:  true,
			RequireUnacknowledged: true,
		},
	}
}

func (p Policies) For(workflow entities.WorkflowKind) (Policy, error) {
	policy, ok := p[workflow]
	if !ok {
		return Policy{}, domainerrors.Validation("workflow", domainerrors.ErrUnknownWorkflow)
	}
	return policy, nil
}

// RequiredCount is the number of approvals or requests needed to resolve.
// Vote quorum is max(1, familySize-1), capped by the voters actually able to
// vote so a family with account-less members can still reach it.
func (p Policy) RequiredCount(familySize int, voters int) int {
	if !p.Vote {
		return p.RequestThreshold
	}
	required := familySize - 1
	if voters > 0 && required > voters {
		required = voters
	}
	if required < 1 {
		required = 1
	}
	return required
}

// IsUnlock reports whether the workflow strips protection from a holding.
func (p Policy) IsUnlock() bool {
	return p.SubjectKind == entities.SubjectKindInvestment || p.SubjectKind == entities.SubjectKindAsset
}
