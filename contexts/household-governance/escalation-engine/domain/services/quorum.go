package services

import "hearth/contexts/household-governance/escalation-engine/domain/entities"

// Decision is the quorum resolver's verdict for a pending counter.
type Decision string

const (
	DecisionStayPending  Decision = "stay_pending"
	DecisionApprove      Decision = "approve"
	DecisionDeny         Decision = "deny"
	DecisionAutoEscalate Decision = "auto_escalate"
)

func (d Decision) IsTerminal() bool {
	return d == DecisionApprove || d == DecisionDeny || d == DecisionAutoEscalate
}

// CounterStatus maps a terminal decision to the counter status it produces.
func (d Decision) CounterStatus() entities.CounterStatus {
	switch d {
	case DecisionApprove:
		return entities.CounterStatusApproved
	case DecisionDeny:
		return entities.CounterStatusDenied
	case DecisionAutoEscalate:
		return entities.CounterStatusAutoResolved
	default:
		return entities.CounterStatusPending
	}
}

// VoteState is the input of a vote-workflow resolution.
type VoteState struct {
	Tally      entities.Tally
	FamilySize int
	Voters     int
}

// RequestState is the input of a request-workflow resolution.
type RequestState struct {
	Count        int
	ActiveAdmins int
	Acknowledged bool
}

// ResolveVote decides a vote counter. A single denial ends the round no
// matter how many approvals were cast.
func (p Policy) ResolveVote(state VoteState) Decision {
	if p.DenyShortCircuit && state.Tally.Denied > 0 {
		return DecisionDeny
	}
	if state.Tally.Approved >= p.RequiredCount(state.FamilySize, state.Voters) {
		return DecisionApprove
	}
	return DecisionStayPending
}

// ResolveRequest decides a request counter.
func (p Policy) ResolveRequest(state RequestState) Decision {
	if p.ResolveWithoutAdmins && state.ActiveAdmins == 0 && state.Count > 0 {
		return DecisionAutoEscalate
	}
	if state.Count < p.RequestThreshold {
		return DecisionStayPending
	}
	if p.RequireUnacknowledged && state.Acknowledged {
		return DecisionStayPending
	}
	return DecisionAutoEscalate
}
