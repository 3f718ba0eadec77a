package entities

import "time"

type CounterStatus string

const (
	CounterStatusPending      CounterStatus = "pending"
	CounterStatusApproved     CounterStatus = "approved"
	CounterStatusDenied       CounterStatus = "denied"
	CounterStatusAutoResolved CounterStatus = "auto_resolved"
	CounterStatusRejected     CounterStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change.
func (s CounterStatus) IsTerminal() bool {
	switch s {
	case CounterStatusApproved, CounterStatusDenied, CounterStatusAutoResolved, CounterStatusRejected:
		return true
	default:
		return false
	}
}

// Affirmative reports whether a terminal status applied the workflow's consequence.
func (s CounterStatus) Affirmative() bool {
	return s == CounterStatusApproved || s == CounterStatusAutoResolved
}

// Counter is the running tally of one pending decision. OpenedBy is the first
// actor, RequestedBy the most recent one.
type Counter struct {
	CounterID    string
	Workflow     WorkflowKind
	Subject      SubjectRef
	OpenedBy     string
	RequestedBy  string
	Count        int
	Status       CounterStatus
	LastActionAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
	ResolvedBy   string
}

func (c Counter) IsPending() bool {
	return c.Status == CounterStatusPending
}
