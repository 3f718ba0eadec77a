package http

import "time"

type ErrorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Field         string `json:"field,omitempty"`
	DaysRemaining int    `json:"days_remaining,omitempty"`
}

type StartDeceasedVoteRequest struct {
	InitiatorID string `json:"initiator_id"`
}

type CastVoteRequest struct {
	VoterID string `json:"voter_id"`
	Vote    string `json:"vote"`
}

type CreateRequestRequest struct {
	Workflow    string `json:"workflow"`
	SubjectID   string `json:"subject_id,omitempty"`
	RequesterID string `json:"requester_id"`
}

type AdminDecisionRequest struct {
	AdminID string `json:"admin_id"`
}

type TallyResponse struct {
	Approved int `json:"approved"`
	Denied   int `json:"denied"`
	Pending  int `json:"pending"`
}

type CounterResponse struct {
	CounterID    string        `json:"counter_id"`
	Workflow     string        `json:"workflow"`
	SubjectKind  string        `json:"subject_kind"`
	SubjectID    string        `json:"subject_id"`
	FamilyID     string        `json:"family_id"`
	Status       string        `json:"status"`
	Count        int           `json:"count"`
	Required     int           `json:"required"`
	Tally        TallyResponse `json:"tally"`
	OpenedBy     string        `json:"opened_by"`
	RequestedBy  string        `json:"requested_by"`
	LastActionAt *time.Time    `json:"last_action_at,omitempty"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy   string        `json:"resolved_by,omitempty"`
}

type OutcomeResponse struct {
	Counter  CounterResponse `json:"counter"`
	Decision string          `json:"decision"`
	Replayed bool            `json:"replayed"`
}

type PendingCountersResponse struct {
	Items []CounterResponse `json:"items"`
}

type RoleResponse struct {
	FamilyID string `json:"family_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
}

type NotificationResponse struct {
	NotificationID string         `json:"notification_id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	CounterID      string         `json:"counter_id,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
}

type NotificationsResponse struct {
	Items []NotificationResponse `json:"items"`
}

type MarkReadRequest struct {
	CounterID string `json:"counter_id"`
}

type MarkReadResponse struct {
	Marked int64 `json:"marked"`
}
