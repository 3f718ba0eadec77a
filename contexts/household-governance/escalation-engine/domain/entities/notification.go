package entities

import "time"

type NotificationType string

const (
	NotificationDeceasedVoteRequested NotificationType = "deceased_vote_requested"
	NotificationDeceasedVoteProgress  NotificationType = "deceased_vote_progress"
	NotificationMemberMarkedDeceased  NotificationType = "member_marked_deceased"
	NotificationDeceasedVoteDenied    NotificationType = "deceased_vote_denied"
	NotificationUnlockRequested       NotificationType = "unlock_requested"
	NotificationUnlockRecorded        NotificationType = "unlock_request_recorded"
	NotificationHoldingUnlocked       NotificationType = "holding_unlocked"
	NotificationUnlockRejected        NotificationType = "unlock_rejected"
	NotificationRolePromotionRequest  NotificationType = "role_promotion_requested"
	NotificationRoleRequestRecorded   NotificationType = "role_request_recorded"
	NotificationRolePromoted          NotificationType = "role_promoted"
	NotificationRoleRequestRejected   NotificationType = "role_request_rejected"
	NotificationRoleRequestNoted      NotificationType = "role_request_acknowledged"
)

// Notification is a user-targeted message. CounterID links it to the decision
// it reports on; ReadAt is set by the recipient's client.
type Notification struct {
	NotificationID string
	TenantID       string
	UserID         string
	Type           NotificationType
	Title          string
	Message        string
	CounterID      string
	Data           map[string]any
	CreatedAt      time.Time
	ReadAt         *time.Time
}

// Acknowledgement marks that an administrator has seen a pending counter.
type Acknowledgement struct {
	CounterID string
	UserID    string
	CreatedAt time.Time
}
