package commands

import (
	"fmt"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
)

func resolutionNotice(policy services.Policy, status entities.CounterStatus) entities.NotificationType {
	affirmative := status.Affirmative()
	switch {
	case policy.Workflow == entities.WorkflowDeceasedVote:
		if affirmative {
			return entities.NotificationMemberMarkedDeceased
		}
		return entities.NotificationDeceasedVoteDenied
	case policy.IsUnlock():
		if affirmative {
			return entities.NotificationHoldingUnlocked
		}
		return entities.NotificationUnlockRejected
	default:
		if affirmative {
			return entities.NotificationRolePromoted
		}
		return entities.NotificationRoleRequestRejected
	}
}

func noticeText(kind entities.NotificationType, counter entities.Counter, required int) (string, string) {
	subject := string(counter.Subject.Kind)
	switch kind {
	case entities.NotificationDeceasedVoteRequested:
		return "Deceased status vote",
			"A family member asked to mark this member as deceased. Please cast your vote."
	case entities.NotificationDeceasedVoteProgress:
		return "Deceased status vote update",
			fmt.Sprintf("%d of %d approvals recorded.", counter.Count, required)
	case entities.NotificationMemberMarkedDeceased:
		return "Member marked as deceased",
			"The family approved the deceased status. Protected records owned by the member are now unlocked."
	case entities.NotificationDeceasedVoteDenied:
		return "Deceased status vote denied",
			"A family member denied the request. The member's status is unchanged."
	case entities.NotificationUnlockRequested:
		return "Unlock requested",
			fmt.Sprintf("An administrator asked to unlock a protected %s (%d of %d requests).", subject, counter.Count, required)
	case entities.NotificationUnlockRecorded:
		return "Unlock request recorded",
			fmt.Sprintf("Your request to unlock this %s was recorded (%d of %d).", subject, counter.Count, required)
	case entities.NotificationHoldingUnlocked:
		return "Record unlocked",
			fmt.Sprintf("The protected %s is now visible to the family.", subject)
	case entities.NotificationUnlockRejected:
		return "Unlock request rejected",
			fmt.Sprintf("An administrator rejected the request to unlock this %s.", subject)
	case entities.NotificationRolePromotionRequest:
		return "Admin role requested",
			fmt.Sprintf("A family member asked to become an administrator (%d of %d requests). Acknowledge it to review before it is granted.", counter.Count, required)
	case entities.NotificationRoleRequestRecorded:
		return "Role request recorded",
			fmt.Sprintf("Your request to become an administrator was recorded (%d of %d).", counter.Count, required)
	case entities.NotificationRolePromoted:
		return "Administrator role granted",
			"The administrator role was granted."
	case entities.NotificationRoleRequestRejected:
		return "Role request rejected",
			"An administrator rejected the request for the administrator role."
	case entities.NotificationRoleRequestNoted:
		return "Role request under review",
			"An administrator has seen your request and will review it."
	default:
		return string(kind), ""
	}
}
