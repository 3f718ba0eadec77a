package services

import (
	"sort"
	"strings"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
)

// EligibleParticipants returns the sorted user ids that may act in a family:
// every role holder plus every living member linked to an account, without
// excludeUserID. Users linked only to deceased members are not eligible.
func EligibleParticipants(roles []entities.FamilyRole, members []entities.Member, excludeUserID string) []string {
	deceased := deceasedUsers(members)
	seen := make(map[string]struct{}, len(roles)+len(members))
	add := func(userID string) {
		userID = strings.TrimSpace(userID)
		if userID == "" || userID == strings.TrimSpace(excludeUserID) {
			return
		}
		if _, dead := deceased[userID]; dead {
			return
		}
		seen[userID] = struct{}{}
	}
	for _, role := range roles {
		if role.Role == "" {
			continue
		}
		add(role.UserID)
	}
	for _, member := range members {
		if member.IsDeceased {
			continue
		}
		add(member.UserID)
	}

	out := make([]string, 0, len(seen))
	for userID := range seen {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// TotalFamilyMemberCount counts living members plus owners who are not
// already represented by a member record.
func TotalFamilyMemberCount(roles []entities.FamilyRole, members []entities.Member) int {
	linked := make(map[string]struct{}, len(members))
	total := 0
	for _, member := range members {
		if member.UserID != "" {
			linked[member.UserID] = struct{}{}
		}
		if !member.IsDeceased {
			total++
		}
	}
	for _, role := range roles {
		if role.Role != entities.RoleOwner {
			continue
		}
		if _, ok := linked[role.UserID]; ok {
			continue
		}
		total++
	}
	return total
}

// ActiveAdministrators returns the sorted OWNER/ADMIN user ids whose linked
// member record, if any, is not deceased.
func ActiveAdministrators(roles []entities.FamilyRole, members []entities.Member) []string {
	deceased := deceasedUsers(members)
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if !role.Role.IsAdministrative() {
			continue
		}
		if _, dead := deceased[role.UserID]; dead {
			continue
		}
		out = append(out, role.UserID)
	}
	sort.Strings(out)
	return out
}

// RoleOf returns the role a user holds in the family.
func RoleOf(roles []entities.FamilyRole, userID string) (entities.Role, bool) {
	for _, role := range roles {
		if role.UserID == userID && role.Role != "" {
			return role.Role, true
		}
	}
	return "", false
}

func Contains(userIDs []string, userID string) bool {
	i := sort.SearchStrings(userIDs, userID)
	return i < len(userIDs) && userIDs[i] == userID
}

func deceasedUsers(members []entities.Member) map[string]struct{} {
	out := make(map[string]struct{})
	for _, member := range members {
		if member.IsDeceased && member.UserID != "" {
			out[member.UserID] = struct{}{}
		}
	}
	return out
}
