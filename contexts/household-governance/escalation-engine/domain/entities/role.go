package entities

import (
	"strings"
	"time"
)

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// IsAdministrative reports whether the role may act on unlock requests and
// admin decisions.
func (r Role) IsAdministrative() bool {
	return r == RoleOwner || r == RoleAdmin
}

// ParseRole normalizes stored role names; unknown values yield "".
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleOwner:
		return RoleOwner
	case RoleAdmin:
		return RoleAdmin
	case RoleMember:
		return RoleMember
	case RoleViewer:
		return RoleViewer
	default:
		return ""
	}
}

// FamilyRole grants a user a role inside one family.
type FamilyRole struct {
	FamilyID  string
	TenantID  string
	UserID    string
	Role      Role
	UpdatedAt time.Time
}
