package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/ports"
)

// RoleLookupUseCase answers "what role does this user hold in the family"
// cache-first. Promotions invalidate the entry after commit.
type RoleLookupUseCase struct {
	Roles  ports.RoleReader
	Cache  ports.RoleCache
	Clock  ports.Clock
	TTL    time.Duration
	Logger *slog.Logger
}

// RoleLookup is the result of a role query. Role is empty when the user holds
// no role in the family.
type RoleLookup struct {
	FamilyID string
	UserID   string
	Role     entities.Role
	CacheHit bool
}

func (u RoleLookupUseCase) RoleOf(ctx context.Context, familyID string, userID string) (RoleLookup, error) {
	familyID = strings.TrimSpace(familyID)
	userID = strings.TrimSpace(userID)
	if familyID == "" {
		return RoleLookup{}, domainerrors.Validation("family_id", domainerrors.ErrInvalidInput)
	}
	if userID == "" {
		return RoleLookup{}, domainerrors.Validation("user_id", domainerrors.ErrInvalidInput)
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	if u.Cache != nil {
		role, hit, err := u.Cache.Get(ctx, familyID, userID, now)
		if err != nil {
			logger.Warn("role cache read failed",
				"event", "escalation_role_cache_read_failed",
				"module", "household-governance/escalation-engine",
				"layer", "application",
				"family_id", familyID,
				"user_id", userID,
				"error", err.Error(),
			)
		} else if hit {
			return RoleLookup{FamilyID: familyID, UserID: userID, Role: role, CacheHit: true}, nil
		}
	}

	assignment, found, err := u.Roles.GetFamilyRole(ctx, familyID, userID)
	if err != nil {
		logger.Error("role lookup failed",
			"event", "escalation_role_lookup_failed",
			"module", "household-governance/escalation-engine",
			"layer", "application",
			"family_id", familyID,
			"user_id", userID,
			"error", err.Error(),
		)
		return RoleLookup{}, err
	}
	var role entities.Role
	if found {
		role = assignment.Role
	}
	if u.Cache != nil {
		_ = u.Cache.Set(ctx, familyID, userID, role, now.Add(u.cacheTTL()))
	}
	return RoleLookup{FamilyID: familyID, UserID: userID, Role: role}, nil
}

func (u RoleLookupUseCase) cacheTTL() time.Duration {
	if u.TTL <= 0 {
		return 5 * time.Minute
	}
	return u.TTL
}

func (u RoleLookupUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
