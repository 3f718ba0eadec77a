package services

import (
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
)

const day = 24 * time.Hour

// CooldownResult reports whether the next action on a counter may proceed.
type CooldownResult struct {
	Allowed       bool
	NextAllowedAt time.Time
	DaysRemaining int
}

// CheckCooldown throttles the cadence of a pending counter as a whole, not
// per participant. It never mutates the counter.
func CheckCooldown(counter entities.Counter, now time.Time, cooldown time.Duration) CooldownResult {
	if cooldown <= 0 || !counter.IsPending() || counter.LastActionAt == nil {
		return CooldownResult{Allowed: true}
	}
	next := counter.LastActionAt.UTC().Add(cooldown)
	remaining := next.Sub(now.UTC())
	if remaining <= 0 {
		return CooldownResult{Allowed: true, NextAllowedAt: next}
	}
	days := int((remaining + day - 1) / day)
	return CooldownResult{
		Allowed:       false,
		NextAllowedAt: next,
		DaysRemaining: days,
	}
}
