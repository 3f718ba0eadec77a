// Package escalationengine implements household consensus and escalation
// inside the household-governance context.
//
// One threshold-escalation engine serves four workflows: the family vote that
// marks a member deceased, unlock requests for a deceased member's protected
// investments and assets, and self-requested promotion to the ADMIN role.
// Each workflow is a policy over the same counter, ledger and cooldown
// machinery. Every mutation runs under the subject's row lock in a single
// transaction that is retried on write-write conflicts; notifications and
// role-cache invalidation happen after commit.
package escalationengine
