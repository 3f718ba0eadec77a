package postgresadapter

import (
	"context"
	"fmt"
)

// partialIndexes keep at most one pending counter per workflow and subject,
// and one vote per participant and counter. Both PostgreSQL and SQLite accept
// the statements as written.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS escalation_counters_one_pending
		ON escalation_counters (workflow, subject_kind, family_id, subject_id)
		WHERE status = 'pending'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS escalation_ledger_one_vote
		ON escalation_ledger (counter_id, participant_id)
		WHERE action = 'vote'`,
}

// Migrate creates or updates the engine's tables and indexes.
func (r *Repository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&familyMemberModel{},
		&investmentModel{},
		&assetModel{},
		&familyRoleModel{},
		&counterModel{},
		&ledgerModel{},
		&acknowledgementModel{},
		&notificationModel{},
		&subjectLockModel{},
	); err != nil {
		return r.logError("escalation_repo_migrate_failed", err)
	}
	for _, statement := range partialIndexes {
		if err := db.Exec(statement).Error; err != nil {
			return r.logError("escalation_repo_migrate_index_failed", fmt.Errorf("create partial index: %w", err))
		}
	}
	return nil
}
