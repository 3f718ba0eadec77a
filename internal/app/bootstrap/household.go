package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	postgresadapter "hearth/contexts/household-governance/escalation-engine/adapters/postgres"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	"hearth/contexts/household-governance/escalation-engine/ports"

	"gopkg.in/yaml.v3"
)

// Household is the YAML fixture accepted by ImportHousehold.
type Household struct {
	FamilyID string `yaml:"family_id"`
	TenantID string `yaml:"tenant_id"`
	Members  []struct {
		ID       string `yaml:"id"`
		UserID   string `yaml:"user_id"`
		Name     string `yaml:"name"`
		Deceased bool   `yaml:"deceased"`
	} `yaml:"members"`
	Roles []struct {
		UserID string `yaml:"user_id"`
		Role   string `yaml:"role"`
	} `yaml:"roles"`
	Holdings []struct {
		ID      string `yaml:"id"`
		Kind    string `yaml:"kind"`
		Owner   string `yaml:"owner"`
		Name    string `yaml:"name"`
		Locked  bool   `yaml:"locked"`
		PINHash string `yaml:"pin_hash"`
		Secret  string `yaml:"secret"`
	} `yaml:"holdings"`
}

// ImportHousehold decodes a household fixture and upserts its members, roles
// and holdings. Holding secrets are sealed for the tenant when a sealing key
// is configured.
func (a *App) ImportHousehold(ctx context.Context, r io.Reader) (Household, error) {
	var household Household
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&household); err != nil {
		return Household{}, fmt.Errorf("decode household: %w", err)
	}
	household.FamilyID = strings.TrimSpace(household.FamilyID)
	if household.FamilyID == "" {
		return Household{}, errors.New("household family_id is required")
	}

	now := postgresadapter.SystemClock{}.Now()
	err := a.Repository.WithinTx(ctx, func(ctx context.Context, tx ports.TxStore) error {
		for _, member := range household.Members {
			record := entities.Member{
				MemberID:   member.ID,
				FamilyID:   household.FamilyID,
				TenantID:   household.TenantID,
				UserID:     member.UserID,
				Name:       member.Name,
				IsDeceased: member.Deceased,
				UpdatedAt:  now,
			}
			if member.Deceased {
				day := now.Truncate(24 * time.Hour)
				record.DateOfDeath = &day
			}
			if err := tx.SaveMember(ctx, record); err != nil {
				return err
			}
		}
		for _, role := range household.Roles {
			parsed := entities.ParseRole(role.Role)
			if parsed == "" {
				return fmt.Errorf("unknown role %q for user %s", role.Role, role.UserID)
			}
			if err := tx.UpsertFamilyRole(ctx, entities.FamilyRole{
				FamilyID:  household.FamilyID,
				TenantID:  household.TenantID,
				UserID:    role.UserID,
				Role:      parsed,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
		}
		for _, holding := range household.Holdings {
			kind := entities.SubjectKind(holding.Kind)
			if kind != entities.SubjectKindInvestment && kind != entities.SubjectKindAsset {
				return fmt.Errorf("unknown holding kind %q for %s", holding.Kind, holding.ID)
			}
			record := entities.Holding{
				HoldingID:     holding.ID,
				Kind:          kind,
				FamilyID:      household.FamilyID,
				TenantID:      household.TenantID,
				OwnerMemberID: holding.Owner,
				Name:          holding.Name,
				Locked:        holding.Locked,
				PINHash:       holding.PINHash,
				UpdatedAt:     now,
			}
			if holding.Secret != "" {
				if err := a.sealSecret(ctx, &record, []byte(holding.Secret)); err != nil {
					return err
				}
			}
			if err := tx.SaveHolding(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Household{}, err
	}
	a.logger.Info("household imported",
		"event", "bootstrap_household_imported",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"family_id", household.FamilyID,
		"members", len(household.Members),
		"roles", len(household.Roles),
		"holdings", len(household.Holdings),
	)
	return household, nil
}

// sealSecret stores secret sealed while the holding is locked and in the
// clear otherwise.
func (a *App) sealSecret(ctx context.Context, holding *entities.Holding, secret []byte) error {
	if !holding.Locked || a.sealer == nil {
		holding.Payload = secret
		return nil
	}
	sealed, err := a.sealer.Seal(ctx, holding.TenantID, secret)
	if err != nil {
		return fmt.Errorf("seal holding %s: %w", holding.HoldingID, err)
	}
	holding.SealedPayload = sealed
	return nil
}
