package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/domain/services"
	"hearth/contexts/household-governance/escalation-engine/ports"
)

// CounterView is a counter with the tally and threshold it is measured against.
type CounterView struct {
	Counter  entities.Counter
	Tally    entities.Tally
	Required int
	Entries  []entities.LedgerEntry
}

// CounterQueryUseCase serves read-only views of escalation counters.
type CounterQueryUseCase struct {
	Counters ports.CounterReader
	Policies services.Policies
	Logger   *slog.Logger
}

func (u CounterQueryUseCase) CounterStatus(ctx context.Context, familyID string, counterID string) (CounterView, error) {
	familyID = strings.TrimSpace(familyID)
	counterID = strings.TrimSpace(counterID)
	if familyID == "" {
		return CounterView{}, domainerrors.Validation("family_id", domainerrors.ErrInvalidInput)
	}
	if counterID == "" {
		return CounterView{}, domainerrors.Validation("counter_id", domainerrors.ErrInvalidInput)
	}
	counter, err := u.Counters.GetCounter(ctx, counterID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrCounterNotFound) {
			return CounterView{}, domainerrors.Validation("counter_id", err)
		}
		return CounterView{}, err
	}
	if counter.Subject.FamilyID != familyID {
		return CounterView{}, domainerrors.Validation("counter_id", domainerrors.ErrCounterNotFound)
	}
	return u.view(ctx, counter)
}

// PendingCounters lists every open counter of a family with its progress.
func (u CounterQueryUseCase) PendingCounters(ctx context.Context, familyID string) ([]CounterView, error) {
	familyID = strings.TrimSpace(familyID)
	if familyID == "" {
		return nil, domainerrors.Validation("family_id", domainerrors.ErrInvalidInput)
	}
	counters, err := u.Counters.ListPendingCountersByFamily(ctx, familyID)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("pending counter listing failed",
			"event", "escalation_pending_list_failed",
			"module", "household-governance/escalation-engine",
			"layer", "application",
			"family_id", familyID,
			"error", err.Error(),
		)
		return nil, err
	}
	views := make([]CounterView, 0, len(counters))
	for _, counter := range counters {
		view, err := u.view(ctx, counter)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (u CounterQueryUseCase) view(ctx context.Context, counter entities.Counter) (CounterView, error) {
	policy, err := u.Policies.For(counter.Workflow)
	if err != nil {
		return CounterView{}, err
	}
	entries, err := u.Counters.ListEntries(ctx, counter.CounterID)
	if err != nil {
		return CounterView{}, err
	}
	view := CounterView{
		Counter:  counter,
		Tally:    entities.TallyVotes(entries),
		Required: policy.RequestThreshold,
		Entries:  entries,
	}
	if policy.Vote {
		members, err := u.Counters.ListFamilyMembers(ctx, counter.Subject.FamilyID)
		if err != nil {
			return CounterView{}, err
		}
		roles, err := u.Counters.ListFamilyRoles(ctx, counter.Subject.FamilyID)
		if err != nil {
			return CounterView{}, err
		}
		excluded := ""
		for _, member := range members {
			if member.MemberID == counter.Subject.ID {
				excluded = member.UserID
				break
			}
		}
		voters := services.EligibleParticipants(roles, members, excluded)
		view.Required = policy.RequiredCount(services.TotalFamilyMemberCount(roles, members), len(voters))
	}
	return view, nil
}
