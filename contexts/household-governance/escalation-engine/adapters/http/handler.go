package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	application "hearth/contexts/household-governance/escalation-engine/application"
	"hearth/contexts/household-governance/escalation-engine/application/commands"
	"hearth/contexts/household-governance/escalation-engine/application/queries"
	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	httptransport "hearth/contexts/household-governance/escalation-engine/transport/http"
)

type Handler struct {
	Escalations commands.EscalationUseCase
	Counters    queries.CounterQueryUseCase
	Roles       queries.RoleLookupUseCase
	Inbox       queries.InboxUseCase
	Logger      *slog.Logger
}

// StartDeceasedVoteHandler godoc
// @Summary Open a deceased vote
// @Description Opens a vote on marking a family member deceased. The initiator's approval is recorded immediately.
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param family_id path string true "Family id"
// @Param member_id path string true "Member id"
// @Param request body httptransport.StartDeceasedVoteRequest true "Initiator"
// @Success 200 {object} httptransport.OutcomeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/members/{member_id}/deceased-vote [post]
func (h Handler) StartDeceasedVoteHandler(
	ctx context.Context,
	familyID string,
	memberID string,
	req httptransport.StartDeceasedVoteRequest,
) (httptransport.OutcomeResponse, error) {
	outcome, err := h.Escalations.StartDeceasedVote(ctx, commands.StartDeceasedVoteCommand{
		FamilyID:    familyID,
		MemberID:    memberID,
		InitiatorID: req.InitiatorID,
	})
	if err != nil {
		return httptransport.OutcomeResponse{}, h.failed("start_deceased_vote", err)
	}
	return mapOutcome(outcome), nil
}

// CastVoteHandler godoc
// @Summary Cast a deceased vote ballot
// @Description Records an approve or deny ballot. Re-casting a settled ballot is a no-op.
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param family_id path string true "Family id"
// @Param member_id path string true "Member id"
// @Param request body httptransport.CastVoteRequest true "Ballot"
// @Success 200 {object} httptransport.OutcomeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/members/{member_id}/deceased-vote/ballots [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	familyID string,
	memberID string,
	req httptransport.CastVoteRequest,
) (httptransport.OutcomeResponse, error) {
	outcome, err := h.Escalations.CastVote(ctx, commands.CastVoteCommand{
		FamilyID: familyID,
		MemberID: memberID,
		VoterID:  req.VoterID,
		Vote:     entities.BallotStatus(req.Vote),
	})
	if err != nil {
		return httptransport.OutcomeResponse{}, h.failed("cast_vote", err)
	}
	return mapOutcome(outcome), nil
}

// CreateRequestHandler godoc
// @Summary Record an escalation request
// @Description Records an investment unlock, asset unlock or role promotion request and resolves it once the threshold is met.
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param family_id path string true "Family id"
// @Param request body httptransport.CreateRequestRequest true "Request"
// @Success 200 {object} httptransport.OutcomeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 429 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/requests [post]
func (h Handler) CreateRequestHandler(
	ctx context.Context,
	familyID string,
	req httptransport.CreateRequestRequest,
) (httptransport.OutcomeResponse, error) {
	outcome, err := h.Escalations.CreateRequest(ctx, commands.CreateRequestCommand{
		Workflow:    entities.WorkflowKind(req.Workflow),
		FamilyID:    familyID,
		SubjectID:   req.SubjectID,
		RequesterID: req.RequesterID,
	})
	if err != nil {
		return httptransport.OutcomeResponse{}, h.failed("create_request", err)
	}
	return mapOutcome(outcome), nil
}

// ApproveHandler godoc
// @Summary Approve a pending request
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param family_id path string true "Family id"
// @Param counter_id path string true "Counter id"
// @Param request body httptransport.AdminDecisionRequest true "Administrator"
// @Success 200 {object} httptransport.OutcomeResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/counters/{counter_id}/approve [post]
func (h Handler) ApproveHandler(
	ctx context.Context,
	familyID string,
	counterID string,
	req httptransport.AdminDecisionRequest,
) (httptransport.OutcomeResponse, error) {
	outcome, err := h.Escalations.ApproveRequest(ctx, commands.AdminDecisionCommand{
		CounterID: counterID,
		FamilyID:  familyID,
		AdminID:   req.AdminID,
	})
	if err != nil {
		return httptransport.OutcomeResponse{}, h.failed("approve_request", err)
	}
	return mapOutcome(outcome), nil
}

// RejectHandler godoc
// @Summary Reject a pending request
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param family_id path string true "Family id"
// @Param counter_id path string true "Counter id"
// @Param request body httptransport.AdminDecisionRequest true "Administrator"
// @Success 200 {object} httptransport.OutcomeResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/counters/{counter_id}/reject [post]
func (h Handler) RejectHandler(
	ctx context.Context,
	familyID string,
	counterID string,
	req httptransport.AdminDecisionRequest,
) (httptransport.OutcomeResponse, error) {
	outcome, err := h.Escalations.RejectRequest(ctx, commands.AdminDecisionCommand{
		CounterID: counterID,
		FamilyID:  familyID,
		AdminID:   req.AdminID,
	})
	if err != nil {
		return httptransport.OutcomeResponse{}, h.failed("reject_request", err)
	}
	return mapOutcome(outcome), nil
}

// AcknowledgeHandler godoc
// @Summary Acknowledge a pending role request
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param family_id path string true "Family id"
// @Param counter_id path string true "Counter id"
// @Param request body httptransport.AdminDecisionRequest true "Administrator"
// @Success 200 {object} httptransport.OutcomeResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/counters/{counter_id}/acknowledge [post]
func (h Handler) AcknowledgeHandler(
	ctx context.Context,
	familyID string,
	counterID string,
	req httptransport.AdminDecisionRequest,
) (httptransport.OutcomeResponse, error) {
	outcome, err := h.Escalations.Acknowledge(ctx, commands.AcknowledgeCommand{
		CounterID: counterID,
		FamilyID:  familyID,
		AdminID:   req.AdminID,
	})
	if err != nil {
		return httptransport.OutcomeResponse{}, h.failed("acknowledge", err)
	}
	return mapOutcome(outcome), nil
}

// CounterStatusHandler godoc
// @Summary Get counter progress
// @Tags escalation-engine
// @Produce json
// @Param family_id path string true "Family id"
// @Param counter_id path string true "Counter id"
// @Success 200 {object} httptransport.CounterResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/families/{family_id}/counters/{counter_id} [get]
func (h Handler) CounterStatusHandler(ctx context.Context, familyID string, counterID string) (httptransport.CounterResponse, error) {
	view, err := h.Counters.CounterStatus(ctx, familyID, counterID)
	if err != nil {
		return httptransport.CounterResponse{}, h.failed("counter_status", err)
	}
	return mapCounter(view.Counter, view.Tally, view.Required), nil
}

// PendingCountersHandler godoc
// @Summary List pending counters of a family
// @Tags escalation-engine
// @Produce json
// @Param family_id path string true "Family id"
// @Success 200 {object} httptransport.PendingCountersResponse
// @Router /v1/families/{family_id}/counters [get]
func (h Handler) PendingCountersHandler(ctx context.Context, familyID string) (httptransport.PendingCountersResponse, error) {
	views, err := h.Counters.PendingCounters(ctx, familyID)
	if err != nil {
		return httptransport.PendingCountersResponse{}, h.failed("pending_counters", err)
	}
	items := make([]httptransport.CounterResponse, 0, len(views))
	for _, view := range views {
		items = append(items, mapCounter(view.Counter, view.Tally, view.Required))
	}
	return httptransport.PendingCountersResponse{Items: items}, nil
}

// RoleHandler godoc
// @Summary Get a user's family role
// @Tags escalation-engine
// @Produce json
// @Param family_id path string true "Family id"
// @Param user_id path string true "User id"
// @Success 200 {object} httptransport.RoleResponse
// @Router /v1/families/{family_id}/roles/{user_id} [get]
func (h Handler) RoleHandler(ctx context.Context, familyID string, userID string) (httptransport.RoleResponse, error) {
	lookup, err := h.Roles.RoleOf(ctx, familyID, userID)
	if err != nil {
		return httptransport.RoleResponse{}, h.failed("role_lookup", err)
	}
	return httptransport.RoleResponse{
		FamilyID: lookup.FamilyID,
		UserID:   lookup.UserID,
		Role:     string(lookup.Role),
	}, nil
}

// ListNotificationsHandler godoc
// @Summary List a user's notifications
// @Tags escalation-engine
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} httptransport.NotificationsResponse
// @Router /v1/users/{user_id}/notifications [get]
func (h Handler) ListNotificationsHandler(ctx context.Context, userID string) (httptransport.NotificationsResponse, error) {
	items, err := h.Inbox.List(ctx, userID)
	if err != nil {
		return httptransport.NotificationsResponse{}, h.failed("list_notifications", err)
	}
	response := httptransport.NotificationsResponse{Items: make([]httptransport.NotificationResponse, 0, len(items))}
	for _, item := range items {
		response.Items = append(response.Items, httptransport.NotificationResponse{
			NotificationID: item.NotificationID,
			Type:           string(item.Type),
			Title:          item.Title,
			Message:        item.Message,
			CounterID:      item.CounterID,
			Data:           item.Data,
			CreatedAt:      item.CreatedAt,
			ReadAt:         item.ReadAt,
		})
	}
	return response, nil
}

// MarkReadHandler godoc
// @Summary Mark a user's notifications about a counter as read
// @Tags escalation-engine
// @Accept json
// @Produce json
// @Param user_id path string true "User id"
// @Param request body httptransport.MarkReadRequest true "Counter"
// @Success 200 {object} httptransport.MarkReadResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/users/{user_id}/notifications/read [post]
func (h Handler) MarkReadHandler(ctx context.Context, userID string, req httptransport.MarkReadRequest) (httptransport.MarkReadResponse, error) {
	marked, err := h.Inbox.MarkRead(ctx, userID, req.CounterID)
	if err != nil {
		return httptransport.MarkReadResponse{}, h.failed("mark_read", err)
	}
	return httptransport.MarkReadResponse{Marked: marked}, nil
}

func (h Handler) failed(operation string, err error) error {
	if _, ok := domainerrors.AsValidation(err); ok {
		return err
	}
	application.ResolveLogger(h.Logger).Error("escalation request failed",
		"event", "http_escalation_request_failed",
		"module", "household-governance/escalation-engine",
		"layer", "transport",
		"operation", operation,
		"error", err.Error(),
	)
	return err
}

// ErrorResponseFrom maps an engine error to a status code and body.
func ErrorResponseFrom(err error) (int, httptransport.ErrorResponse) {
	if errors.Is(err, domainerrors.ErrTryAgain) {
		return http.StatusServiceUnavailable, httptransport.ErrorResponse{
			Code:    "try_again",
			Message: domainerrors.ErrTryAgain.Error(),
		}
	}
	validation, ok := domainerrors.AsValidation(err)
	if !ok {
		return http.StatusInternalServerError, httptransport.ErrorResponse{
			Code:    "internal_error",
			Message: "internal server error",
		}
	}
	response := httptransport.ErrorResponse{
		Message:       validation.Error(),
		Field:         validation.Field,
		DaysRemaining: validation.DaysRemaining,
	}
	switch {
	case errors.Is(err, domainerrors.ErrSubjectNotFound), errors.Is(err, domainerrors.ErrCounterNotFound):
		response.Code = "not_found"
		return http.StatusNotFound, response
	case errors.Is(err, domainerrors.ErrCooldownActive):
		response.Code = "cooldown_active"
		return http.StatusTooManyRequests, response
	case errors.Is(err, domainerrors.ErrRoleRequired), errors.Is(err, domainerrors.ErrParticipantNotEligible):
		response.Code = "forbidden"
		return http.StatusForbidden, response
	case errors.Is(err, domainerrors.ErrAlreadyPending),
		errors.Is(err, domainerrors.ErrSubjectNotPending),
		errors.Is(err, domainerrors.ErrSubjectNotEligible),
		errors.Is(err, domainerrors.ErrCounterResolved):
		response.Code = "conflict"
		return http.StatusConflict, response
	default:
		response.Code = "invalid_request"
		return http.StatusBadRequest, response
	}
}

func mapOutcome(outcome commands.Outcome) httptransport.OutcomeResponse {
	return httptransport.OutcomeResponse{
		Counter:  mapCounter(outcome.Counter, outcome.Tally, outcome.Required),
		Decision: string(outcome.Decision),
		Replayed: outcome.NoOp,
	}
}

func mapCounter(counter entities.Counter, tally entities.Tally, required int) httptransport.CounterResponse {
	return httptransport.CounterResponse{
		CounterID:   counter.CounterID,
		Workflow:    string(counter.Workflow),
		SubjectKind: string(counter.Subject.Kind),
		SubjectID:   counter.Subject.ID,
		FamilyID:    counter.Subject.FamilyID,
		Status:      string(counter.Status),
		Count:       counter.Count,
		Required:    required,
		Tally: httptransport.TallyResponse{
			Approved: tally.Approved,
			Denied:   tally.Denied,
			Pending:  tally.Pending,
		},
		OpenedBy:     counter.OpenedBy,
		RequestedBy:  counter.RequestedBy,
		LastActionAt: counter.LastActionAt,
		ResolvedAt:   counter.ResolvedAt,
		ResolvedBy:   counter.ResolvedBy,
	}
}
