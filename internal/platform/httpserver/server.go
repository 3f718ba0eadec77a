package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	escalationengine "hearth/contexts/household-governance/escalation-engine"
	escalationhttp "hearth/contexts/household-governance/escalation-engine/adapters/http"
	httptransport "hearth/contexts/household-governance/escalation-engine/transport/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "hearth/internal/platform/httpserver/docs"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	escalation escalationengine.Module
	gatherer   prometheus.Gatherer
}

// New builds the API server. A nil gatherer serves the default registry on
// /metrics.
func New(
	escalation escalationengine.Module,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		escalation: escalation,
		gatherer:   gatherer,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	return s.Run(context.Background())
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/families/{family_id}/members/{member_id}/deceased-vote", s.handleStartDeceasedVote)
	s.mux.HandleFunc("POST /v1/families/{family_id}/members/{member_id}/deceased-vote/ballots", s.handleCastVote)
	s.mux.HandleFunc("POST /v1/families/{family_id}/requests", s.handleCreateRequest)
	s.mux.HandleFunc("GET /v1/families/{family_id}/counters", s.handlePendingCounters)
	s.mux.HandleFunc("GET /v1/families/{family_id}/counters/{counter_id}", s.handleCounterStatus)
	s.mux.HandleFunc("POST /v1/families/{family_id}/counters/{counter_id}/approve", s.handleApprove)
	s.mux.HandleFunc("POST /v1/families/{family_id}/counters/{counter_id}/reject", s.handleReject)
	s.mux.HandleFunc("POST /v1/families/{family_id}/counters/{counter_id}/acknowledge", s.handleAcknowledge)
	s.mux.HandleFunc("GET /v1/families/{family_id}/roles/{user_id}", s.handleRole)

	s.mux.HandleFunc("GET /v1/users/{user_id}/notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /v1/users/{user_id}/notifications/read", s.handleMarkRead)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartDeceasedVote(w http.ResponseWriter, r *http.Request) {
	var req httptransport.StartDeceasedVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.StartDeceasedVoteHandler(r.Context(), r.PathValue("family_id"), r.PathValue("member_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req httptransport.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.CastVoteHandler(r.Context(), r.PathValue("family_id"), r.PathValue("member_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req httptransport.CreateRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.CreateRequestHandler(r.Context(), r.PathValue("family_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePendingCounters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escalation.Handler.PendingCountersHandler(r.Context(), r.PathValue("family_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCounterStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escalation.Handler.CounterStatusHandler(r.Context(), r.PathValue("family_id"), r.PathValue("counter_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req httptransport.AdminDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.ApproveHandler(r.Context(), r.PathValue("family_id"), r.PathValue("counter_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req httptransport.AdminDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.RejectHandler(r.Context(), r.PathValue("family_id"), r.PathValue("counter_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req httptransport.AdminDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.AcknowledgeHandler(r.Context(), r.PathValue("family_id"), r.PathValue("counter_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escalation.Handler.RoleHandler(r.Context(), r.PathValue("family_id"), r.PathValue("user_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	resp, err := s.escalation.Handler.ListNotificationsHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req httptransport.MarkReadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.escalation.Handler.MarkReadHandler(r.Context(), r.PathValue("user_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, body := escalationhttp.ErrorResponseFrom(err)
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, httptransport.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
