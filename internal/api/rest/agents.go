package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/agent"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/logger"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

const (
	detailsAlertLimit = 10
	detailsAuditLimit = 20
)

// agentDetailsResponse is the composite payload for the agent details view.
type agentDetailsResponse struct {
	Agent            *models.Agent           `json:"agent"`
	RecentActivities agentActivities         `json:"recentActivities"`
	Insights         []string                `json:"insights"`
	Performance      models.AgentPerformance `json:"performance"`
}

type agentActivities struct {
	Alerts    []*models.Alert         `json:"alerts"`
	AuditLogs []*models.AuditLogEntry `json:"auditLogs"`
}

// ListAgents handles GET /api/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("list agents failed", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to list agents", logger.FromContext(r.Context()))
		return
	}

	respondJSON(w, http.StatusOK, agents)
}

// GetAgentDetails handles GET /api/agents/{id}/details
func (h *Handler) GetAgentDetails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	ag, err := h.registry.GetStatus(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound,
				"agent not found", logger.FromContext(ctx))
			return
		}
		h.logger.Error("get agent failed", zap.String("agent_id", id), zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to load agent", logger.FromContext(ctx))
		return
	}

	// Activity sections are best-effort; the details view degrades to
	// empty lists rather than failing the whole request.
	auditLogs, err := h.repo.ListAuditLogsByAgent(ctx, id, detailsAuditLimit)
	if err != nil {
		h.logger.Warn("agent audit history unavailable", zap.String("agent_id", id), zap.Error(err))
		auditLogs = nil
	}
	alerts, err := h.repo.ListRecentAlerts(ctx, detailsAlertLimit)
	if err != nil {
		h.logger.Warn("recent alerts unavailable", zap.String("agent_id", id), zap.Error(err))
		alerts = nil
	}

	respondJSON(w, http.StatusOK, agentDetailsResponse{
		Agent: ag,
		RecentActivities: agentActivities{
			Alerts:    alerts,
			AuditLogs: auditLogs,
		},
		Insights:    agentInsights(ag),
		Performance: agentPerformance(ag, auditLogs),
	})
}

// EnableMonitoring handles POST /api/agents/{id}/enable-monitoring
func (h *Handler) EnableMonitoring(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			"invalid request body", logger.FromContext(ctx))
		return
	}

	var err error
	if req.Enabled {
		err = h.registry.Start(ctx, id)
	} else {
		err = h.registry.Stop(ctx, id)
	}
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound,
			"agent not found", logger.FromContext(ctx))
		return
	case errors.Is(err, agent.ErrAlreadyRunning):
		respondErrorWithCode(w, http.StatusConflict, ErrCodeConflict,
			"agent already running", logger.FromContext(ctx))
		return
	default:
		h.logger.Error("enable-monitoring failed", zap.String("agent_id", id), zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to update agent", logger.FromContext(ctx))
		return
	}

	ag, err := h.registry.GetStatus(ctx, id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
		return
	}
	respondJSON(w, http.StatusOK, ag)
}

// agentInsights derives short operator-facing observations from the
// agent's current health.
func agentInsights(ag *models.Agent) []string {
	insights := []string{}
	if ag.Degraded {
		insights = append(insights, "Heartbeat is stale; the agent may be stuck or partitioned.")
	}
	total := ag.ProcessedCount + ag.ErrorCount
	if total > 0 {
		errRate := float64(ag.ErrorCount) / float64(total)
		if errRate > 0.1 {
			insights = append(insights, fmt.Sprintf("Error rate is %.0f%% over the agent's lifetime.", errRate*100))
		}
	}
	if ag.Status == models.AgentStatusError {
		insights = append(insights, "Agent is in error state and requires a restart.")
	}
	if ag.Status == models.AgentStatusActive && !ag.Degraded {
		insights = append(insights, fmt.Sprintf("Agent is healthy and has processed %d items.", ag.ProcessedCount))
	}
	return insights
}

// agentPerformance summarizes processing health. Average processing time is
// estimated from the spacing of the agent's recent audit entries.
func agentPerformance(ag *models.Agent, auditLogs []*models.AuditLogEntry) models.AgentPerformance {
	perf := models.AgentPerformance{
		LastActiveProcessing: ag.LastHeartbeat,
	}

	total := ag.ProcessedCount + ag.ErrorCount
	if total > 0 {
		perf.SuccessRate = float64(ag.ProcessedCount) / float64(total) * 100
	}

	// Audit entries arrive newest first.
	if len(auditLogs) >= 2 {
		span := auditLogs[0].CreatedAt.Sub(auditLogs[len(auditLogs)-1].CreatedAt)
		perf.AvgProcessingTime = span.Seconds() / float64(len(auditLogs)-1)
	}
	return perf
}
