package rest

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/logger"
)

const defaultAuditLogLimit = 100

// ListServers handles GET /api/servers
func (h *Handler) ListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.repo.ListServers(r.Context())
	if err != nil {
		h.logger.Error("list servers failed", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to list servers", logger.FromContext(r.Context()))
		return
	}
	respondJSON(w, http.StatusOK, servers)
}

// ListAlerts handles GET /api/alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		alerts []*models.Alert
		err    error
	)
	if r.URL.Query().Get("status") == string(models.AlertStatusActive) {
		alerts, err = h.repo.ListActiveAlerts(ctx)
	} else {
		alerts, err = h.repo.ListAlerts(ctx)
	}
	if err != nil {
		h.logger.Error("list alerts failed", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to list alerts", logger.FromContext(ctx))
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// ListAuditLogs handles GET /api/audit-logs
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAuditLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.repo.ListRecentAuditLogs(ctx, limit)
	if err != nil {
		h.logger.Error("list audit logs failed", zap.Error(err))
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"failed to list audit logs", logger.FromContext(ctx))
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetDashboardMetrics handles GET /api/dashboard/metrics. Summary counts for
// the dashboard header cards.
func (h *Handler) GetDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	snap := h.aggregator.Snapshot(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"totalServers":        snap.Servers.Total,
		"activeAlerts":        snap.Alerts.Active,
		"activeAgents":        snap.Agents.ByStatus[string(models.AgentStatusActive)],
		"pendingRemediations": snap.Remediations.ByStatus[string(models.RemediationStatusPending)],
		"generatedAt":         snap.GeneratedAt,
	})
}

// GetPlatformContext handles GET /api/platform/context. The full aggregated
// snapshot, as handed to the reasoning provider.
func (h *Handler) GetPlatformContext(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.aggregator.Snapshot(r.Context()))
}
