// Package rest exposes the HTTP API for agents, remediation actions,
// chat sessions and platform inventory.
package rest

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/agent"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/aggregator"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/api/websocket"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/chat"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/adapter"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/remediation"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// Handler manages HTTP request handlers
type Handler struct {
	repo       repository.Repository
	registry   *agent.Registry
	engine     *remediation.Engine
	sessions   *chat.Manager
	aggregator *aggregator.Aggregator
	provider   *adapter.TrackedProvider
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	repo repository.Repository,
	registry *agent.Registry,
	engine *remediation.Engine,
	sessions *chat.Manager,
	agg *aggregator.Aggregator,
	provider *adapter.TrackedProvider,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		repo:       repo,
		registry:   registry,
		engine:     engine,
		sessions:   sessions,
		aggregator: agg,
		provider:   provider,
		logger:     logger,
	}
}

// SetupRoutes configures API routes
func SetupRoutes(router *mux.Router, h *Handler, ws *websocket.Handler) {
	// Agent routes
	router.HandleFunc("/api/agents", h.ListAgents).Methods("GET")
	router.HandleFunc("/api/agents/{id}/details", h.GetAgentDetails).Methods("GET")
	router.HandleFunc("/api/agents/{id}/enable-monitoring", h.EnableMonitoring).Methods("POST")

	// Remediation routes
	router.HandleFunc("/api/remediation-actions", h.ListRemediationActions).Methods("GET")
	router.HandleFunc("/api/remediation-actions/{id}/approve", h.ApproveRemediationAction).Methods("POST")
	router.HandleFunc("/api/remediation-actions/{id}/reject", h.RejectRemediationAction).Methods("POST")

	// Chat routes
	router.HandleFunc("/api/chat/session", h.CreateChatSession).Methods("POST")
	router.HandleFunc("/api/chat/session/{id}/message", h.PostChatMessage).Methods("POST")
	router.HandleFunc("/api/chat/session/{id}/messages", h.GetChatMessages).Methods("GET")
	router.HandleFunc("/api/chat/session/{id}", h.DeleteChatSession).Methods("DELETE")

	// Platform inventory routes
	router.HandleFunc("/api/servers", h.ListServers).Methods("GET")
	router.HandleFunc("/api/alerts", h.ListAlerts).Methods("GET")
	router.HandleFunc("/api/audit-logs", h.ListAuditLogs).Methods("GET")
	router.HandleFunc("/api/dashboard/metrics", h.GetDashboardMetrics).Methods("GET")
	router.HandleFunc("/api/platform/context", h.GetPlatformContext).Methods("GET")

	// Provider status
	router.HandleFunc("/api/system/api-status", h.GetAPIStatus).Methods("GET")

	// Health and metrics
	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Live updates
	if ws != nil {
		router.HandleFunc("/ws", ws.ServeWS)
	}
}
