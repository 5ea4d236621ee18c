package repository

import (
	"context"
	"errors"
	"time"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
)

// ErrNotFound is returned when the requested entity id is unknown.
var ErrNotFound = errors.New("not found")

// AgentRepository defines agent data access methods.
type AgentRepository interface {
	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]*models.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, from, to models.AgentStatus) (bool, error)
	UpdateAgentHeartbeat(ctx context.Context, id string, at time.Time, metrics models.HeartbeatMetrics) error
	UpdateAgentConfig(ctx context.Context, id string, configJSON string) error
}

// ServerRepository defines server inventory access. The orchestration core
// only reads servers; Create exists for the ingestion boundary and tests.
type ServerRepository interface {
	CreateServer(ctx context.Context, server *models.Server) error
	GetServer(ctx context.Context, id string) (*models.Server, error)
	ListServers(ctx context.Context) ([]*models.Server, error)
}

// MetricRepository defines access to server resource samples.
type MetricRepository interface {
	InsertMetric(ctx context.Context, metric *models.ServerMetric) error
	ListMetricsSince(ctx context.Context, since time.Time) ([]*models.ServerMetric, error)
	LatestMetrics(ctx context.Context) ([]*models.ServerMetric, error)
}

// AlertRepository defines alert data access methods.
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context) ([]*models.Alert, error)
	ListActiveAlerts(ctx context.Context) ([]*models.Alert, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error)
	ResolveAlert(ctx context.Context, id string) error
	ActiveAlertExists(ctx context.Context, serverID, metricType string) (bool, error)
}

// RemediationRepository defines remediation action data access. Status
// changes go through CompareAndSetStatus only, so concurrent approve,
// reject and executor callbacks resolve to exactly one winner.
type RemediationRepository interface {
	CreateRemediation(ctx context.Context, action *models.RemediationAction) error
	GetRemediation(ctx context.Context, id string) (*models.RemediationAction, error)
	ListRemediations(ctx context.Context) ([]*models.RemediationAction, error)
	ListRecentRemediations(ctx context.Context, limit int) ([]*models.RemediationAction, error)
	ListRemediationsByStatus(ctx context.Context, status models.RemediationStatus) ([]*models.RemediationAction, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to models.RemediationStatus, approvedBy, result string) (bool, error)
}

// AuditLogRepository defines append-only audit access.
type AuditLogRepository interface {
	AppendAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	ListRecentAuditLogs(ctx context.Context, limit int) ([]*models.AuditLogEntry, error)
	ListAuditLogsByAgent(ctx context.Context, agentID string, limit int) ([]*models.AuditLogEntry, error)
}

// PredictionRepository defines forecast data access.
type PredictionRepository interface {
	InsertPrediction(ctx context.Context, p *models.Prediction) error
	ListPredictionsSince(ctx context.Context, since time.Time) ([]*models.Prediction, error)
}

// CloudResourceRepository defines cloud inventory access.
type CloudResourceRepository interface {
	UpsertCloudResource(ctx context.Context, r *models.CloudResource) error
	ListCloudResources(ctx context.Context) ([]*models.CloudResource, error)
}

// Repository aggregates all repositories.
type Repository interface {
	AgentRepository
	ServerRepository
	MetricRepository
	AlertRepository
	RemediationRepository
	AuditLogRepository
	PredictionRepository
	CloudResourceRepository

	Close() error
}
