package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    type            TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'inactive',
    config          TEXT NOT NULL DEFAULT '{}',
    cpu_usage       REAL NOT NULL DEFAULT 0,
    memory_mb       REAL NOT NULL DEFAULT 0,
    processed_count INTEGER NOT NULL DEFAULT 0,
    error_count     INTEGER NOT NULL DEFAULT 0,
    last_heartbeat  DATETIME,
    created_at      DATETIME NOT NULL,
    updated_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agents_status ON agents(status);

CREATE TABLE IF NOT EXISTS servers (
    id          TEXT PRIMARY KEY,
    hostname    TEXT NOT NULL UNIQUE,
    ip_address  TEXT NOT NULL DEFAULT '',
    environment TEXT NOT NULL DEFAULT 'prod',
    location    TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'healthy',
    tags        TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS server_metrics (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id       TEXT NOT NULL REFERENCES servers(id),
    cpu_usage       REAL NOT NULL DEFAULT 0,
    memory_usage    REAL NOT NULL DEFAULT 0,
    disk_usage      REAL NOT NULL DEFAULT 0,
    network_latency REAL NOT NULL DEFAULT 0,
    timestamp       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON server_metrics(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_metrics_server ON server_metrics(server_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS alerts (
    id           TEXT PRIMARY KEY,
    server_id    TEXT NOT NULL,
    hostname     TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    severity     TEXT NOT NULL,
    metric_type  TEXT NOT NULL DEFAULT '',
    metric_value REAL NOT NULL DEFAULT 0,
    threshold    REAL NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT 'active',
    agent_id     TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL,
    resolved_at  DATETIME
);
CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at DESC);

CREATE TABLE IF NOT EXISTS remediation_actions (
    id                 TEXT PRIMARY KEY,
    server_id          TEXT NOT NULL,
    alert_id           TEXT NOT NULL DEFAULT '',
    title              TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    action_type        TEXT NOT NULL,
    confidence         REAL NOT NULL DEFAULT 0,
    estimated_downtime TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'pending',
    approved_by        TEXT NOT NULL DEFAULT '',
    result             TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_remediation_status ON remediation_actions(status);
CREATE INDEX IF NOT EXISTS idx_remediation_created_at ON remediation_actions(created_at DESC);

CREATE TABLE IF NOT EXISTS audit_logs (
    id         TEXT PRIMARY KEY,
    agent_id   TEXT NOT NULL DEFAULT '',
    action     TEXT NOT NULL,
    status     TEXT NOT NULL,
    details    TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_agent ON audit_logs(agent_id, created_at DESC);

CREATE TABLE IF NOT EXISTS predictions (
    id              TEXT PRIMARY KEY,
    server_id       TEXT NOT NULL,
    metric_type     TEXT NOT NULL,
    predicted_value REAL NOT NULL DEFAULT 0,
    confidence      REAL NOT NULL DEFAULT 0,
    horizon_hours   INTEGER NOT NULL DEFAULT 24,
    created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at DESC);

CREATE TABLE IF NOT EXISTS cloud_resources (
    id             TEXT PRIMARY KEY,
    provider       TEXT NOT NULL,
    resource_type  TEXT NOT NULL,
    name           TEXT NOT NULL,
    region         TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'running',
    cost_per_month REAL NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL
);
`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens the database at dbPath and applies the schema.
// Use ":memory:" for tests.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Pragmas go in the DSN so every pooled connection gets them, not just
	// the one that happened to run an Exec. WAL keeps readers unblocked
	// during executor callbacks; memory databases don't support it.
	dsn := dbPath + "?_foreign_keys=on"
	if dbPath != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// Each additional pool connection to :memory: would open its own empty
	// database, so concurrent callers must share the one connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// AgentRepository implementation

func (r *SQLiteRepository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if agent.Status == "" {
		agent.Status = models.AgentStatusInactive
	}
	if err := agent.EncodeConfig(); err != nil {
		return fmt.Errorf("failed to encode agent config: %w", err)
	}
	now := time.Now()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	query := `
		INSERT INTO agents (id, name, type, status, config, cpu_usage, memory_mb, processed_count, error_count, last_heartbeat, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		agent.ID, agent.Name, agent.Type, agent.Status, agent.ConfigJSON,
		agent.CPUUsage, agent.MemoryMB, agent.ProcessedCount, agent.ErrorCount,
		agent.LastHeartbeat, agent.CreatedAt, agent.UpdatedAt,
	)
	return err
}

func (r *SQLiteRepository) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.GetContext(ctx, &agent, `SELECT * FROM agents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := agent.DecodeConfig(); err != nil {
		return nil, fmt.Errorf("failed to decode agent config: %w", err)
	}
	return &agent, nil
}

func (r *SQLiteRepository) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	var agents []*models.Agent
	err := r.db.SelectContext(ctx, &agents, `SELECT * FROM agents ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if err := a.DecodeConfig(); err != nil {
			return nil, fmt.Errorf("failed to decode agent config: %w", err)
		}
	}
	return agents, nil
}

// UpdateAgentStatus transitions status only when the stored value still
// matches `from`. Returns false when another caller won the race.
func (r *SQLiteRepository) UpdateAgentStatus(ctx context.Context, id string, from, to models.AgentStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agents SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now(), id, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) UpdateAgentHeartbeat(ctx context.Context, id string, at time.Time, metrics models.HeartbeatMetrics) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE agents
		SET cpu_usage = ?, memory_mb = ?,
		    processed_count = processed_count + ?,
		    error_count = error_count + ?,
		    last_heartbeat = ?, updated_at = ?
		WHERE id = ?`,
		metrics.CPUUsage, metrics.MemoryMB, metrics.ProcessedDelta, metrics.ErrorDelta,
		at, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateAgentConfig(ctx context.Context, id string, configJSON string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agents SET config = ?, updated_at = ? WHERE id = ?`,
		configJSON, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return nil
}

// ServerRepository implementation

func (r *SQLiteRepository) CreateServer(ctx context.Context, server *models.Server) error {
	if server.ID == "" {
		server.ID = uuid.New().String()
	}
	if server.Status == "" {
		server.Status = models.ServerStatusHealthy
	}
	now := time.Now()
	server.CreatedAt = now
	server.UpdatedAt = now

	query := `
		INSERT INTO servers (id, hostname, ip_address, environment, location, status, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		server.ID, server.Hostname, server.IPAddress, server.Environment,
		server.Location, server.Status, server.Tags, server.CreatedAt, server.UpdatedAt,
	)
	return err
}

func (r *SQLiteRepository) GetServer(ctx context.Context, id string) (*models.Server, error) {
	var server models.Server
	err := r.db.GetContext(ctx, &server, `SELECT * FROM servers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("server %s: %w", id, ErrNotFound)
	}
	return &server, err
}

func (r *SQLiteRepository) ListServers(ctx context.Context) ([]*models.Server, error) {
	var servers []*models.Server
	err := r.db.SelectContext(ctx, &servers, `SELECT * FROM servers ORDER BY hostname ASC`)
	return servers, err
}

// MetricRepository implementation

func (r *SQLiteRepository) InsertMetric(ctx context.Context, metric *models.ServerMetric) error {
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now()
	}
	query := `
		INSERT INTO server_metrics (server_id, cpu_usage, memory_usage, disk_usage, network_latency, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		metric.ServerID, metric.CPUUsage, metric.MemoryUsage,
		metric.DiskUsage, metric.NetworkLatency, metric.Timestamp,
	)
	return err
}

func (r *SQLiteRepository) ListMetricsSince(ctx context.Context, since time.Time) ([]*models.ServerMetric, error) {
	var metrics []*models.ServerMetric
	err := r.db.SelectContext(ctx, &metrics,
		`SELECT * FROM server_metrics WHERE timestamp >= ? ORDER BY timestamp DESC`, since)
	return metrics, err
}

// LatestMetrics returns the newest sample per server.
func (r *SQLiteRepository) LatestMetrics(ctx context.Context) ([]*models.ServerMetric, error) {
	var metrics []*models.ServerMetric
	query := `
		SELECT m.* FROM server_metrics m
		INNER JOIN (
			SELECT server_id, MAX(timestamp) AS ts FROM server_metrics GROUP BY server_id
		) latest ON m.server_id = latest.server_id AND m.timestamp = latest.ts
	`
	err := r.db.SelectContext(ctx, &metrics, query)
	return metrics, err
}

// AlertRepository implementation

func (r *SQLiteRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusActive
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO alerts (id, server_id, hostname, title, description, severity, metric_type, metric_value, threshold, status, agent_id, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.ServerID, alert.Hostname, alert.Title, alert.Description,
		alert.Severity, alert.MetricType, alert.MetricValue, alert.Threshold,
		alert.Status, alert.AgentID, alert.CreatedAt, alert.ResolvedAt,
	)
	return err
}

func (r *SQLiteRepository) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.GetContext(ctx, &alert, `SELECT * FROM alerts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return &alert, err
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context) ([]*models.Alert, error) {
	var alerts []*models.Alert
	err := r.db.SelectContext(ctx, &alerts, `SELECT * FROM alerts ORDER BY created_at DESC`)
	return alerts, err
}

func (r *SQLiteRepository) ListActiveAlerts(ctx context.Context) ([]*models.Alert, error) {
	var alerts []*models.Alert
	err := r.db.SelectContext(ctx, &alerts,
		`SELECT * FROM alerts WHERE status = ? ORDER BY created_at DESC`, models.AlertStatusActive)
	return alerts, err
}

func (r *SQLiteRepository) ListRecentAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	var alerts []*models.Alert
	err := r.db.SelectContext(ctx, &alerts,
		`SELECT * FROM alerts ORDER BY created_at DESC LIMIT ?`, limit)
	return alerts, err
}

func (r *SQLiteRepository) ResolveAlert(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`,
		models.AlertStatusResolved, time.Now(), id, models.AlertStatusActive,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return nil
}

// ActiveAlertExists reports whether an unresolved alert already covers the
// same server and metric. Detectors use this to avoid alert duplication.
func (r *SQLiteRepository) ActiveAlertExists(ctx context.Context, serverID, metricType string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM alerts WHERE server_id = ? AND metric_type = ? AND status = ?`,
		serverID, metricType, models.AlertStatusActive)
	return count > 0, err
}

// RemediationRepository implementation

func (r *SQLiteRepository) CreateRemediation(ctx context.Context, action *models.RemediationAction) error {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	now := time.Now()
	action.CreatedAt = now
	action.UpdatedAt = now

	query := `
		INSERT INTO remediation_actions (id, server_id, alert_id, title, description, action_type, confidence, estimated_downtime, status, approved_by, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		action.ID, action.ServerID, action.AlertID, action.Title, action.Description,
		action.ActionType, action.Confidence, action.EstimatedDowntime, action.Status,
		action.ApprovedBy, action.Result, action.CreatedAt, action.UpdatedAt,
	)
	return err
}

func (r *SQLiteRepository) GetRemediation(ctx context.Context, id string) (*models.RemediationAction, error) {
	var action models.RemediationAction
	err := r.db.GetContext(ctx, &action, `SELECT * FROM remediation_actions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("remediation action %s: %w", id, ErrNotFound)
	}
	return &action, err
}

func (r *SQLiteRepository) ListRemediations(ctx context.Context) ([]*models.RemediationAction, error) {
	var actions []*models.RemediationAction
	err := r.db.SelectContext(ctx, &actions,
		`SELECT * FROM remediation_actions ORDER BY created_at DESC`)
	return actions, err
}

func (r *SQLiteRepository) ListRecentRemediations(ctx context.Context, limit int) ([]*models.RemediationAction, error) {
	var actions []*models.RemediationAction
	err := r.db.SelectContext(ctx, &actions,
		`SELECT * FROM remediation_actions ORDER BY created_at DESC LIMIT ?`, limit)
	return actions, err
}

func (r *SQLiteRepository) ListRemediationsByStatus(ctx context.Context, status models.RemediationStatus) ([]*models.RemediationAction, error) {
	var actions []*models.RemediationAction
	err := r.db.SelectContext(ctx, &actions,
		`SELECT * FROM remediation_actions WHERE status = ? ORDER BY created_at ASC`, status)
	return actions, err
}

// CompareAndSetStatus atomically transitions status from `from` to `to`.
// Returns false without error when the stored status no longer matches
// `from`: the caller lost the race or the transition is invalid for the
// current state. approvedBy and result are recorded only when non-empty.
func (r *SQLiteRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.RemediationStatus, approvedBy, result string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE remediation_actions
		SET status = ?,
		    approved_by = CASE WHEN ? != '' THEN ? ELSE approved_by END,
		    result = CASE WHEN ? != '' THEN ? ELSE result END,
		    updated_at = ?
		WHERE id = ? AND status = ?`,
		to, approvedBy, approvedBy, result, result, time.Now(), id, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AuditLogRepository implementation

func (r *SQLiteRepository) AppendAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO audit_logs (id, agent_id, action, status, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AgentID, entry.Action, entry.Status, entry.Details, entry.CreatedAt,
	)
	return err
}

func (r *SQLiteRepository) ListRecentAuditLogs(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM audit_logs ORDER BY created_at DESC LIMIT ?`, limit)
	return entries, err
}

func (r *SQLiteRepository) ListAuditLogsByAgent(ctx context.Context, agentID string, limit int) ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM audit_logs WHERE agent_id = ? ORDER BY created_at DESC LIMIT ?`, agentID, limit)
	return entries, err
}

// PredictionRepository implementation

func (r *SQLiteRepository) InsertPrediction(ctx context.Context, p *models.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO predictions (id, server_id, metric_type, predicted_value, confidence, horizon_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ServerID, p.MetricType, p.PredictedValue, p.Confidence, p.HorizonHours, p.CreatedAt,
	)
	return err
}

func (r *SQLiteRepository) ListPredictionsSince(ctx context.Context, since time.Time) ([]*models.Prediction, error) {
	var predictions []*models.Prediction
	err := r.db.SelectContext(ctx, &predictions,
		`SELECT * FROM predictions WHERE created_at >= ? ORDER BY created_at DESC`, since)
	return predictions, err
}

// CloudResourceRepository implementation

func (r *SQLiteRepository) UpsertCloudResource(ctx context.Context, res *models.CloudResource) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO cloud_resources (id, provider, resource_type, name, region, status, cost_per_month, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, cost_per_month = excluded.cost_per_month
	`
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.Provider, res.ResourceType, res.Name, res.Region, res.Status, res.CostPerMonth, res.CreatedAt,
	)
	return err
}

func (r *SQLiteRepository) ListCloudResources(ctx context.Context) ([]*models.CloudResource, error) {
	var resources []*models.CloudResource
	err := r.db.SelectContext(ctx, &resources, `SELECT * FROM cloud_resources ORDER BY provider, name`)
	return resources, err
}
