package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/remediation"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// Default detection thresholds, overridable per agent via config.
const (
	defaultCPUWarning     = 85.0
	defaultCPUCritical    = 95.0
	defaultMemoryWarning  = 85.0
	defaultMemoryCritical = 95.0
	defaultDiskWarning    = 85.0
	defaultDiskCritical   = 95.0
)

func threshold(cfg models.AgentConfig, key string, fallback float64) float64 {
	if v, ok := cfg.Thresholds[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return fallback
}

// CollectorTask reports ingestion freshness: how many metric samples
// arrived since the last tick. Metric ingestion itself is owned by the
// upload subsystem; the collector only observes it.
func CollectorTask(repo repository.MetricRepository, interval time.Duration) TaskFunc {
	return func(ctx context.Context) (int, error) {
		samples, err := repo.ListMetricsSince(ctx, time.Now().Add(-interval))
		if err != nil {
			return 0, fmt.Errorf("failed to read recent metrics: %w", err)
		}
		return len(samples), nil
	}
}

// AlertBroadcaster pushes newly raised alerts to dashboard clients.
type AlertBroadcaster interface {
	BroadcastAlert(alert *models.Alert)
}

// DetectorTask scans the newest sample per server and raises alerts when a
// metric crosses its threshold. Duplicate suppression: one active alert per
// server and metric type. broadcast may be nil.
func DetectorTask(repo repository.Repository, agentID string, cfg models.AgentConfig, broadcast AlertBroadcaster) TaskFunc {
	type rule struct {
		metricType string
		warning    float64
		critical   float64
		value      func(*models.ServerMetric) float64
	}
	rules := []rule{
		{"cpu", threshold(cfg, "cpu_warning", defaultCPUWarning), threshold(cfg, "cpu_critical", defaultCPUCritical),
			func(m *models.ServerMetric) float64 { return m.CPUUsage }},
		{"memory", threshold(cfg, "memory_warning", defaultMemoryWarning), threshold(cfg, "memory_critical", defaultMemoryCritical),
			func(m *models.ServerMetric) float64 { return m.MemoryUsage }},
		{"disk", threshold(cfg, "disk_warning", defaultDiskWarning), threshold(cfg, "disk_critical", defaultDiskCritical),
			func(m *models.ServerMetric) float64 { return m.DiskUsage }},
	}

	return func(ctx context.Context) (int, error) {
		latest, err := repo.LatestMetrics(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to read latest metrics: %w", err)
		}

		raised := 0
		for _, sample := range latest {
			for _, rl := range rules {
				v := rl.value(sample)
				if v < rl.warning {
					continue
				}

				exists, err := repo.ActiveAlertExists(ctx, sample.ServerID, rl.metricType)
				if err != nil {
					return raised, err
				}
				if exists {
					continue
				}

				severity := models.AlertSeverityWarning
				limit := rl.warning
				if v >= rl.critical {
					severity = models.AlertSeverityCritical
					limit = rl.critical
				}

				alert := &models.Alert{
					ServerID:    sample.ServerID,
					Title:       fmt.Sprintf("High %s usage", rl.metricType),
					Description: fmt.Sprintf("%s usage at %.1f%% exceeds threshold %.1f%%", rl.metricType, v, limit),
					Severity:    severity,
					MetricType:  rl.metricType,
					MetricValue: v,
					Threshold:   limit,
					AgentID:     agentID,
				}
				if err := repo.CreateAlert(ctx, alert); err != nil {
					return raised, fmt.Errorf("failed to create alert: %w", err)
				}
				if broadcast != nil {
					broadcast.BroadcastAlert(alert)
				}
				raised++
			}
		}
		return raised, nil
	}
}

// recommendation maps a metric type onto a corrective action and a base
// confidence. Confidence grows with how far past the threshold the metric
// is, capped at 0.99.
func recommendation(alert *models.Alert) (models.RemediationActionType, float64) {
	var actionType models.RemediationActionType
	var base float64
	switch alert.MetricType {
	case "cpu":
		actionType, base = models.ActionOptimizeCPU, 0.70
	case "memory":
		actionType, base = models.ActionOptimizeMemory, 0.75
	case "disk":
		actionType, base = models.ActionCleanupFiles, 0.85
	default:
		actionType, base = models.ActionRestartService, 0.50
	}

	overshoot := 0.0
	if alert.Threshold > 0 {
		overshoot = (alert.MetricValue - alert.Threshold) / alert.Threshold
	}
	confidence := base + overshoot
	if confidence > 0.99 {
		confidence = 0.99
	}
	return actionType, confidence
}

// RecommenderTask proposes remediation actions for active critical alerts
// that do not already have an open action on the same server.
func RecommenderTask(repo repository.Repository, engine *remediation.Engine) TaskFunc {
	return func(ctx context.Context) (int, error) {
		alerts, err := repo.ListActiveAlerts(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list active alerts: %w", err)
		}

		open := map[string]bool{}
		for _, status := range []models.RemediationStatus{
			models.RemediationStatusPending,
			models.RemediationStatusApproved,
			models.RemediationStatusExecuting,
		} {
			actions, err := repo.ListRemediationsByStatus(ctx, status)
			if err != nil {
				return 0, err
			}
			for _, a := range actions {
				open[a.ServerID] = true
			}
		}

		proposed := 0
		for _, alert := range alerts {
			if alert.Severity != models.AlertSeverityCritical || open[alert.ServerID] {
				continue
			}

			actionType, confidence := recommendation(alert)
			action := &models.RemediationAction{
				ServerID:          alert.ServerID,
				AlertID:           alert.ID,
				Title:             fmt.Sprintf("Remediate %s on %s", alert.MetricType, alert.ServerID),
				Description:       alert.Description,
				ActionType:        actionType,
				Confidence:        confidence,
				EstimatedDowntime: estimatedDowntime(actionType),
			}
			if err := engine.Propose(ctx, action); err != nil {
				return proposed, err
			}
			open[alert.ServerID] = true
			proposed++
		}
		return proposed, nil
	}
}

func estimatedDowntime(t models.RemediationActionType) string {
	switch t {
	case models.ActionRestartService:
		return "2-5 minutes"
	case models.ActionClearCache, models.ActionCleanupFiles:
		return "none"
	default:
		return "< 1 minute"
	}
}

// PredictorTask projects each server's metric trend over the last hour one
// day forward. A simple linear trend is deliberate: the contract is the
// Prediction record, not the model behind it.
func PredictorTask(repo repository.Repository) TaskFunc {
	return func(ctx context.Context) (int, error) {
		samples, err := repo.ListMetricsSince(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			return 0, fmt.Errorf("failed to read metric window: %w", err)
		}

		// Newest-first; group per server.
		byServer := map[string][]*models.ServerMetric{}
		for _, s := range samples {
			byServer[s.ServerID] = append(byServer[s.ServerID], s)
		}

		written := 0
		for serverID, series := range byServer {
			if len(series) < 2 {
				continue
			}
			newest, oldest := series[0], series[len(series)-1]
			elapsed := newest.Timestamp.Sub(oldest.Timestamp).Hours()
			if elapsed <= 0 {
				continue
			}
			slope := (newest.CPUUsage - oldest.CPUUsage) / elapsed
			predicted := newest.CPUUsage + slope*24
			if predicted < 0 {
				predicted = 0
			}
			if predicted > 100 {
				predicted = 100
			}

			p := &models.Prediction{
				ServerID:       serverID,
				MetricType:     "cpu",
				PredictedValue: predicted,
				Confidence:     0.6,
				HorizonHours:   24,
			}
			if err := repo.InsertPrediction(ctx, p); err != nil {
				return written, err
			}
			written++
		}
		return written, nil
	}
}

// AuditorTask records a periodic audit entry summarizing remediation
// throughput so the audit trail shows the platform is alive even when
// nothing needs fixing.
func AuditorTask(repo repository.Repository, audit Recorder, agentID string) TaskFunc {
	return func(ctx context.Context) (int, error) {
		recent, err := repo.ListRecentRemediations(ctx, 50)
		if err != nil {
			return 0, fmt.Errorf("failed to list remediations: %w", err)
		}

		counts := map[models.RemediationStatus]int{}
		for _, a := range recent {
			counts[a.Status]++
		}
		audit.Record(ctx, agentID, "remediation_audit_sweep", models.AuditStatusSuccess,
			fmt.Sprintf("recent actions: %d pending, %d executing, %d completed, %d failed",
				counts[models.RemediationStatusPending],
				counts[models.RemediationStatusExecuting],
				counts[models.RemediationStatusCompleted],
				counts[models.RemediationStatusFailed]))
		return len(recent), nil
	}
}
