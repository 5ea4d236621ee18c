package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/remediation"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

func newWorkerRepo(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertSample(t *testing.T, repo repository.Repository, serverID string, cpu, mem, disk float64, at time.Time) {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.GetServer(ctx, serverID); err != nil {
		require.NoError(t, repo.CreateServer(ctx, &models.Server{
			ID: serverID, Hostname: serverID, Status: models.ServerStatusHealthy,
		}))
	}
	require.NoError(t, repo.InsertMetric(ctx, &models.ServerMetric{
		ServerID: serverID, CPUUsage: cpu, MemoryUsage: mem, DiskUsage: disk, Timestamp: at,
	}))
}

func TestDetectorRaisesAlertsAboveThreshold(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	insertSample(t, repo, "srv-1", 90, 50, 50, time.Now()) // cpu warning
	insertSample(t, repo, "srv-2", 97, 50, 96, time.Now()) // cpu + disk critical
	insertSample(t, repo, "srv-3", 40, 40, 40, time.Now()) // healthy

	task := DetectorTask(repo, "detector-1", models.AgentConfig{}, nil)
	raised, err := task(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, raised)

	alerts, err := repo.ListActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	severities := map[string]models.AlertSeverity{}
	for _, al := range alerts {
		severities[al.ServerID+"/"+al.MetricType] = al.Severity
		assert.Equal(t, "detector-1", al.AgentID)
	}
	assert.Equal(t, models.AlertSeverityWarning, severities["srv-1/cpu"])
	assert.Equal(t, models.AlertSeverityCritical, severities["srv-2/cpu"])
	assert.Equal(t, models.AlertSeverityCritical, severities["srv-2/disk"])
}

func TestDetectorSuppressesDuplicateAlerts(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	insertSample(t, repo, "srv-1", 96, 50, 50, time.Now())

	task := DetectorTask(repo, "detector-1", models.AgentConfig{}, nil)
	raised, err := task(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, raised)

	// Second sweep sees the still-active alert and stays quiet.
	raised, err = task(ctx)
	require.NoError(t, err)
	assert.Zero(t, raised)
}

func TestDetectorHonorsConfiguredThresholds(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	insertSample(t, repo, "srv-1", 75, 40, 40, time.Now())

	cfg := models.AgentConfig{Thresholds: models.Metadata{"cpu_warning": 70.0, "cpu_critical": 80.0}}
	task := DetectorTask(repo, "detector-1", cfg, nil)
	raised, err := task(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, raised)

	alerts, err := repo.ListActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertSeverityWarning, alerts[0].Severity)
	assert.Equal(t, 70.0, alerts[0].Threshold)
}

func TestRecommendationMapping(t *testing.T) {
	tests := []struct {
		metricType string
		value      float64
		threshold  float64
		wantType   models.RemediationActionType
		wantConf   float64
	}{
		{"cpu", 95, 95, models.ActionOptimizeCPU, 0.70},
		{"memory", 95, 95, models.ActionOptimizeMemory, 0.75},
		{"disk", 95, 95, models.ActionCleanupFiles, 0.85},
		{"io", 95, 95, models.ActionRestartService, 0.50},
		// Overshoot raises confidence, capped at 0.99.
		{"disk", 190, 95, models.ActionCleanupFiles, 0.99},
	}

	for _, tt := range tests {
		actionType, confidence := recommendation(&models.Alert{
			MetricType: tt.metricType, MetricValue: tt.value, Threshold: tt.threshold,
		})
		assert.Equal(t, tt.wantType, actionType, tt.metricType)
		assert.InDelta(t, tt.wantConf, confidence, 0.001, tt.metricType)
	}
}

func TestRecommenderProposesForCriticalAlerts(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateAlert(ctx, &models.Alert{
		ServerID: "srv-1", Title: "High disk usage", Severity: models.AlertSeverityCritical,
		MetricType: "disk", MetricValue: 97, Threshold: 95,
	}))
	require.NoError(t, repo.CreateAlert(ctx, &models.Alert{
		ServerID: "srv-2", Title: "High cpu usage", Severity: models.AlertSeverityWarning,
		MetricType: "cpu", MetricValue: 88, Threshold: 85,
	}))

	engine := remediation.NewEngine(repo, nopRecorder{}, nil, 0.9, zap.NewNop())
	task := RecommenderTask(repo, engine)

	proposed, err := task(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, proposed) // warning alert is ignored

	actions, err := repo.ListRemediations(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "srv-1", actions[0].ServerID)
	assert.Equal(t, models.ActionCleanupFiles, actions[0].ActionType)
	assert.Equal(t, "none", actions[0].EstimatedDowntime)

	// Second sweep must not stack a duplicate action on the open one.
	proposed, err = task(ctx)
	require.NoError(t, err)
	assert.Zero(t, proposed)
}

func TestPredictorProjectsLinearTrend(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	// 10 percentage points over 30 minutes: slope 20/h, clamped at 100.
	now := time.Now()
	insertSample(t, repo, "srv-1", 50, 0, 0, now.Add(-30*time.Minute))
	insertSample(t, repo, "srv-1", 60, 0, 0, now)
	insertSample(t, repo, "srv-2", 40, 0, 0, now) // single sample, skipped

	task := PredictorTask(repo)
	written, err := task(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	predictions, err := repo.ListPredictionsSince(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "srv-1", predictions[0].ServerID)
	assert.Equal(t, "cpu", predictions[0].MetricType)
	assert.Equal(t, 100.0, predictions[0].PredictedValue)
	assert.Equal(t, 24, predictions[0].HorizonHours)
}

func TestCollectorCountsRecentSamples(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	insertSample(t, repo, "srv-1", 10, 10, 10, time.Now())
	insertSample(t, repo, "srv-1", 10, 10, 10, time.Now().Add(-2*time.Hour))

	task := CollectorTask(repo, time.Hour)
	processed, err := task(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestAuditorRecordsSweep(t *testing.T) {
	repo := newWorkerRepo(t)
	ctx := context.Background()

	rec := &captureRecorder{}
	task := AuditorTask(repo, rec, "auditor-1")
	_, err := task(ctx)
	require.NoError(t, err)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, "auditor-1", rec.entries[0].agentID)
	assert.Equal(t, "remediation_audit_sweep", rec.entries[0].action)
}

type capturedEntry struct {
	agentID string
	action  string
}

type captureRecorder struct {
	entries []capturedEntry
}

func (c *captureRecorder) Record(_ context.Context, agentID, action string, _ models.AuditStatus, _ string) {
	c.entries = append(c.entries, capturedEntry{agentID: agentID, action: action})
}
