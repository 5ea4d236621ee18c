package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/agent"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, models.AuditStatus, string) {}

// brokenAlertRepo simulates an unreachable alert store while every other
// entity store keeps working.
type brokenAlertRepo struct {
	repository.Repository
}

func (brokenAlertRepo) ListAlerts(context.Context) ([]*models.Alert, error) {
	return nil, errors.New("alert store unreachable")
}

func newTestAggregator(t *testing.T, repo repository.Repository) *Aggregator {
	t.Helper()
	registry := agent.NewRegistry(repo, nopRecorder{}, nil, 2.0, 30*time.Second, zap.NewNop())
	return New(repo, registry, DefaultConfig(), zap.NewNop())
}

func seedFixtures(t *testing.T, repo repository.Repository) {
	t.Helper()
	ctx := context.Background()

	for _, srv := range []*models.Server{
		{ID: "srv-1", Hostname: "web-01", Status: models.ServerStatusHealthy},
		{ID: "srv-2", Hostname: "db-01", Status: models.ServerStatusCritical},
	} {
		require.NoError(t, repo.CreateServer(ctx, srv))
	}

	require.NoError(t, repo.CreateAlert(ctx, &models.Alert{
		ServerID: "srv-2", Title: "High cpu usage", Severity: models.AlertSeverityCritical,
		MetricType: "cpu", MetricValue: 97, Threshold: 95,
	}))

	require.NoError(t, repo.InsertMetric(ctx, &models.ServerMetric{
		ServerID: "srv-1", CPUUsage: 40, MemoryUsage: 50, DiskUsage: 60, Timestamp: time.Now(),
	}))
	require.NoError(t, repo.InsertMetric(ctx, &models.ServerMetric{
		ServerID: "srv-2", CPUUsage: 80, MemoryUsage: 70, DiskUsage: 90, Timestamp: time.Now(),
	}))
}

func TestSnapshotAggregatesSections(t *testing.T) {
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()
	seedFixtures(t, repo)

	agg := newTestAggregator(t, repo)
	snap := agg.Snapshot(context.Background())

	assert.Equal(t, 2, snap.Servers.Total)
	assert.Equal(t, 1, snap.Servers.ByStatus[string(models.ServerStatusCritical)])
	assert.Len(t, snap.Servers.Sample, 2)

	assert.Equal(t, 1, snap.Alerts.Total)
	assert.Equal(t, 1, snap.Alerts.Active)
	assert.Equal(t, 1, snap.Alerts.BySeverity[string(models.AlertSeverityCritical)])

	assert.Equal(t, 2, snap.Metrics.Total)
	assert.InDelta(t, 60.0, snap.Metrics.AvgCPU, 0.01)
	assert.InDelta(t, 75.0, snap.Metrics.AvgDisk, 0.01)

	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestSnapshotSampleIsBounded(t *testing.T) {
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		require.NoError(t, repo.CreateServer(ctx, &models.Server{
			Hostname: fmt.Sprintf("host-%02d", i), Status: models.ServerStatusHealthy,
		}))
	}

	agg := newTestAggregator(t, repo)
	snap := agg.Snapshot(ctx)

	assert.Equal(t, 12, snap.Servers.Total)
	assert.Len(t, snap.Servers.Sample, DefaultConfig().SampleSize)
}

func TestSnapshotDegradesPerSection(t *testing.T) {
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()
	seedFixtures(t, repo)

	agg := newTestAggregator(t, brokenAlertRepo{repo})
	snap := agg.Snapshot(context.Background())

	// The failed section carries its marker with empty data.
	assert.NotEmpty(t, snap.Alerts.Error)
	assert.Zero(t, snap.Alerts.Total)
	assert.NotNil(t, snap.Alerts.Sample)

	// Every other section is intact.
	assert.Empty(t, snap.Servers.Error)
	assert.Equal(t, 2, snap.Servers.Total)
	assert.Empty(t, snap.Agents.Error)
	assert.Empty(t, snap.Metrics.Error)
}
