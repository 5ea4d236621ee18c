package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAgentConfigRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agent := &models.Agent{
		Name:   "anomaly-detector",
		Type:   models.AgentTypeDetector,
		Status: models.AgentStatusInactive,
		Config: models.AgentConfig{
			IntervalSeconds: 60,
			Thresholds:      models.Metadata{"cpu_critical": 92.5},
			Capabilities:    []string{"cpu", "memory"},
			Version:         1,
		},
	}
	require.NoError(t, repo.CreateAgent(ctx, agent))
	require.NotEmpty(t, agent.ID)

	got, err := repo.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Config.IntervalSeconds)
	assert.Equal(t, 92.5, got.Config.Thresholds["cpu_critical"])
	assert.Equal(t, []string{"cpu", "memory"}, got.Config.Capabilities)
}

func TestGetAgentNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetAgent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAgentStatusIsCompareAndSet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agent := &models.Agent{Name: "a", Type: models.AgentTypeCollector, Status: models.AgentStatusInactive}
	require.NoError(t, repo.CreateAgent(ctx, agent))

	ok, err := repo.UpdateAgentStatus(ctx, agent.ID, models.AgentStatusInactive, models.AgentStatusActive)
	require.NoError(t, err)
	assert.True(t, ok)

	// Stale expectation loses.
	ok, err = repo.UpdateAgentStatus(ctx, agent.ID, models.AgentStatusInactive, models.AgentStatusActive)
	require.NoError(t, err)
	assert.False(t, ok)
}

func createPendingAction(t *testing.T, repo *SQLiteRepository) *models.RemediationAction {
	t.Helper()
	action := &models.RemediationAction{
		ServerID:   "srv-1",
		Title:      "Restart nginx",
		ActionType: models.ActionRestartService,
		Confidence: 0.5,
		Status:     models.RemediationStatusPending,
	}
	require.NoError(t, repo.CreateRemediation(context.Background(), action))
	return action
}

func TestCompareAndSetStatusSingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	action := createPendingAction(t, repo)

	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan int, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := repo.CompareAndSetStatus(ctx, action.ID,
				models.RemediationStatusPending, models.RemediationStatusApproved, "approver", "")
			assert.NoError(t, err)
			if ok {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)

	got, err := repo.GetRemediation(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationStatusApproved, got.Status)
	assert.Equal(t, "approver", got.ApprovedBy)
}

func TestCompareAndSetPreservesFieldsWhenEmpty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	action := createPendingAction(t, repo)

	ok, err := repo.CompareAndSetStatus(ctx, action.ID,
		models.RemediationStatusPending, models.RemediationStatusApproved, "alice", "")
	require.NoError(t, err)
	require.True(t, ok)

	// Executing passes no approver; the recorded one must survive.
	ok, err = repo.CompareAndSetStatus(ctx, action.ID,
		models.RemediationStatusApproved, models.RemediationStatusExecuting, "", "")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetRemediation(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ApprovedBy)

	ok, err = repo.CompareAndSetStatus(ctx, action.ID,
		models.RemediationStatusExecuting, models.RemediationStatusCompleted, "", "done")
	require.NoError(t, err)
	require.True(t, ok)

	got, err = repo.GetRemediation(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ApprovedBy)
	assert.Equal(t, "done", got.Result)
}

func TestActiveAlertExists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alert := &models.Alert{
		ServerID: "srv-1", Title: "High cpu usage",
		Severity: models.AlertSeverityWarning, MetricType: "cpu",
		MetricValue: 88, Threshold: 85,
	}
	require.NoError(t, repo.CreateAlert(ctx, alert))

	exists, err := repo.ActiveAlertExists(ctx, "srv-1", "cpu")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ActiveAlertExists(ctx, "srv-1", "memory")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.ResolveAlert(ctx, alert.ID))
	exists, err = repo.ActiveAlertExists(ctx, "srv-1", "cpu")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuditLogsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, action := range []string{"first", "second", "third"} {
		require.NoError(t, repo.AppendAuditLog(ctx, &models.AuditLogEntry{
			AgentID:   "agent-1",
			Action:    action,
			Status:    models.AuditStatusSuccess,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := repo.ListRecentAuditLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Action)
	assert.Equal(t, "second", entries[1].Action)

	byAgent, err := repo.ListAuditLogsByAgent(ctx, "agent-1", 10)
	require.NoError(t, err)
	assert.Len(t, byAgent, 3)
}

func TestLatestMetricsOnePerServer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"srv-1", "srv-2"} {
		require.NoError(t, repo.CreateServer(ctx, &models.Server{
			ID: id, Hostname: id, Status: models.ServerStatusHealthy,
		}))
	}

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.InsertMetric(ctx, &models.ServerMetric{
			ServerID: "srv-1", CPUUsage: float64(50 + i*10),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.InsertMetric(ctx, &models.ServerMetric{
		ServerID: "srv-2", CPUUsage: 30, Timestamp: base,
	}))

	latest, err := repo.LatestMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	byServer := map[string]float64{}
	for _, m := range latest {
		byServer[m.ServerID] = m.CPUUsage
	}
	assert.Equal(t, 70.0, byServer["srv-1"])
	assert.Equal(t, 30.0, byServer["srv-2"])
}

func TestMemoryDatabaseSharedUnderConcurrency(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	agent := &models.Agent{Name: "a", Type: models.AgentTypeCollector, Status: models.AgentStatusInactive}
	require.NoError(t, repo.CreateAgent(ctx, agent))

	// Readers fanning out across the pool must all see the same schema
	// and data, not a fresh empty database per connection.
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agents, err := repo.ListAgents(ctx)
			if err != nil {
				errs <- err
				return
			}
			if len(agents) != 1 {
				errs <- fmt.Errorf("expected 1 agent, got %d", len(agents))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent read failed: %v", err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.InsertMetric(context.Background(), &models.ServerMetric{
		ServerID: "ghost", CPUUsage: 10,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}
