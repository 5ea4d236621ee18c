// Package aggregator assembles a consistent read-only snapshot of platform
// state for conversational and dashboard consumers.
package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/metrics"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// AgentLister supplies agents with derived health, normally the registry.
type AgentLister interface {
	List(ctx context.Context) ([]*models.Agent, error)
}

// Config bounds snapshot payload size.
type Config struct {
	SampleSize  int // representative entities per section
	AuditLimit  int // recent audit entries
	ActionLimit int // recent remediation actions
}

// DefaultConfig returns the standard snapshot bounds.
func DefaultConfig() Config {
	return Config{SampleSize: 5, AuditLimit: 20, ActionLimit: 20}
}

// Aggregator fetches all snapshot sections concurrently. A failed
// sub-fetch degrades its own section only; Snapshot never returns an
// error.
type Aggregator struct {
	repo   repository.Repository
	agents AgentLister
	cfg    Config
	logger *zap.Logger
}

// New creates an aggregator.
func New(repo repository.Repository, agents AgentLister, cfg Config, logger *zap.Logger) *Aggregator {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 5
	}
	if cfg.AuditLimit <= 0 {
		cfg.AuditLimit = 20
	}
	if cfg.ActionLimit <= 0 {
		cfg.ActionLimit = 20
	}
	return &Aggregator{repo: repo, agents: agents, cfg: cfg, logger: logger}
}

// Snapshot returns the point-in-time platform context. Sections are
// fetched concurrently; a section whose fetch fails is returned empty with
// its Error marker set.
func (a *Aggregator) Snapshot(ctx context.Context) *models.PlatformContext {
	pc := &models.PlatformContext{GeneratedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { pc.Servers = a.serverSection(gctx); return nil })
	g.Go(func() error { pc.Alerts = a.alertSection(gctx); return nil })
	g.Go(func() error { pc.Agents = a.agentSection(gctx); return nil })
	g.Go(func() error { pc.Metrics = a.metricSection(gctx); return nil })
	g.Go(func() error { pc.Remediations = a.remediationSection(gctx); return nil })
	g.Go(func() error { pc.AuditLogs = a.auditSection(gctx); return nil })
	g.Go(func() error { pc.Predictions = a.predictionSection(gctx); return nil })
	g.Go(func() error { pc.Cloud = a.cloudSection(gctx); return nil })

	_ = g.Wait() // section closures never return errors

	return pc
}

// sectionFailed logs and flags a partial aggregation failure.
func (a *Aggregator) sectionFailed(section string, err error) models.SectionError {
	a.logger.Warn("snapshot section failed", zap.String("section", section), zap.Error(err))
	metrics.SnapshotSectionFailures.WithLabelValues(section).Inc()
	return models.SectionError(err.Error())
}

func (a *Aggregator) serverSection(ctx context.Context) models.ServerSection {
	servers, err := a.repo.ListServers(ctx)
	if err != nil {
		return models.ServerSection{ByStatus: map[string]int{}, Sample: []models.Server{}, Error: a.sectionFailed("servers", err)}
	}

	sec := models.ServerSection{Total: len(servers), ByStatus: map[string]int{}, Sample: []models.Server{}}
	for _, s := range servers {
		sec.ByStatus[string(s.Status)]++
	}
	for i := 0; i < len(servers) && i < a.cfg.SampleSize; i++ {
		sec.Sample = append(sec.Sample, *servers[i])
	}
	return sec
}

func (a *Aggregator) alertSection(ctx context.Context) models.AlertSection {
	alerts, err := a.repo.ListAlerts(ctx)
	if err != nil {
		return models.AlertSection{BySeverity: map[string]int{}, Sample: []models.Alert{}, Error: a.sectionFailed("alerts", err)}
	}

	sec := models.AlertSection{Total: len(alerts), BySeverity: map[string]int{}, Sample: []models.Alert{}}
	for _, al := range alerts {
		sec.BySeverity[string(al.Severity)]++
		if al.Status == models.AlertStatusActive {
			sec.Active++
		}
	}
	// ListAlerts is newest-first, so the head is the 5-most-recent sample.
	for i := 0; i < len(alerts) && i < a.cfg.SampleSize; i++ {
		sec.Sample = append(sec.Sample, *alerts[i])
	}
	return sec
}

func (a *Aggregator) agentSection(ctx context.Context) models.AgentSection {
	agents, err := a.agents.List(ctx)
	if err != nil {
		return models.AgentSection{ByStatus: map[string]int{}, Sample: []models.Agent{}, Error: a.sectionFailed("agents", err)}
	}

	sec := models.AgentSection{Total: len(agents), ByStatus: map[string]int{}, Sample: []models.Agent{}}
	for _, ag := range agents {
		sec.ByStatus[string(ag.Status)]++
		if ag.Degraded {
			sec.Degraded++
		}
	}
	for i := 0; i < len(agents) && i < a.cfg.SampleSize; i++ {
		sec.Sample = append(sec.Sample, *agents[i])
	}
	return sec
}

func (a *Aggregator) metricSection(ctx context.Context) models.MetricSection {
	samples, err := a.repo.ListMetricsSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		return models.MetricSection{Error: a.sectionFailed("metrics", err)}
	}

	sec := models.MetricSection{Total: len(samples)}
	if len(samples) == 0 {
		return sec
	}
	for _, m := range samples {
		sec.AvgCPU += m.CPUUsage
		sec.AvgMemory += m.MemoryUsage
		sec.AvgDisk += m.DiskUsage
	}
	n := float64(len(samples))
	sec.AvgCPU /= n
	sec.AvgMemory /= n
	sec.AvgDisk /= n
	return sec
}

func (a *Aggregator) remediationSection(ctx context.Context) models.RemediationSection {
	actions, err := a.repo.ListRecentRemediations(ctx, a.cfg.ActionLimit)
	if err != nil {
		return models.RemediationSection{ByStatus: map[string]int{}, Sample: []models.RemediationAction{}, Error: a.sectionFailed("remediations", err)}
	}

	sec := models.RemediationSection{Total: len(actions), ByStatus: map[string]int{}, Sample: []models.RemediationAction{}}
	for _, ac := range actions {
		sec.ByStatus[string(ac.Status)]++
	}
	for i := 0; i < len(actions) && i < a.cfg.SampleSize; i++ {
		sec.Sample = append(sec.Sample, *actions[i])
	}
	return sec
}

func (a *Aggregator) auditSection(ctx context.Context) models.AuditSection {
	entries, err := a.repo.ListRecentAuditLogs(ctx, a.cfg.AuditLimit)
	if err != nil {
		return models.AuditSection{Sample: []models.AuditLogEntry{}, Error: a.sectionFailed("audit_logs", err)}
	}

	sec := models.AuditSection{Sample: []models.AuditLogEntry{}}
	for _, e := range entries {
		sec.Sample = append(sec.Sample, *e)
	}
	return sec
}

func (a *Aggregator) predictionSection(ctx context.Context) models.PredictionSection {
	predictions, err := a.repo.ListPredictionsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return models.PredictionSection{Sample: []models.Prediction{}, Error: a.sectionFailed("predictions", err)}
	}

	sec := models.PredictionSection{Total: len(predictions), Sample: []models.Prediction{}}
	for i := 0; i < len(predictions) && i < a.cfg.SampleSize; i++ {
		sec.Sample = append(sec.Sample, *predictions[i])
	}
	return sec
}

func (a *Aggregator) cloudSection(ctx context.Context) models.CloudSection {
	resources, err := a.repo.ListCloudResources(ctx)
	if err != nil {
		return models.CloudSection{ByProvider: map[string]int{}, Sample: []models.CloudResource{}, Error: a.sectionFailed("cloud", err)}
	}

	sec := models.CloudSection{Total: len(resources), ByProvider: map[string]int{}, Sample: []models.CloudResource{}}
	for _, res := range resources {
		sec.ByProvider[res.Provider]++
	}
	for i := 0; i < len(resources) && i < a.cfg.SampleSize; i++ {
		sec.Sample = append(sec.Sample, *resources[i])
	}
	return sec
}
