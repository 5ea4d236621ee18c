// Package agent tracks every agent's identity, capabilities, lifecycle
// status, resource usage and heartbeat, and runs the periodic workers that
// make up the monitoring pipeline.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/metrics"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// ErrAlreadyRunning is returned by Start when the agent is already active.
var ErrAlreadyRunning = errors.New("agent already running")

// ErrHeartbeatRegression is returned when a heartbeat is older than the
// last recorded one. Heartbeats must be monotonic in time.
var ErrHeartbeatRegression = errors.New("heartbeat regression")

// Recorder appends audit entries for lifecycle events.
type Recorder interface {
	Record(ctx context.Context, agentID, action string, status models.AuditStatus, details string)
}

// Broadcaster pushes agent status changes to live dashboard clients.
type Broadcaster interface {
	BroadcastAgentUpdate(event string, agent *models.Agent)
}

// Descriptor describes an agent at registration time.
type Descriptor struct {
	Name   string
	Type   models.AgentType
	Config models.AgentConfig
}

// Registry is the agent lifecycle manager. Status transitions go through
// compare-and-set against the repository so dashboards reflect restarts
// across process lifetimes; agent internals never set status directly.
type Registry struct {
	repo      repository.AgentRepository
	audit     Recorder
	broadcast Broadcaster
	logger    *zap.Logger

	// stalenessFactor × declared interval is the heartbeat age beyond
	// which an active agent is reported degraded.
	stalenessFactor float64
	defaultInterval time.Duration

	now func() time.Time // injected in tests
}

// NewRegistry creates an agent registry. broadcast may be nil.
func NewRegistry(repo repository.AgentRepository, audit Recorder, broadcast Broadcaster, stalenessFactor float64, defaultInterval time.Duration, logger *zap.Logger) *Registry {
	if stalenessFactor <= 0 {
		stalenessFactor = 2.0
	}
	if defaultInterval <= 0 {
		defaultInterval = 30 * time.Second
	}
	return &Registry{
		repo:            repo,
		audit:           audit,
		broadcast:       broadcast,
		logger:          logger,
		stalenessFactor: stalenessFactor,
		defaultInterval: defaultInterval,
		now:             time.Now,
	}
}

// Register creates the agent record in inactive status.
func (r *Registry) Register(ctx context.Context, desc Descriptor) (*models.Agent, error) {
	if desc.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if desc.Type == "" {
		return nil, fmt.Errorf("agent type is required")
	}

	agent := &models.Agent{
		Name:   desc.Name,
		Type:   desc.Type,
		Status: models.AgentStatusInactive,
		Config: desc.Config,
	}
	if err := r.repo.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to register agent: %w", err)
	}

	r.audit.Record(ctx, agent.ID, "agent_registered", models.AuditStatusSuccess,
		fmt.Sprintf("agent %s (%s) registered", agent.Name, agent.Type))
	return agent, nil
}

// Start transitions the agent to active. Fails with ErrAlreadyRunning when
// the stored status is already active.
func (r *Registry) Start(ctx context.Context, agentID string) error {
	agent, err := r.repo.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.Status == models.AgentStatusActive {
		return fmt.Errorf("agent %s: %w", agentID, ErrAlreadyRunning)
	}

	ok, err := r.repo.UpdateAgentStatus(ctx, agentID, agent.Status, models.AgentStatusActive)
	if err != nil {
		return fmt.Errorf("failed to start agent %s: %w", agentID, err)
	}
	if !ok {
		// Another caller changed the status under us.
		return fmt.Errorf("agent %s: %w", agentID, ErrAlreadyRunning)
	}

	metrics.AgentsActive.Inc()
	r.audit.Record(ctx, agentID, "agent_started", models.AuditStatusSuccess,
		fmt.Sprintf("agent %s started", agent.Name))
	r.notify("started", agentID)
	return nil
}

// Stop marks the agent inactive. Idempotent: stopping a stopped agent is a
// no-op. Agents are never hard-deleted, for auditability.
func (r *Registry) Stop(ctx context.Context, agentID string) error {
	agent, err := r.repo.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.Status == models.AgentStatusInactive {
		return nil
	}

	ok, err := r.repo.UpdateAgentStatus(ctx, agentID, agent.Status, models.AgentStatusInactive)
	if err != nil {
		return fmt.Errorf("failed to stop agent %s: %w", agentID, err)
	}
	if !ok {
		// Lost the race; re-read and treat an already-stopped agent as done.
		current, err := r.repo.GetAgent(ctx, agentID)
		if err != nil {
			return err
		}
		if current.Status != models.AgentStatusInactive {
			return fmt.Errorf("failed to stop agent %s: status changed to %s", agentID, current.Status)
		}
		return nil
	}

	metrics.AgentsActive.Dec()
	r.audit.Record(ctx, agentID, "agent_stopped", models.AuditStatusSuccess,
		fmt.Sprintf("agent %s stopped", agent.Name))
	r.notify("stopped", agentID)
	return nil
}

// MarkError transitions the agent to error status, from any state.
func (r *Registry) MarkError(ctx context.Context, agentID string, cause error) error {
	agent, err := r.repo.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.Status == models.AgentStatusError {
		return nil
	}
	if _, err := r.repo.UpdateAgentStatus(ctx, agentID, agent.Status, models.AgentStatusError); err != nil {
		return err
	}
	r.audit.Record(ctx, agentID, "agent_error", models.AuditStatusError,
		fmt.Sprintf("agent %s entered error state: %v", agent.Name, cause))
	r.notify("error", agentID)
	return nil
}

// Heartbeat records resource metrics and the heartbeat time. The heartbeat
// is the sole channel for resource-metric freshness and must not regress.
func (r *Registry) Heartbeat(ctx context.Context, agentID string, hb models.HeartbeatMetrics) error {
	agent, err := r.repo.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}

	at := r.now()
	if agent.LastHeartbeat != nil && at.Before(*agent.LastHeartbeat) {
		return fmt.Errorf("agent %s: %w", agentID, ErrHeartbeatRegression)
	}

	if err := r.repo.UpdateAgentHeartbeat(ctx, agentID, at, hb); err != nil {
		return err
	}
	metrics.AgentHeartbeats.WithLabelValues(string(agent.Type)).Inc()
	return nil
}

// GetStatus returns the agent with the derived degraded flag set.
func (r *Registry) GetStatus(ctx context.Context, agentID string) (*models.Agent, error) {
	agent, err := r.repo.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	r.deriveDegraded(agent)
	return agent, nil
}

// List returns all agents with derived degraded flags.
func (r *Registry) List(ctx context.Context) ([]*models.Agent, error) {
	agents, err := r.repo.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		r.deriveDegraded(a)
	}
	return agents, nil
}

// deriveDegraded flags an active agent whose heartbeat is older than the
// staleness window. Derived at read time, never stored: the agent may
// still think it is healthy.
func (r *Registry) deriveDegraded(agent *models.Agent) {
	if agent.Status != models.AgentStatusActive {
		return
	}

	interval := r.defaultInterval
	if agent.Config.IntervalSeconds > 0 {
		interval = time.Duration(agent.Config.IntervalSeconds) * time.Second
	}
	window := time.Duration(float64(interval) * r.stalenessFactor)

	last := agent.CreatedAt
	if agent.LastHeartbeat != nil {
		last = *agent.LastHeartbeat
	}
	agent.Degraded = r.now().Sub(last) > window
}

func (r *Registry) notify(event string, agentID string) {
	if r.broadcast == nil {
		return
	}
	agent, err := r.repo.GetAgent(context.Background(), agentID)
	if err != nil {
		r.logger.Warn("failed to load agent for broadcast", zap.String("agent_id", agentID), zap.Error(err))
		return
	}
	r.deriveDegraded(agent)
	r.broadcast.BroadcastAgentUpdate(event, agent)
}
