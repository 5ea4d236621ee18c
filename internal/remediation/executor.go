package remediation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// Runner performs one corrective action against the target server.
// Implementations live at the infrastructure boundary; the default runner
// only simulates execution.
type Runner func(ctx context.Context, action *models.RemediationAction) (string, error)

// SimulatedRunner acknowledges the action without touching infrastructure.
func SimulatedRunner(ctx context.Context, action *models.RemediationAction) (string, error) {
	return fmt.Sprintf("%s executed on server %s", action.ActionType, action.ServerID), nil
}

// Executor consumes approved actions and drives them through executing to
// a terminal status. It listens on the engine's signal channel and also
// polls the repository, so approvals persisted before a restart are never
// lost.
type Executor struct {
	engine       *Engine
	repo         repository.RemediationRepository
	run          Runner
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewExecutor creates an executor. run defaults to SimulatedRunner.
func NewExecutor(engine *Engine, repo repository.RemediationRepository, run Runner, pollInterval time.Duration, logger *zap.Logger) *Executor {
	if run == nil {
		run = SimulatedRunner
	}
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	return &Executor{
		engine:       engine,
		repo:         repo,
		run:          run,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Start runs the executor loop until ctx is cancelled.
func (x *Executor) Start(ctx context.Context) {
	ticker := time.NewTicker(x.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case actionID := <-x.engine.Approved():
			x.execute(ctx, actionID)
		case <-ticker.C:
			x.drainApproved(ctx)
		}
	}
}

// drainApproved picks up approved actions whose signal was missed.
func (x *Executor) drainApproved(ctx context.Context) {
	actions, err := x.repo.ListRemediationsByStatus(ctx, models.RemediationStatusApproved)
	if err != nil {
		x.logger.Error("failed to list approved actions", zap.Error(err))
		return
	}
	for _, a := range actions {
		x.execute(ctx, a.ID)
	}
}

func (x *Executor) execute(ctx context.Context, actionID string) {
	action, err := x.engine.MarkExecuting(ctx, actionID)
	if err != nil {
		// Lost the race to another executor pass; nothing to do.
		var te *TransitionError
		if errors.As(err, &te) {
			return
		}
		x.logger.Error("failed to mark action executing",
			zap.String("action_id", actionID), zap.Error(err))
		return
	}

	result, runErr := x.run(ctx, action)
	if runErr != nil {
		if _, err := x.engine.MarkFailed(ctx, actionID, runErr.Error()); err != nil {
			x.logger.Error("failed to mark action failed",
				zap.String("action_id", actionID), zap.Error(err))
		}
		return
	}

	if _, err := x.engine.MarkCompleted(ctx, actionID, result); err != nil {
		x.logger.Error("failed to mark action completed",
			zap.String("action_id", actionID), zap.Error(err))
	}
}
