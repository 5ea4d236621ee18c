package agent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
)

// TaskFunc is one unit of periodic agent work. It returns the number of
// items processed this tick.
type TaskFunc func(ctx context.Context) (processed int, err error)

// worker couples a registered agent with its periodic task. The task is
// built after registration, since some tasks need their own agent id for
// attribution.
type worker struct {
	descriptor Descriptor
	build      func(agentID string) TaskFunc
}

// Runner drives the fleet of periodic workers. Each worker registers and
// starts its agent through the registry, then runs its task on its declared
// interval, heartbeating after every tick. Workers share no mutable state;
// everything cross-cutting goes through the repositories.
type Runner struct {
	registry *Registry
	logger   *zap.Logger

	workers []worker
	wg      sync.WaitGroup
}

// NewRunner creates an empty runner.
func NewRunner(registry *Registry, logger *zap.Logger) *Runner {
	return &Runner{registry: registry, logger: logger}
}

// Add queues a worker. Call before Start.
func (r *Runner) Add(desc Descriptor, task TaskFunc) {
	r.AddFunc(desc, func(string) TaskFunc { return task })
}

// AddFunc queues a worker whose task needs its registered agent id.
func (r *Runner) AddFunc(desc Descriptor, build func(agentID string) TaskFunc) {
	r.workers = append(r.workers, worker{descriptor: desc, build: build})
}

// Start registers, starts and runs every worker until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	for _, w := range r.workers {
		agent, err := r.registry.Register(ctx, w.descriptor)
		if err != nil {
			return err
		}
		if err := r.registry.Start(ctx, agent.ID); err != nil {
			return err
		}

		r.wg.Add(1)
		go r.runWorker(ctx, agent, w.build(agent.ID))
	}
	return nil
}

// Wait blocks until all workers have exited.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) runWorker(ctx context.Context, agent *models.Agent, task TaskFunc) {
	defer r.wg.Done()

	interval := time.Duration(agent.Config.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = r.registry.defaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.registry.Stop(stopCtx, agent.ID); err != nil {
				r.logger.Warn("failed to stop agent on shutdown",
					zap.String("agent", agent.Name), zap.Error(err))
			}
			cancel()
			return

		case <-ticker.C:
			start := time.Now()
			processed, err := task(ctx)

			hb := models.HeartbeatMetrics{
				// Resource usage is self-reported per tick; a dedicated
				// sampler is overkill for in-process workers.
				CPUUsage:       float64(time.Since(start).Milliseconds()) / interval.Seconds() / 10,
				MemoryMB:       32,
				ProcessedDelta: int64(processed),
			}
			if err != nil {
				hb.ErrorDelta = 1
				r.logger.Error("agent task failed",
					zap.String("agent", agent.Name), zap.Error(err))
			}
			if hbErr := r.registry.Heartbeat(ctx, agent.ID, hb); hbErr != nil && ctx.Err() == nil {
				r.logger.Warn("heartbeat failed",
					zap.String("agent", agent.Name), zap.Error(hbErr))
			}
		}
	}
}
