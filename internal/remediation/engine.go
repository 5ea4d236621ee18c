// Package remediation implements the approval state machine for proposed
// corrective actions: pending → {approved, rejected}; approved → executing
// → {completed, failed}. rejected, completed and failed are terminal.
package remediation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/metrics"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// ErrInvalidTransition is returned when a state-machine rule is violated or
// a compare-and-set race is lost. REST maps it to 409 Conflict.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError carries the authoritative current status alongside
// ErrInvalidTransition so callers can reconcile.
type TransitionError struct {
	ActionID string
	Current  models.RemediationStatus
	Wanted   models.RemediationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition for action %s: status is %s, cannot move to %s",
		e.ActionID, e.Current, e.Wanted)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Recorder appends audit entries for remediation lifecycle events.
type Recorder interface {
	Record(ctx context.Context, agentID, action string, status models.AuditStatus, details string)
}

// Broadcaster pushes remediation transitions to live dashboard clients.
// Best-effort: a failed broadcast never fails the transition.
type Broadcaster interface {
	BroadcastRemediationUpdate(event string, action *models.RemediationAction)
}

// Engine owns all RemediationAction status changes. Status is the only
// multi-writer state in the system (operator approve, operator reject,
// executor callbacks can race), so every change goes through the
// repository's compare-and-set.
type Engine struct {
	repo      repository.RemediationRepository
	audit     Recorder
	broadcast Broadcaster
	logger    *zap.Logger

	// threshold is the auto-approval confidence cutoff, inclusive.
	threshold float64

	// approved signals the executor that a newly approved action is ready.
	approved chan string
}

// NewEngine creates the approval engine. broadcast may be nil.
func NewEngine(repo repository.RemediationRepository, audit Recorder, broadcast Broadcaster, threshold float64, logger *zap.Logger) *Engine {
	return &Engine{
		repo:      repo,
		audit:     audit,
		broadcast: broadcast,
		logger:    logger,
		threshold: threshold,
		approved:  make(chan string, 64),
	}
}

// Approved returns the channel carrying ids of actions ready to execute.
// The executor consumes it; it also polls the repository so a missed signal
// is never a lost action.
func (e *Engine) Approved() <-chan string { return e.approved }

// Propose creates the action. The auto-approval decision is made at
// creation time, never as a later transition, so two approvers can never
// race an auto-approved action.
func (e *Engine) Propose(ctx context.Context, action *models.RemediationAction) error {
	if action.Confidence < 0 || action.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0,1], got %v", action.Confidence)
	}

	if action.Confidence >= e.threshold {
		action.Status = models.RemediationStatusApproved
		action.ApprovedBy = "auto-approval"
	} else {
		action.Status = models.RemediationStatusPending
	}

	if err := e.repo.CreateRemediation(ctx, action); err != nil {
		return fmt.Errorf("failed to create remediation action: %w", err)
	}

	metrics.RemediationTransitions.WithLabelValues("", string(action.Status)).Inc()
	e.audit.Record(ctx, action.AlertID, "remediation_proposed", models.AuditStatusSuccess,
		fmt.Sprintf("action %s (%s) proposed with confidence %.2f, created as %s",
			action.ID, action.ActionType, action.Confidence, action.Status))
	e.notify("proposed", action)

	if action.Status == models.RemediationStatusApproved {
		e.signalExecutor(action.ID)
	}
	return nil
}

// Approve transitions pending → approved and signals the executor. Valid
// only from pending; re-approving an approved action fails so the approver
// of record stays unambiguous.
func (e *Engine) Approve(ctx context.Context, actionID, approverID string) (*models.RemediationAction, error) {
	action, err := e.transition(ctx, actionID,
		models.RemediationStatusPending, models.RemediationStatusApproved, approverID, "")
	if err != nil {
		return nil, err
	}

	e.audit.Record(ctx, approverID, "remediation_approved", models.AuditStatusSuccess,
		fmt.Sprintf("action %s approved by %s", actionID, approverID))
	e.signalExecutor(actionID)
	return action, nil
}

// Reject transitions pending → rejected. Terminal.
func (e *Engine) Reject(ctx context.Context, actionID string) (*models.RemediationAction, error) {
	action, err := e.transition(ctx, actionID,
		models.RemediationStatusPending, models.RemediationStatusRejected, "", "")
	if err != nil {
		return nil, err
	}

	e.audit.Record(ctx, "", "remediation_rejected", models.AuditStatusSuccess,
		fmt.Sprintf("action %s rejected", actionID))
	return action, nil
}

// MarkExecuting is driven by the executor when it picks up an approved
// action.
func (e *Engine) MarkExecuting(ctx context.Context, actionID string) (*models.RemediationAction, error) {
	return e.transition(ctx, actionID,
		models.RemediationStatusApproved, models.RemediationStatusExecuting, "", "")
}

// MarkCompleted is driven by the executor on success.
func (e *Engine) MarkCompleted(ctx context.Context, actionID, result string) (*models.RemediationAction, error) {
	action, err := e.transition(ctx, actionID,
		models.RemediationStatusExecuting, models.RemediationStatusCompleted, "", result)
	if err != nil {
		return nil, err
	}
	e.audit.Record(ctx, "", "remediation_completed", models.AuditStatusSuccess,
		fmt.Sprintf("action %s completed: %s", actionID, result))
	return action, nil
}

// MarkFailed is driven by the executor on failure.
func (e *Engine) MarkFailed(ctx context.Context, actionID, reason string) (*models.RemediationAction, error) {
	action, err := e.transition(ctx, actionID,
		models.RemediationStatusExecuting, models.RemediationStatusFailed, "", reason)
	if err != nil {
		return nil, err
	}
	e.audit.Record(ctx, "", "remediation_failed", models.AuditStatusError,
		fmt.Sprintf("action %s failed: %s", actionID, reason))
	return action, nil
}

// transition performs the compare-and-set and reports a lost race or
// invalid state as *TransitionError with the authoritative status.
func (e *Engine) transition(ctx context.Context, actionID string, from, to models.RemediationStatus, approvedBy, result string) (*models.RemediationAction, error) {
	ok, err := e.repo.CompareAndSetStatus(ctx, actionID, from, to, approvedBy, result)
	if err != nil {
		return nil, fmt.Errorf("failed to transition action %s: %w", actionID, err)
	}
	if !ok {
		current, getErr := e.repo.GetRemediation(ctx, actionID)
		if getErr != nil {
			// Unknown id: NotFound dominates over the transition conflict.
			return nil, getErr
		}
		metrics.RemediationConflicts.Inc()
		return nil, &TransitionError{ActionID: actionID, Current: current.Status, Wanted: to}
	}

	metrics.RemediationTransitions.WithLabelValues(string(from), string(to)).Inc()
	action, err := e.repo.GetRemediation(ctx, actionID)
	if err != nil {
		return nil, err
	}
	e.notify(string(to), action)
	return action, nil
}

func (e *Engine) signalExecutor(actionID string) {
	select {
	case e.approved <- actionID:
	default:
		// Channel full; the executor's poll loop will pick the action up.
		e.logger.Warn("executor signal channel full", zap.String("action_id", actionID))
	}
}

func (e *Engine) notify(event string, action *models.RemediationAction) {
	if e.broadcast != nil {
		e.broadcast.BroadcastRemediationUpdate(event, action)
	}
}
