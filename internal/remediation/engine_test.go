package remediation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, models.AuditStatus, string) {}

func newTestEngine(t *testing.T, threshold float64) (*Engine, repository.Repository) {
	t.Helper()
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return NewEngine(repo, nopRecorder{}, nil, threshold, zap.NewNop()), repo
}

func proposeAction(t *testing.T, e *Engine, confidence float64) *models.RemediationAction {
	t.Helper()
	action := &models.RemediationAction{
		ServerID:    "srv-1",
		Title:       "Restart nginx",
		Description: "Service unresponsive",
		ActionType:  models.ActionRestartService,
		Confidence:  confidence,
	}
	require.NoError(t, e.Propose(context.Background(), action))
	return action
}

func TestProposeAutoApprovesAtThreshold(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)

	// The threshold is inclusive.
	approved := proposeAction(t, e, 0.9)
	assert.Equal(t, models.RemediationStatusApproved, approved.Status)
	assert.Equal(t, "auto-approval", approved.ApprovedBy)

	pending := proposeAction(t, e, 0.89)
	assert.Equal(t, models.RemediationStatusPending, pending.Status)
	assert.Empty(t, pending.ApprovedBy)
}

func TestProposeRejectsOutOfRangeConfidence(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)

	err := e.Propose(context.Background(), &models.RemediationAction{Confidence: 1.2})
	assert.Error(t, err)
	err = e.Propose(context.Background(), &models.RemediationAction{Confidence: -0.1})
	assert.Error(t, err)
}

func TestAutoApprovedActionSignalsExecutor(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)

	action := proposeAction(t, e, 0.95)

	select {
	case id := <-e.Approved():
		assert.Equal(t, action.ID, id)
	default:
		t.Fatal("expected executor signal for auto-approved action")
	}
}

func TestApproveLifecycle(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)
	ctx := context.Background()

	action := proposeAction(t, e, 0.5)

	approved, err := e.Approve(ctx, action.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RemediationStatusApproved, approved.Status)
	assert.Equal(t, "alice", approved.ApprovedBy)

	executing, err := e.MarkExecuting(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationStatusExecuting, executing.Status)

	completed, err := e.MarkCompleted(ctx, action.ID, "service restarted")
	require.NoError(t, err)
	assert.Equal(t, models.RemediationStatusCompleted, completed.Status)
	assert.Equal(t, "service restarted", completed.Result)
}

func TestReapproveFails(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)
	ctx := context.Background()

	action := proposeAction(t, e, 0.5)
	_, err := e.Approve(ctx, action.ID, "alice")
	require.NoError(t, err)

	_, err = e.Approve(ctx, action.ID, "bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var transErr *TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, models.RemediationStatusApproved, transErr.Current)
}

func TestRejectIsTerminal(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)
	ctx := context.Background()

	action := proposeAction(t, e, 0.4)

	rejected, err := e.Reject(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationStatusRejected, rejected.Status)

	_, err = e.Approve(ctx, action.ID, "alice")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var transErr *TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, models.RemediationStatusRejected, transErr.Current)
}

func TestApproveUnknownActionReturnsNotFound(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)

	_, err := e.Approve(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentApproveRejectSingleWinner(t *testing.T) {
	e, repo := newTestEngine(t, 0.9)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		action := proposeAction(t, e, 0.5)

		var wg sync.WaitGroup
		var approveErr, rejectErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, approveErr = e.Approve(ctx, action.ID, "alice")
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = e.Reject(ctx, action.ID)
		}()
		wg.Wait()

		// Exactly one of the two concurrent calls wins.
		if approveErr == nil {
			assert.ErrorIs(t, rejectErr, ErrInvalidTransition)
		} else {
			require.NoError(t, rejectErr)
			assert.ErrorIs(t, approveErr, ErrInvalidTransition)
		}

		stored, err := repo.GetRemediation(ctx, action.ID)
		require.NoError(t, err)
		if approveErr == nil {
			assert.Equal(t, models.RemediationStatusApproved, stored.Status)
			assert.Equal(t, "alice", stored.ApprovedBy)
		} else {
			assert.Equal(t, models.RemediationStatusRejected, stored.Status)
			assert.Empty(t, stored.ApprovedBy)
		}
	}
}

func TestLoserErrorCarriesCurrentState(t *testing.T) {
	e, _ := newTestEngine(t, 0.9)
	ctx := context.Background()

	action := proposeAction(t, e, 0.5)
	_, err := e.Reject(ctx, action.ID)
	require.NoError(t, err)

	_, err = e.MarkExecuting(ctx, action.ID)
	var transErr *TransitionError
	require.True(t, errors.As(err, &transErr))
	assert.Equal(t, action.ID, transErr.ActionID)
	assert.Equal(t, models.RemediationStatusRejected, transErr.Current)
	assert.Equal(t, models.RemediationStatusExecuting, transErr.Wanted)
}
