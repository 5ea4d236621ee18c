package models

import "time"

// RemediationStatus is the state-machine status of a remediation action.
// pending → {approved, rejected}; approved → executing → {completed, failed}.
// rejected, completed and failed are terminal.
type RemediationStatus string

const (
	RemediationStatusPending   RemediationStatus = "pending"
	RemediationStatusApproved  RemediationStatus = "approved"
	RemediationStatusRejected  RemediationStatus = "rejected"
	RemediationStatusExecuting RemediationStatus = "executing"
	RemediationStatusCompleted RemediationStatus = "completed"
	RemediationStatusFailed    RemediationStatus = "failed"
)

// RemediationActionType enumerates the supported corrective actions.
type RemediationActionType string

const (
	ActionRestartService RemediationActionType = "restart_service"
	ActionCleanupFiles   RemediationActionType = "cleanup_files"
	ActionOptimizeMemory RemediationActionType = "optimize_memory"
	ActionOptimizeCPU    RemediationActionType = "optimize_cpu"
	ActionClearCache     RemediationActionType = "clear_cache"
)

// RemediationAction is a proposed corrective action. Status transitions go
// exclusively through the approval engine's compare-and-set discipline.
type RemediationAction struct {
	ID                string                `json:"id" db:"id"`
	ServerID          string                `json:"server_id" db:"server_id"`
	AlertID           string                `json:"alert_id,omitempty" db:"alert_id"`
	Title             string                `json:"title" db:"title"`
	Description       string                `json:"description" db:"description"`
	ActionType        RemediationActionType `json:"action_type" db:"action_type"`
	Confidence        float64               `json:"confidence" db:"confidence"`
	EstimatedDowntime string                `json:"estimated_downtime" db:"estimated_downtime"`
	Status            RemediationStatus     `json:"status" db:"status"`
	ApprovedBy        string                `json:"approved_by,omitempty" db:"approved_by"`
	Result            string                `json:"result,omitempty" db:"result"`
	CreatedAt         time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at" db:"updated_at"`
}

// ConfidenceLabel derives the qualitative label from the stored numeric
// score. The label is display-only and never stored.
func (a *RemediationAction) ConfidenceLabel() string {
	switch {
	case a.Confidence >= 0.9:
		return "high"
	case a.Confidence >= 0.7:
		return "medium"
	default:
		return "low"
	}
}

// Terminal reports whether the action has reached a final status.
func (s RemediationStatus) Terminal() bool {
	return s == RemediationStatusRejected ||
		s == RemediationStatusCompleted ||
		s == RemediationStatusFailed
}
