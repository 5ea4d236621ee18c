package models

import "time"

// AuditStatus is the outcome recorded with an audit entry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditLogEntry is a single audit record. Append-only: no UPDATE or DELETE
// on audit records.
type AuditLogEntry struct {
	ID        string      `json:"id" db:"id"`
	AgentID   string      `json:"agent_id,omitempty" db:"agent_id"`
	Action    string      `json:"action" db:"action"`
	Status    AuditStatus `json:"status" db:"status"`
	Details   string      `json:"details,omitempty" db:"details"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
