package models

import "time"

// AlertSeverity classifies the urgency of an alert.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityInfo     AlertSeverity = "info"
)

// AlertStatus tracks whether an alert still needs attention.
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// Alert is raised by detector agents when a metric crosses its threshold.
type Alert struct {
	ID          string        `json:"id" db:"id"`
	ServerID    string        `json:"server_id" db:"server_id"`
	Hostname    string        `json:"hostname,omitempty" db:"hostname"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Severity    AlertSeverity `json:"severity" db:"severity"`
	MetricType  string        `json:"metric_type" db:"metric_type"`
	MetricValue float64       `json:"metric_value" db:"metric_value"`
	Threshold   float64       `json:"threshold" db:"threshold"`
	Status      AlertStatus   `json:"status" db:"status"`
	AgentID     string        `json:"agent_id,omitempty" db:"agent_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
}
