package models

import "time"

// SectionError marks a snapshot section whose sub-fetch failed. The section
// is returned empty with the error string attached so consumers can degrade
// instead of losing the whole snapshot.
type SectionError string

// ServerSection summarizes fleet health plus a small representative sample.
type ServerSection struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Sample   []Server       `json:"sample"`
	Error    SectionError   `json:"error,omitempty"`
}

// AlertSection summarizes alerting state.
type AlertSection struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	BySeverity map[string]int `json:"by_severity"`
	Sample     []Alert        `json:"sample"`
	Error      SectionError   `json:"error,omitempty"`
}

// AgentSection summarizes the fleet of agents.
type AgentSection struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Degraded int            `json:"degraded"`
	Sample   []Agent        `json:"sample"`
	Error    SectionError   `json:"error,omitempty"`
}

// MetricSection summarizes recent resource samples (last hour).
type MetricSection struct {
	Total     int          `json:"total"`
	AvgCPU    float64      `json:"avg_cpu"`
	AvgMemory float64      `json:"avg_memory"`
	AvgDisk   float64      `json:"avg_disk"`
	Error     SectionError `json:"error,omitempty"`
}

// RemediationSection summarizes recent remediation actions.
type RemediationSection struct {
	Total    int                 `json:"total"`
	ByStatus map[string]int      `json:"by_status"`
	Sample   []RemediationAction `json:"sample"`
	Error    SectionError        `json:"error,omitempty"`
}

// AuditSection carries the most recent audit entries for context grounding.
type AuditSection struct {
	Sample []AuditLogEntry `json:"sample"`
	Error  SectionError    `json:"error,omitempty"`
}

// PredictionSection summarizes forecasts from the last 24 hours.
type PredictionSection struct {
	Total  int          `json:"total"`
	Sample []Prediction `json:"sample"`
	Error  SectionError `json:"error,omitempty"`
}

// CloudSection summarizes provisioned cloud resources.
type CloudSection struct {
	Total      int             `json:"total"`
	ByProvider map[string]int  `json:"by_provider"`
	Sample     []CloudResource `json:"sample"`
	Error      SectionError    `json:"error,omitempty"`
}

// PlatformContext is a point-in-time aggregate read of cross-entity state.
// Each section is independently fetched; a failed section carries its Error
// marker and empty data rather than aborting the snapshot.
type PlatformContext struct {
	Servers      ServerSection      `json:"servers"`
	Alerts       AlertSection       `json:"alerts"`
	Agents       AgentSection       `json:"agents"`
	Metrics      MetricSection      `json:"metrics"`
	Remediations RemediationSection `json:"remediations"`
	AuditLogs    AuditSection       `json:"audit_logs"`
	Predictions  PredictionSection  `json:"predictions"`
	Cloud        CloudSection       `json:"cloud"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
