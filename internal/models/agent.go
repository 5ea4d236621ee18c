package models

import (
	"encoding/json"
	"time"
)

// AgentType identifies the stage of the monitoring/remediation pipeline an
// agent participates in.
type AgentType string

const (
	AgentTypeCollector      AgentType = "collector"
	AgentTypeDetector       AgentType = "detector"
	AgentTypePredictor      AgentType = "predictor"
	AgentTypeRecommender    AgentType = "recommender"
	AgentTypeApprover       AgentType = "approver"
	AgentTypeExecutor       AgentType = "executor"
	AgentTypeAuditor        AgentType = "auditor"
	AgentTypeConversational AgentType = "conversational"
)

// AgentStatus is the stored lifecycle state of an agent. Transitioned only
// through the registry, never by agent internals.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusError    AgentStatus = "error"
)

// AgentConfig is the per-agent configuration record. Loaded once at agent
// start and immutable for that run instance; reconfiguration creates a new
// logical version.
type AgentConfig struct {
	ModelName        string   `json:"model_name,omitempty"`
	SystemPrompt     string   `json:"system_prompt,omitempty"`
	Temperature      float64  `json:"temperature,omitempty"`
	MaxTokens        int      `json:"max_tokens,omitempty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty"`
	IntervalSeconds  int      `json:"interval_seconds,omitempty"`
	Thresholds       Metadata `json:"thresholds,omitempty"`
	Capabilities     []string `json:"capabilities,omitempty"`
	Version          int      `json:"version,omitempty"`
}

// Agent represents a registered agent and its latest observed health.
// Agents are never hard-deleted; stop marks them inactive for auditability.
type Agent struct {
	ID             string      `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	Type           AgentType   `json:"type" db:"type"`
	Status         AgentStatus `json:"status" db:"status"`
	Config         AgentConfig `json:"config" db:"-"`
	ConfigJSON     string      `json:"-" db:"config"`
	CPUUsage       float64     `json:"cpu_usage" db:"cpu_usage"`
	MemoryMB       float64     `json:"memory_mb" db:"memory_mb"`
	ProcessedCount int64       `json:"processed_count" db:"processed_count"`
	ErrorCount     int64       `json:"error_count" db:"error_count"`
	LastHeartbeat  *time.Time  `json:"last_heartbeat,omitempty" db:"last_heartbeat"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	// Degraded is derived at read time from heartbeat staleness; it is
	// never stored.
	Degraded bool `json:"degraded" db:"-"`
}

// Metadata is a free-form string-keyed map stored as JSON.
type Metadata map[string]interface{}

// EncodeConfig serializes Config into ConfigJSON for storage.
func (a *Agent) EncodeConfig() error {
	data, err := json.Marshal(a.Config)
	if err != nil {
		return err
	}
	a.ConfigJSON = string(data)
	return nil
}

// DecodeConfig populates Config from ConfigJSON after a read.
func (a *Agent) DecodeConfig() error {
	if a.ConfigJSON == "" {
		return nil
	}
	return json.Unmarshal([]byte(a.ConfigJSON), &a.Config)
}

// HeartbeatMetrics carries the resource usage reported with a heartbeat.
type HeartbeatMetrics struct {
	CPUUsage       float64 `json:"cpu_usage"`
	MemoryMB       float64 `json:"memory_mb"`
	ProcessedDelta int64   `json:"processed_delta"`
	ErrorDelta     int64   `json:"error_delta"`
}

// AgentPerformance summarizes processing health for the agent details view.
type AgentPerformance struct {
	SuccessRate          float64    `json:"successRate"`
	AvgProcessingTime    float64    `json:"avgProcessingTime"`
	LastActiveProcessing *time.Time `json:"lastActiveProcessing,omitempty"`
}
