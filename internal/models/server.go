package models

import "time"

// ServerStatus reflects the current health classification of a server.
type ServerStatus string

const (
	ServerStatusHealthy  ServerStatus = "healthy"
	ServerStatusWarning  ServerStatus = "warning"
	ServerStatusCritical ServerStatus = "critical"
)

// Server represents a monitored host. Read-only to the orchestration core;
// the ingestion subsystem owns writes.
type Server struct {
	ID          string       `json:"id" db:"id"`
	Hostname    string       `json:"hostname" db:"hostname"`
	IPAddress   string       `json:"ip_address" db:"ip_address"`
	Environment string       `json:"environment" db:"environment"`
	Location    string       `json:"location" db:"location"`
	Status      ServerStatus `json:"status" db:"status"`
	Tags        string       `json:"tags,omitempty" db:"tags"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// ServerMetric is a single resource usage sample for a server.
type ServerMetric struct {
	ID             int64     `json:"id" db:"id"`
	ServerID       string    `json:"server_id" db:"server_id"`
	CPUUsage       float64   `json:"cpu_usage" db:"cpu_usage"`
	MemoryUsage    float64   `json:"memory_usage" db:"memory_usage"`
	DiskUsage      float64   `json:"disk_usage" db:"disk_usage"`
	NetworkLatency float64   `json:"network_latency" db:"network_latency"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
}
