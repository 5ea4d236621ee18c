package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Platform metrics for production monitoring
var (
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentops_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Agent metrics
	AgentHeartbeats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_agent_heartbeats_total",
			Help: "Total number of agent heartbeats received",
		},
		[]string{"agent_type"},
	)

	AgentsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_agents_active",
			Help: "Number of agents currently active",
		},
	)

	// Remediation metrics
	RemediationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_remediation_transitions_total",
			Help: "Total number of remediation status transitions",
		},
		[]string{"from", "to"},
	)

	RemediationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentops_remediation_conflicts_total",
			Help: "Total number of lost compare-and-set races on remediation status",
		},
	)

	// Reasoning provider metrics
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_llm_requests_total",
			Help: "Total number of reasoning provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentops_llm_request_duration_seconds",
			Help:    "Reasoning provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"provider", "model"},
	)

	// Snapshot metrics
	SnapshotSectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentops_snapshot_section_failures_total",
			Help: "Total number of snapshot sections returned with an error marker",
		},
		[]string{"section"},
	)

	// Chat metrics
	ChatSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentops_chat_sessions_active",
			Help: "Number of live conversation sessions",
		},
	)

	ChatFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentops_chat_fallbacks_total",
			Help: "Total number of chat replies degraded to the fallback string",
		},
	)
)
