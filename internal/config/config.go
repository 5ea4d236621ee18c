package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	DatabasePath       string   `mapstructure:"database_path"`
	LogLevel           string   `mapstructure:"log_level"`
	LogFilePath        string   `mapstructure:"log_file_path"`
	AuditLogFilePath   string   `mapstructure:"audit_log_file_path"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`  // HTTP read/write; 0 = server default
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"` // Graceful shutdown wait

	// Approval
	AutoApproveThreshold float64 `mapstructure:"auto_approve_threshold"` // confidence cutoff, inclusive

	// Agents
	HeartbeatStalenessFactor float64 `mapstructure:"heartbeat_staleness_factor"` // × declared interval before degraded
	DefaultAgentIntervalSec  int     `mapstructure:"default_agent_interval_sec"`

	// Snapshot
	SnapshotSampleSize  int `mapstructure:"snapshot_sample_size"`
	SnapshotAuditLimit  int `mapstructure:"snapshot_audit_limit"`
	SnapshotActionLimit int `mapstructure:"snapshot_action_limit"`

	// Chat
	ChatHistoryTurns   int `mapstructure:"chat_history_turns"`
	ChatSessionMax     int `mapstructure:"chat_session_max"`
	ChatSessionIdleSec int `mapstructure:"chat_session_idle_sec"`
	ProviderTimeoutSec int `mapstructure:"provider_timeout_sec"`

	// Reasoning provider
	LLMProvider string `mapstructure:"llm_provider"` // openai | custom
	LLMAPIKey   string `mapstructure:"llm_api_key"`
	LLMModel    string `mapstructure:"llm_model"`
	LLMBaseURL  string `mapstructure:"llm_base_url"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/agentops/")
	viper.AddConfigPath("$HOME/.agentops")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 5000)
	viper.SetDefault("database_path", "./agentops.db")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file_path", "")
	viper.SetDefault("audit_log_file_path", "logs/audit.log")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("auto_approve_threshold", 0.9)
	viper.SetDefault("heartbeat_staleness_factor", 2.0)
	viper.SetDefault("default_agent_interval_sec", 30)
	viper.SetDefault("snapshot_sample_size", 5)
	viper.SetDefault("snapshot_audit_limit", 20)
	viper.SetDefault("snapshot_action_limit", 20)
	viper.SetDefault("chat_history_turns", 10)
	viper.SetDefault("chat_session_max", 1000)
	viper.SetDefault("chat_session_idle_sec", 1800)
	viper.SetDefault("provider_timeout_sec", 30)
	viper.SetDefault("llm_provider", "openai")
	viper.SetDefault("llm_api_key", "")
	viper.SetDefault("llm_model", "")
	viper.SetDefault("llm_base_url", "")

	// Environment variables
	viper.SetEnvPrefix("AGENTOPS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
