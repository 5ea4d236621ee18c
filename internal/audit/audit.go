// Package audit records the full lifecycle of platform actions. Entries go
// to the append-only audit table and, as JSON lines, to a rotated audit
// file. Failures to audit are logged but never fail the audited operation.
package audit

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/repository"
)

// Recorder writes audit entries to the repository and the audit file.
type Recorder struct {
	repo   repository.AuditLogRepository
	file   *zap.Logger
	logger *zap.Logger
}

// Config controls the audit file sink.
type Config struct {
	FilePath   string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns default audit file settings.
func DefaultConfig() Config {
	return Config{
		FilePath:   "logs/audit.log",
		MaxSizeMB:  100,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// NewRecorder creates an audit recorder.
func NewRecorder(repo repository.AuditLogRepository, cfg Config, logger *zap.Logger) *Recorder {
	r := &Recorder{repo: repo, logger: logger}

	if cfg.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		encoderConfig := zapcore.EncoderConfig{
			TimeKey:    "timestamp",
			MessageKey: "message",
			LineEnding: zapcore.DefaultLineEnding,
			EncodeTime: zapcore.ISO8601TimeEncoder,
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			zapcore.InfoLevel, // audit entries are always recorded
		)
		r.file = zap.New(core)
	}

	return r
}

// Record appends one audit entry. agentID may be empty for operator-driven
// events.
func (r *Recorder) Record(ctx context.Context, agentID, action string, status models.AuditStatus, details string) {
	entry := &models.AuditLogEntry{
		AgentID: agentID,
		Action:  action,
		Status:  status,
		Details: details,
	}
	if err := r.repo.AppendAuditLog(ctx, entry); err != nil {
		r.logger.Error("failed to append audit log", zap.Error(err), zap.String("action", action))
	}

	if r.file != nil {
		r.file.Info(action,
			zap.String("agent_id", agentID),
			zap.String("status", string(status)),
			zap.String("details", details),
		)
	}
}

// Sync flushes the audit file sink.
func (r *Recorder) Sync() error {
	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}
