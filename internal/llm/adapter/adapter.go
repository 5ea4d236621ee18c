// Package adapter provides a unified interface over reasoning providers and
// tracks each provider's health for operator visibility.
package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/provider/openai"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/types"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/metrics"
)

// Provider is the unified interface for reasoning providers.
type Provider interface {
	// Complete sends a prompt and returns the completion text. Errors are
	// *types.ProviderError values carrying their classification.
	Complete(ctx context.Context, messages []types.Message, settings types.GenerationSettings) (string, error)

	// Model returns the default model identifier for this provider.
	Model() string
}

// ProviderType identifies the configured provider implementation.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderCustom ProviderType = "custom" // OpenAI-compatible endpoint
)

// Config selects and configures the provider.
type Config struct {
	Provider ProviderType
	APIKey   string
	Model    string
	BaseURL  string
}

// NewProvider constructs the configured provider implementation.
func NewProvider(cfg *Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderCustom:
		return openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// ProviderStatus is the operator-facing health summary of one provider.
type ProviderStatus struct {
	Status     string    `json:"status"` // active | quota_exceeded | invalid_key | rate_limited
	LastError  string    `json:"lastError,omitempty"`
	ErrorCount int       `json:"errorCount"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// TrackedProvider wraps a Provider, recording per-call outcome so the
// system status endpoint can report classified provider health. Raw error
// text goes to the log only.
type TrackedProvider struct {
	name   string
	inner  Provider
	logger *zap.Logger

	mu     sync.RWMutex
	status ProviderStatus
}

// NewTrackedProvider wraps inner with status tracking under the given name.
func NewTrackedProvider(name string, inner Provider, logger *zap.Logger) *TrackedProvider {
	return &TrackedProvider{
		name:   name,
		inner:  inner,
		logger: logger,
		status: ProviderStatus{Status: "active", CheckedAt: time.Now()},
	}
}

func (t *TrackedProvider) Model() string { return t.inner.Model() }

// Complete delegates to the wrapped provider and records the outcome.
func (t *TrackedProvider) Complete(ctx context.Context, messages []types.Message, settings types.GenerationSettings) (string, error) {
	start := time.Now()
	reply, err := t.inner.Complete(ctx, messages, settings)
	model := settings.Model
	if model == "" {
		model = t.inner.Model()
	}
	metrics.LLMRequestDuration.WithLabelValues(t.name, model).Observe(time.Since(start).Seconds())

	t.mu.Lock()
	t.status.CheckedAt = time.Now()
	if err != nil {
		kind := types.KindOf(err)
		t.status.ErrorCount++
		t.status.LastError = string(kind)
		switch kind {
		case types.ErrQuotaExceeded, types.ErrInvalidCredential, types.ErrRateLimited:
			t.status.Status = string(kind)
		default:
			// Transport and unknown failures are transient; the provider
			// stays nominally active for the status view.
			t.status.Status = "active"
		}
		t.mu.Unlock()

		metrics.LLMRequestsTotal.WithLabelValues(t.name, model, string(kind)).Inc()
		if pe, ok := err.(*types.ProviderError); ok {
			t.logger.Warn("reasoning provider call failed",
				zap.String("provider", t.name),
				zap.String("kind", string(pe.Kind)),
				zap.String("raw", pe.Raw),
			)
		}
		return "", err
	}
	t.status.Status = "active"
	t.mu.Unlock()

	metrics.LLMRequestsTotal.WithLabelValues(t.name, model, "ok").Inc()
	return reply, nil
}

// Name returns the provider name used in the status map.
func (t *TrackedProvider) Name() string { return t.name }

// Status returns a copy of the current status.
func (t *TrackedProvider) Status() ProviderStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
