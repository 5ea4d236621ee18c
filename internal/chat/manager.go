// Package chat owns per-session conversation state and turns operator
// questions plus a platform snapshot into reasoning-provider prompts.
// Sessions are volatile by design: a bounded in-memory cache with idle
// expiry, lost on restart.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/types"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/pkg/metrics"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// FallbackReply is returned whenever the reasoning provider fails, for any
// reason. Chat users never see a hard provider failure.
const FallbackReply = "I'm sorry, I'm having trouble reaching the reasoning service right now. Please try again in a few moments."

const systemInstruction = `You are an infrastructure operations assistant. You have access to a live snapshot of the monitored platform: servers, alerts, agents, metrics, remediation actions, predictions and audit logs. Answer the operator's questions concisely and ground every statement in the snapshot data. If the snapshot lacks the information, say so.`

// Provider is the reasoning boundary consumed by the manager.
type Provider interface {
	Complete(ctx context.Context, messages []types.Message, settings types.GenerationSettings) (string, error)
}

// Snapshotter supplies the platform context serialized into each prompt.
type Snapshotter interface {
	Snapshot(ctx context.Context) *models.PlatformContext
}

// Config bounds session storage and prompt construction.
type Config struct {
	HistoryTurns    int           // trailing non-system turns sent per call
	MaxSessions     int           // LRU capacity
	IdleTimeout     time.Duration // session expiry after last activity
	ProviderTimeout time.Duration // per-call deadline on the provider
	Settings        types.GenerationSettings
}

// DefaultConfig returns standard chat limits.
func DefaultConfig() Config {
	return Config{
		HistoryTurns:    10,
		MaxSessions:     1000,
		IdleTimeout:     30 * time.Minute,
		ProviderTimeout: 30 * time.Second,
	}
}

// session wraps the conversation with its turn lock. Turns within one
// session are strictly ordered by arrival; the lock serializes them.
type session struct {
	mu   sync.Mutex
	data *models.ConversationSession
}

// Manager implements the conversational session state machine:
// created → active → closed (delete or idle expiry).
type Manager struct {
	sessions  *expirable.LRU[string, *session]
	provider  Provider
	snapshots Snapshotter
	cfg       Config
	logger    *zap.Logger
}

// NewManager creates a session manager.
func NewManager(provider Provider, snapshots Snapshotter, cfg Config, logger *zap.Logger) *Manager {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 10
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 30 * time.Second
	}

	m := &Manager{provider: provider, snapshots: snapshots, cfg: cfg, logger: logger}
	m.sessions = expirable.NewLRU[string, *session](cfg.MaxSessions,
		func(key string, _ *session) {
			metrics.ChatSessionsActive.Dec()
		}, cfg.IdleTimeout)
	return m
}

// CreateSession seeds a new session with the synthesized system message and
// returns its id. No external call is made.
func (m *Manager) CreateSession(userID string) string {
	now := time.Now()
	s := &session{
		data: &models.ConversationSession{
			ID:     uuid.New().String(),
			UserID: userID,
			Messages: []models.ConversationMessage{
				{
					ID:        uuid.New().String(),
					Role:      models.RoleSystem,
					Content:   systemInstruction,
					Timestamp: now,
				},
			},
			Context:   models.Metadata{},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	m.sessions.Add(s.data.ID, s)
	metrics.ChatSessionsActive.Inc()
	return s.data.ID
}

// ProcessMessage appends the user turn, builds the bounded prompt, invokes
// the provider and appends its reply. Fails closed: any provider failure
// yields FallbackReply, and both turns are still recorded so conversation
// continuity survives a transient outage.
func (m *Manager) ProcessMessage(ctx context.Context, sessionID, text string) (string, error) {
	s, ok := m.sessions.Get(sessionID)
	if !ok {
		return "", fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.data.Messages = append(s.data.Messages, models.ConversationMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: now,
	})
	s.data.UpdatedAt = now

	prompt := m.buildPrompt(ctx, s.data)

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.ProviderTimeout)
	reply, err := m.provider.Complete(callCtx, prompt, m.cfg.Settings)
	cancel()
	if err != nil {
		m.logger.Warn("reasoning provider failed, degrading to fallback",
			zap.String("session_id", sessionID),
			zap.String("kind", string(types.KindOf(err))),
		)
		metrics.ChatFallbacks.Inc()
		reply = FallbackReply
	}

	s.data.Messages = append(s.data.Messages, models.ConversationMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	})
	s.data.UpdatedAt = time.Now()

	return reply, nil
}

// buildPrompt assembles: fresh system instruction with the serialized
// snapshot, then the trailing HistoryTurns non-system turns oldest-first.
// Stored system turns are excluded from the window since the instruction is
// re-sent fresh each call.
func (m *Manager) buildPrompt(ctx context.Context, data *models.ConversationSession) []types.Message {
	system := systemInstruction
	if snap := m.snapshots.Snapshot(ctx); snap != nil {
		if encoded, err := json.Marshal(snap); err == nil {
			system += "\n\nCurrent platform state:\n" + string(encoded)
		}
	}

	var turns []models.ConversationMessage
	for _, msg := range data.Messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) > m.cfg.HistoryTurns {
		turns = turns[len(turns)-m.cfg.HistoryTurns:]
	}

	prompt := make([]types.Message, 0, len(turns)+1)
	prompt = append(prompt, types.Message{Role: string(models.RoleSystem), Content: system})
	for _, t := range turns {
		prompt = append(prompt, types.Message{Role: string(t.Role), Content: t.Content})
	}
	return prompt
}

// GetMessages returns the session's messages with the system turn filtered
// out. The returned slice is a copy; stored messages are never mutated.
func (m *Manager) GetMessages(sessionID string) ([]models.ConversationMessage, error) {
	s, ok := m.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConversationMessage, 0, len(s.data.Messages))
	for _, msg := range s.data.Messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// DeleteSession closes the session.
func (m *Manager) DeleteSession(sessionID string) error {
	if _, ok := m.sessions.Peek(sessionID); !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	m.sessions.Remove(sessionID) // eviction callback decrements the gauge
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return m.sessions.Len() }
