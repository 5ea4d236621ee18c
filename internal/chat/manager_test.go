package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/types"
	"github.com/surya-murugan-ai/agentOps-sub003/internal/models"
)

type fakeProvider struct {
	reply string
	err   error
	calls [][]types.Message
}

func (f *fakeProvider) Complete(_ context.Context, messages []types.Message, _ types.GenerationSettings) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeSnapshotter struct{}

func (fakeSnapshotter) Snapshot(context.Context) *models.PlatformContext {
	return &models.PlatformContext{
		Servers:     models.ServerSection{Total: 3},
		GeneratedAt: time.Now(),
	}
}

func newTestManager(provider Provider) *Manager {
	return NewManager(provider, fakeSnapshotter{}, DefaultConfig(), zap.NewNop())
}

func TestCreateSessionSeedsSystemMessage(t *testing.T) {
	m := newTestManager(&fakeProvider{reply: "hi"})

	id := m.CreateSession("alice")
	require.NotEmpty(t, id)

	// The system turn is internal; the visible transcript starts empty.
	messages, err := m.GetMessages(id)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestProcessMessageAppendsBothTurns(t *testing.T) {
	provider := &fakeProvider{reply: "two servers are degraded"}
	m := newTestManager(provider)
	id := m.CreateSession("")

	reply, err := m.ProcessMessage(context.Background(), id, "what is degraded?")
	require.NoError(t, err)
	assert.Equal(t, "two servers are degraded", reply)

	messages, err := m.GetMessages(id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "what is degraded?", messages[0].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "two servers are degraded", messages[1].Content)
}

func TestProviderFailureDegradesToFallback(t *testing.T) {
	provider := &fakeProvider{err: &types.ProviderError{Kind: types.ErrQuotaExceeded, Raw: "quota"}}
	m := newTestManager(provider)
	id := m.CreateSession("")

	reply, err := m.ProcessMessage(context.Background(), id, "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)

	// Both turns are still recorded so the transcript stays continuous.
	messages, err := m.GetMessages(id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, FallbackReply, messages[1].Content)
}

func TestTranscriptGrowsTwoPerCall(t *testing.T) {
	provider := &fakeProvider{err: &types.ProviderError{Kind: types.ErrTransport, Raw: "conn refused"}}
	m := newTestManager(provider)
	id := m.CreateSession("")

	const n = 4
	for i := 0; i < n; i++ {
		_, err := m.ProcessMessage(context.Background(), id, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	messages, err := m.GetMessages(id)
	require.NoError(t, err)
	assert.Len(t, messages, 2*n)
}

func TestPromptCarriesSnapshotAndBoundedHistory(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	cfg := DefaultConfig()
	cfg.HistoryTurns = 4
	m := NewManager(provider, fakeSnapshotter{}, cfg, zap.NewNop())
	id := m.CreateSession("")

	for i := 0; i < 6; i++ {
		_, err := m.ProcessMessage(context.Background(), id, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	last := provider.calls[len(provider.calls)-1]

	// System instruction with the serialized snapshot comes first.
	require.Equal(t, string(models.RoleSystem), last[0].Role)
	assert.True(t, strings.Contains(last[0].Content, "Current platform state"))
	assert.True(t, strings.Contains(last[0].Content, `"total":3`))

	// Only the trailing window follows, oldest first, ending with the
	// just-sent user turn.
	require.Len(t, last, 1+cfg.HistoryTurns)
	assert.Equal(t, string(models.RoleUser), last[len(last)-1].Role)
	assert.Equal(t, "question 5", last[len(last)-1].Content)
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	m := newTestManager(&fakeProvider{reply: "ok"})

	_, err := m.ProcessMessage(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.GetMessages("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, m.DeleteSession("missing"), ErrSessionNotFound)
}

func TestDeleteSessionClosesIt(t *testing.T) {
	m := newTestManager(&fakeProvider{reply: "ok"})
	id := m.CreateSession("")

	require.NoError(t, m.DeleteSession(id))
	assert.Equal(t, 0, m.Len())

	_, err := m.ProcessMessage(context.Background(), id, "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
