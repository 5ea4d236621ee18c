package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", "gpt-4o", server.URL)
	require.NoError(t, err)
	return client
}

func complete(t *testing.T, c *Client) (string, error) {
	t.Helper()
	return c.Complete(context.Background(),
		[]types.Message{{Role: "user", Content: "hello"}},
		types.GenerationSettings{})
}

func TestCompleteReturnsAssistantReply(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hi there"}},
			},
		})
	})

	reply, err := complete(t, client)
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   types.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized,
			`{"error":{"message":"Incorrect API key provided","code":"invalid_api_key"}}`,
			types.ErrInvalidCredential},
		{"forbidden", http.StatusForbidden,
			`{"error":{"message":"forbidden"}}`,
			types.ErrInvalidCredential},
		{"quota exhausted", http.StatusTooManyRequests,
			`{"error":{"message":"You exceeded your current quota","code":"insufficient_quota"}}`,
			types.ErrQuotaExceeded},
		{"rate limited", http.StatusTooManyRequests,
			`{"error":{"message":"Rate limit reached","code":"rate_limit_exceeded"}}`,
			types.ErrRateLimited},
		{"server error", http.StatusInternalServerError,
			`{"error":{"message":"The server had an error"}}`,
			types.ErrTransport},
		{"unexpected status", http.StatusTeapot,
			`{"error":{"message":"teapot"}}`,
			types.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := complete(t, client)
			require.Error(t, err)

			var provErr *types.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tt.want, provErr.Kind)
			assert.NotEmpty(t, provErr.Raw)
		})
	}
}

func TestTransportFailureClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client, err := NewClient("test-key", "gpt-4o", server.URL)
	require.NoError(t, err)

	_, err = complete(t, client)
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.KindOf(err))
}

func TestEmptyChoicesRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := complete(t, client)
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknown, types.KindOf(err))
}

func TestSettingsOverrideDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 256, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 0.001)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	})

	_, err := client.Complete(context.Background(),
		[]types.Message{{Role: "user", Content: "hello"}},
		types.GenerationSettings{Model: "gpt-4o-mini", MaxTokens: 256, Temperature: 0.7})
	require.NoError(t, err)
}
