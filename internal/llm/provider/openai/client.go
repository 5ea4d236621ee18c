package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/surya-murugan-ai/agentOps-sub003/internal/llm/types"
)

// OpenAI API constants
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 120 * time.Second
)

// Client implements the reasoning provider interface against the OpenAI
// chat completions API and any OpenAI-compatible endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// chatMessage represents an OpenAI API message
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents an OpenAI chat completions request
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature,omitempty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
}

// chatResponse represents an OpenAI chat completions response
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// apiError is the error envelope returned by the API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewClient creates a new OpenAI client.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
	}
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = DefaultModel
		}
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
	}

	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}, nil
}

// Model returns the configured default model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends the messages and returns the assistant reply. Failures are
// returned as *types.ProviderError so callers can classify them.
func (c *Client) Complete(ctx context.Context, messages []types.Message, settings types.GenerationSettings) (string, error) {
	model := settings.Model
	if model == "" {
		model = c.model
	}
	maxTokens := settings.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	req := chatRequest{
		Model:            model,
		Messages:         convertMessages(messages),
		Temperature:      settings.Temperature,
		MaxTokens:        maxTokens,
		FrequencyPenalty: settings.FrequencyPenalty,
		PresencePenalty:  settings.PresencePenalty,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", &types.ProviderError{Kind: types.ErrUnknown, Raw: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &types.ProviderError{Kind: types.ErrUnknown, Raw: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &types.ProviderError{Kind: types.ErrTransport, Raw: err.Error()}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", &types.ProviderError{Kind: types.ErrTransport, Raw: err.Error()}
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyAPIError(httpResp.StatusCode, body)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &types.ProviderError{Kind: types.ErrUnknown, Raw: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &types.ProviderError{Kind: types.ErrUnknown, Raw: "empty choices in response"}
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyAPIError maps an HTTP failure onto the provider error taxonomy.
// 401/403 → invalid key; 429 with a quota code → quota exceeded, otherwise
// rate limited; 5xx → transport.
func classifyAPIError(status int, body []byte) *types.ProviderError {
	var envelope apiError
	_ = json.Unmarshal(body, &envelope)
	raw := envelope.Error.Message
	if raw == "" {
		raw = string(body)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &types.ProviderError{Kind: types.ErrInvalidCredential, Raw: raw}
	case status == http.StatusTooManyRequests:
		code := strings.ToLower(envelope.Error.Code + " " + envelope.Error.Type)
		if strings.Contains(code, "quota") || strings.Contains(strings.ToLower(raw), "quota") {
			return &types.ProviderError{Kind: types.ErrQuotaExceeded, Raw: raw}
		}
		return &types.ProviderError{Kind: types.ErrRateLimited, Raw: raw}
	case status >= 500:
		return &types.ProviderError{Kind: types.ErrTransport, Raw: raw}
	default:
		return &types.ProviderError{Kind: types.ErrUnknown, Raw: raw}
	}
}

// convertMessages converts []types.Message to the OpenAI wire format.
func convertMessages(messages []types.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		result = append(result, chatMessage{Role: m.Role, Content: m.Content})
	}
	return result
}

// SetBaseURL overrides the API base URL.  Used in tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }
