package types

import "fmt"

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`    // user, assistant, system
	Content string `json:"content"` // message text
}

// GenerationSettings are the per-call model parameters, sourced from the
// owning agent's stored configuration.
type GenerationSettings struct {
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64 `json:"presence_penalty,omitempty"`
}

// ErrorKind classifies provider failures. This classification is the only
// provider error state surfaced to operators; raw provider error text is
// logged, never displayed.
type ErrorKind string

const (
	ErrQuotaExceeded     ErrorKind = "quota_exceeded"
	ErrInvalidCredential ErrorKind = "invalid_key"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrTransport         ErrorKind = "transport_error"
	ErrUnknown           ErrorKind = "unknown"
)

// ProviderError wraps a provider failure with its classification.
type ProviderError struct {
	Kind ErrorKind
	Raw  string // raw provider error text, for logs only
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s)", e.Kind)
}

// KindOf returns the classification of err, or ErrUnknown for anything
// that is not a ProviderError.
func KindOf(err error) ErrorKind {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Kind
	}
	return ErrUnknown
}
