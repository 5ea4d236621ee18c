package models

import "time"

// MessageRole identifies who produced a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one turn in a session. Immutable once appended;
// append order defines the prompt history sent to the reasoning provider.
type ConversationMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Metadata  Metadata    `json:"metadata,omitempty"`
}

// ConversationSession is a per-process chat session. Sessions are volatile:
// they live in a bounded in-memory cache and are lost on restart.
type ConversationSession struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id,omitempty"`
	Messages  []ConversationMessage `json:"messages"`
	Context   Metadata              `json:"context,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
