package models

import "time"

// WebSocketMessage is the envelope pushed to connected dashboard clients.
// The channel is additive and best-effort; REST polling remains the
// authoritative path for state.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
