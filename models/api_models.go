package models

import "time"

// ChatMessageResponse is a message as returned by the session API. System
// messages are never exposed.
type ChatMessageResponse struct {
	Sequence   int        `json:"sequence"`
	Role       string     `json:"role"`
	Text       string     `json:"text,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SessionSummary is a row of the history list.
type SessionSummary struct {
	ID           string    `json:"id"`
	Index        int       `json:"index"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	HasItinerary bool      `json:"has_itinerary"`
	HasMap       bool      `json:"has_map"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Turn statuses.
const (
	TurnCompleted = "completed"
	TurnSuspended = "suspended"
)

// TurnResult is returned by a turn call. When Status is suspended, Route
// holds the freshly produced map and the caller resumes the turn.
type TurnResult struct {
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	Reply     string         `json:"reply,omitempty"`
	Route     *RouteArtifact `json:"route,omitempty"`
	Rounds    int            `json:"rounds"`
}

// ToChatMessageResponses converts a session's messages for the API.
func ToChatMessageResponses(msgs []Message) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(msgs))
	for i, m := range msgs {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, ChatMessageResponse{
			Sequence:   i,
			Role:       m.Role,
			Text:       m.Text(),
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}
	return out
}
