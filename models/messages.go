package models

import (
	"encoding/json"
	"fmt"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single entry of a conversation, in the chat-completions shape
// the model API expects. Content is nil on assistant messages that only carry
// tool calls.
type Message struct {
	Role       string     `json:"role" firestore:"role"`
	Content    *string    `json:"content" firestore:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" firestore:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty" firestore:"tool_call_id,omitempty"`
}

// ToolCall is a model-issued request to run a registered tool.
type ToolCall struct {
	ID       string       `json:"id" firestore:"id"`
	Type     string       `json:"type" firestore:"type"` // "function"
	Function FunctionCall `json:"function" firestore:"function"`
}

// FunctionCall names the tool and carries its arguments as a raw JSON object.
type FunctionCall struct {
	Name      string `json:"name" firestore:"name"`
	Arguments string `json:"arguments" firestore:"arguments"`
}

// Text returns the message content, or "" when there is none.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// HasContent reports whether the message carries non-empty text.
func (m Message) HasContent() bool {
	return m.Content != nil && *m.Content != ""
}

// HasToolCalls reports whether this is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Args decodes the call's JSON arguments. Empty arguments decode to an empty map.
func (tc ToolCall) Args() (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if tc.Function.Arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("failed to decode arguments for %s: %w", tc.Function.Name, err)
	}
	return args, nil
}

// NewToolCall builds a function tool call, encoding args as JSON.
func NewToolCall(id, name string, args map[string]interface{}) ToolCall {
	if args == nil {
		args = map[string]interface{}{}
	}
	raw, _ := json.Marshal(args)
	return ToolCall{
		ID:       id,
		Type:     "function",
		Function: FunctionCall{Name: name, Arguments: string(raw)},
	}
}

func textPtr(s string) *string {
	return &s
}

func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: textPtr(text)}
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: textPtr(text)}
}

func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: textPtr(text)}
}

// AssistantToolCalls is the assistant message that precedes a round of tool results.
func AssistantToolCalls(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolResultMessage answers the tool call with the given id.
func ToolResultMessage(toolCallID, result string) Message {
	return Message{Role: RoleTool, Content: textPtr(result), ToolCallID: toolCallID}
}
