package models

// Model_Response is the assistant message returned by a model call, optionally
// carrying tool calls.
type Model_Response struct {
	Content      *string    `json:"content,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

func (r Model_Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Text returns the response content, or "".
func (r Model_Response) Text() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

// NewTextResponse is a convenience for providers and tests.
func NewTextResponse(text string) Model_Response {
	return Model_Response{Content: textPtr(text), FinishReason: "stop"}
}

// NewToolCallResponse is a convenience for providers and tests.
func NewToolCallResponse(calls ...ToolCall) Model_Response {
	return Model_Response{ToolCalls: calls, FinishReason: "tool_calls"}
}
