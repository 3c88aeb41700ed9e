package models

// ToolChoiceNone offers the tools for context but forbids calling them.
const ToolChoiceNone = "none"

// Model_Request is one call to a model: the full ordered conversation and the
// tool registry the model may choose from. A forced final answer keeps the
// tools and sets ToolChoice to ToolChoiceNone, since providers reject tool
// history without declarations.
type Model_Request struct {
	Messages   []Message             `json:"messages"`
	Tools      []FunctionDeclaration `json:"tools,omitempty"`
	ToolChoice string                `json:"tool_choice,omitempty"`
}

// ToolsDisabled reports whether the model must answer in text.
func (r Model_Request) ToolsDisabled() bool {
	return r.ToolChoice == ToolChoiceNone
}

// Turn_Request is the body of a chat turn submitted over HTTP or websocket.
type Turn_Request struct {
	Message   string   `json:"message" binding:"required"`
	SessionID string   `json:"session_id,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
}
