package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Desarso/tripagent/models"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 4096
)

// Anthropic_Model implements the agent Model interface for the Anthropic Messages API.
type Anthropic_Model struct {
	Model     string
	MaxTokens int64
	client    anthropic.Client
}

func New(apiKey, baseURL, model string) *Anthropic_Model {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Anthropic_Model{
		Model:     model,
		MaxTokens: DefaultMaxTokens,
		client: anthropic.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
		),
	}
}

func (a *Anthropic_Model) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	msg, err := a.client.Messages.New(ctx, a.newParams(request))
	if err != nil {
		return models.Model_Response{}, fmt.Errorf("anthropic request failed: %w", err)
	}
	return fromMessage(msg)
}

// newParams keeps the tool declarations whenever the request has them:
// tool_use blocks in the history are rejected without them.
func (a *Anthropic_Model) newParams(request models.Model_Request) anthropic.MessageNewParams {
	system, msgs := toMessages(request.Messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: a.MaxTokens,
		Messages:  msgs,
		System:    system,
	}
	if len(request.Tools) > 0 {
		params.Tools = toTools(request.Tools)
		if request.ToolsDisabled() {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		}
	}
	return params
}

// toMessages splits out the system prompt and folds consecutive same-role
// messages together, so every round of tool results travels as one user
// message of tool_result blocks.
func toMessages(msgs []models.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam

	push := func(role anthropic.MessageParamRole, block anthropic.ContentBlockParamUnion) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, block)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: []anthropic.ContentBlockParamUnion{block}})
	}

	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Text()})
		case models.RoleUser:
			push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(m.Text()))
		case models.RoleTool:
			push(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(m.ToolCallID, m.Text(), false))
		case models.RoleAssistant:
			if m.HasContent() {
				push(anthropic.MessageParamRoleAssistant, anthropic.NewTextBlock(m.Text()))
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Function.Arguments)
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				push(anthropic.MessageParamRoleAssistant, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
		}
	}
	return system, out
}

func toTools(fds []models.FunctionDeclaration) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(fds))
	for i, fd := range fds {
		schema := anthropic.ToolInputSchemaParam{Properties: fd.Parameters.Properties}
		if len(fd.Parameters.Required) > 0 {
			schema.Required = fd.Parameters.Required
		}
		tools[i] = anthropic.ToolUnionParamOfTool(schema, fd.Name)
		if fd.Description != "" {
			tools[i].OfTool.Description = anthropic.String(fd.Description)
		}
	}
	return tools
}

func fromMessage(msg *anthropic.Message) (models.Model_Response, error) {
	if msg == nil || len(msg.Content) == 0 {
		return models.Model_Response{}, errors.New("anthropic response has no content")
	}
	res := models.Model_Response{FinishReason: string(msg.StopReason)}
	var text string
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			res.ToolCalls = append(res.ToolCalls, models.ToolCall{
				ID:       b.ID,
				Type:     "function",
				Function: models.FunctionCall{Name: b.Name, Arguments: args},
			})
		}
	}
	if text != "" {
		res.Content = &text
	}
	return res, nil
}
