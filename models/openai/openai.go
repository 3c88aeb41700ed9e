// Package openai is the chat-completions model client for DeepSeek and any
// other OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Desarso/tripagent/models"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
)

// OpenAI_Model implements the agent Model interface over openai-go.
type OpenAI_Model struct {
	Model       string
	Temperature *float64
	client      openai.Client
}

// New builds a client for baseURL. Empty values fall back to the DeepSeek
// defaults.
func New(apiKey, baseURL, model string) *OpenAI_Model {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI_Model{
		Model: model,
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
		),
	}
}

func (o *OpenAI_Model) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	completion, err := o.client.Chat.Completions.New(ctx, o.newParams(request))
	if err != nil {
		return models.Model_Response{}, fmt.Errorf("chat completion failed: %w", err)
	}
	return fromCompletion(completion)
}

func (o *OpenAI_Model) newParams(request models.Model_Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: toMessages(request.Messages),
		Model:    openai.ChatModel(o.Model),
	}
	if len(request.Tools) > 0 {
		params.Tools = toTools(request.Tools)
		if request.ToolsDisabled() {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoNone)),
			}
		}
	}
	if o.Temperature != nil {
		params.Temperature = openai.Float(*o.Temperature)
	}
	return params
}

func toMessages(msgs []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case models.RoleUser:
			out = append(out, openai.UserMessage(m.Text()))
		case models.RoleTool:
			out = append(out, openai.ToolMessage(m.Text(), m.ToolCallID))
		case models.RoleAssistant:
			if !m.HasToolCalls() {
				out = append(out, openai.AssistantMessage(m.Text()))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.HasContent() {
				assistant.Content.OfString = openai.String(m.Text())
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: arguments(tc),
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

func arguments(tc models.ToolCall) string {
	if tc.Function.Arguments == "" {
		return "{}"
	}
	return tc.Function.Arguments
}

// toTools converts declarations, making sure properties and required are
// never serialized as null.
func toTools(fds []models.FunctionDeclaration) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, len(fds))
	for i, fd := range fds {
		params := openai.FunctionParameters{
			"type":       fd.Parameters.Type,
			"properties": fd.Parameters.Properties,
			"required":   fd.Parameters.Required,
		}
		if fd.Parameters.Type == "" {
			params["type"] = "object"
		}
		if fd.Parameters.Properties == nil {
			params["properties"] = map[string]interface{}{}
		}
		if fd.Parameters.Required == nil {
			params["required"] = []string{}
		}
		tools[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        fd.Name,
			Description: openai.String(fd.Description),
			Parameters:  params,
		})
	}
	return tools
}

func fromCompletion(completion *openai.ChatCompletion) (models.Model_Response, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return models.Model_Response{}, errors.New("completion has no choices")
	}
	choice := completion.Choices[0]
	res := models.Model_Response{FinishReason: choice.FinishReason}
	if choice.Message.Content != "" {
		text := choice.Message.Content
		res.Content = &text
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		res.ToolCalls = append(res.ToolCalls, models.ToolCall{
			ID:       id,
			Type:     "function",
			Function: models.FunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
		})
	}
	return res, nil
}
