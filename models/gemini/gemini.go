package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Desarso/tripagent/models"
)

const DefaultModel = "gemini-2.5-flash"

// Gemini_Model implements the agent Model interface with the genai SDK.
type Gemini_Model struct {
	Model  string
	client *genai.Client
}

func New(ctx context.Context, apiKey, model string) (*Gemini_Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini_Model{Model: model, client: client}, nil
}

func (g *Gemini_Model) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	contents, config := newConfig(request)
	res, err := g.client.Models.GenerateContent(ctx, g.Model, contents, config)
	if err != nil {
		return models.Model_Response{}, fmt.Errorf("gemini GenerateContent failed: %w", err)
	}
	return fromResponse(res)
}

func newConfig(request models.Model_Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, contents := toContents(request.Messages)
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(request.Tools) > 0 {
		config.Tools = toTools(request.Tools)
		if request.ToolsDisabled() {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone},
			}
		}
	}
	return contents, config
}

// toContents maps the conversation onto user/model turns. Tool results need
// the function name, which is recovered from the call they answer.
func toContents(msgs []models.Message) (string, []*genai.Content) {
	var system []string
	var out []*genai.Content
	names := map[string]string{}

	push := func(role string, part *genai.Part) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, part)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}

	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Text())
		case models.RoleUser:
			push(genai.RoleUser, genai.NewPartFromText(m.Text()))
		case models.RoleAssistant:
			if m.HasContent() {
				push(genai.RoleModel, genai.NewPartFromText(m.Text()))
			}
			for _, tc := range m.ToolCalls {
				names[tc.ID] = tc.Function.Name
				args, err := tc.Args()
				if err != nil {
					args = map[string]interface{}{}
				}
				push(genai.RoleModel, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				}})
			}
		case models.RoleTool:
			push(genai.RoleUser, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     names[m.ToolCallID],
				Response: map[string]any{"result": m.Text()},
			}})
		}
	}
	return strings.Join(system, "\n\n"), out
}

func toTools(fds []models.FunctionDeclaration) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, len(fds))
	for i, fd := range fds {
		params := fd.Parameters
		if params.Type == "" {
			params.Type = "object"
		}
		if params.Properties == nil {
			params.Properties = map[string]interface{}{}
		}
		decls[i] = &genai.FunctionDeclaration{
			Name:                 fd.Name,
			Description:          fd.Description,
			ParametersJsonSchema: params,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func fromResponse(res *genai.GenerateContentResponse) (models.Model_Response, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return models.Model_Response{}, errors.New("gemini response has no candidates")
	}
	cand := res.Candidates[0]
	out := models.Model_Response{FinishReason: string(cand.FinishReason)}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			if part.FunctionCall.Args == nil {
				args = []byte("{}")
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				ID:       id,
				Type:     "function",
				Function: models.FunctionCall{Name: part.FunctionCall.Name, Arguments: string(args)},
			})
			continue
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	if text.Len() > 0 {
		s := text.String()
		out.Content = &s
	}
	return out, nil
}
